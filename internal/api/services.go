package api

// Service accessors group Client methods by resource.
// Each service embeds *Client so one client serves every resource.

type PayersService struct{ *Client }

type AccountsService struct{ *Client }

type StatementsService struct{ *Client }

func (c *Client) Payers() PayersService {
	return PayersService{c}
}

func (c *Client) Accounts() AccountsService {
	return AccountsService{c}
}

func (c *Client) Statements() StatementsService {
	return StatementsService{c}
}
