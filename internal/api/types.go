package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Statement parse job states
const (
	ParseStatusQueued  = "queued"
	ParseStatusParsing = "parsing"
	ParseStatusDone    = "done"
	ParseStatusFailed  = "failed"
)

// Upload limits
const (
	MaxStatementSize = 20 * 1024 * 1024 // 20MB per statement file
)

// FlexFloat handles JSON numbers that may come as strings or numbers.
// Statement amounts arrive both ways depending on the source format.
type FlexFloat float64

func (ff *FlexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	// Try as float first
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*ff = FlexFloat(f)
		return nil
	}
	// Try as string
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*ff = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*ff = FlexFloat(f)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into FlexFloat", data)
}

// Payer is a customer registered with the service, identified by a CPF or
// CNPJ tax ID.
type Payer struct {
	TaxID     string    `json:"taxId"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   *Address  `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Address is a payer's registered address.
type Address struct {
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Account is a bank account attached to a payer. Hash is the opaque
// identifier the service assigns on creation; it never changes.
type Account struct {
	Hash      string    `json:"hash"`
	BankCode  string    `json:"bankCode"`
	Branch    string    `json:"branch"`
	Number    string    `json:"number"`
	Kind      string    `json:"kind"` // checking or savings
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// StatementParseJob tracks an uploaded statement through server-side
// parsing. Transactions is populated once Status is done.
type StatementParseJob struct {
	ID               string        `json:"id"`
	Status           string        `json:"status"`
	AccountHash      string        `json:"accountHash,omitempty"`
	FileName         string        `json:"fileName,omitempty"`
	TransactionCount int           `json:"transactionCount,omitempty"`
	Transactions     []Transaction `json:"transactions,omitempty"`
	Error            string        `json:"error,omitempty"`
}

// Finished reports whether parsing has reached a terminal state.
func (j *StatementParseJob) Finished() bool {
	return j.Status == ParseStatusDone || j.Status == ParseStatusFailed
}

// Transaction is one entry of a parsed statement.
type Transaction struct {
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Amount      FlexFloat `json:"amount"`
	Kind        string    `json:"kind"` // credit or debit
}

// Statement is one parsed bank statement on file for a payer.
type Statement struct {
	ID               string    `json:"id"`
	AccountHash      string    `json:"accountHash"`
	DateStart        string    `json:"dateStart"`
	DateEnd          string    `json:"dateEnd"`
	TransactionCount int       `json:"transactionCount"`
	UploadedAt       time.Time `json:"uploadedAt,omitzero"`
}

// PayerParams carries the writable payer fields. Only set fields are sent;
// the service validates business rules, the client only checks presence.
type PayerParams struct {
	TaxID   string
	Name    string
	Email   string
	Phone   string
	Address *Address
}

func (p PayerParams) fields() map[string]any {
	body := map[string]any{}
	if p.TaxID != "" {
		body["taxId"] = p.TaxID
	}
	if p.Name != "" {
		body["name"] = p.Name
	}
	if p.Email != "" {
		body["email"] = p.Email
	}
	if p.Phone != "" {
		body["phone"] = p.Phone
	}
	if p.Address != nil {
		addr := map[string]any{}
		if p.Address.Street != "" {
			addr["street"] = p.Address.Street
		}
		if p.Address.Number != "" {
			addr["number"] = p.Address.Number
		}
		if p.Address.District != "" {
			addr["district"] = p.Address.District
		}
		if p.Address.City != "" {
			addr["city"] = p.Address.City
		}
		if p.Address.State != "" {
			addr["state"] = p.Address.State
		}
		if p.Address.PostalCode != "" {
			addr["postalCode"] = p.Address.PostalCode
		}
		body["address"] = addr
	}
	return body
}

// AccountParams carries the writable bank account fields.
type AccountParams struct {
	BankCode string
	Branch   string
	Number   string
	Kind     string
}

func (p AccountParams) fields() map[string]any {
	body := map[string]any{}
	if p.BankCode != "" {
		body["bankCode"] = p.BankCode
	}
	if p.Branch != "" {
		body["branch"] = p.Branch
	}
	if p.Number != "" {
		body["number"] = p.Number
	}
	if p.Kind != "" {
		body["kind"] = p.Kind
	}
	return body
}
