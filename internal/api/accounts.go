package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// List retrieves every bank account attached to the payer.
func (s AccountsService) List(ctx context.Context, taxID string) ([]Account, error) {
	return listAccounts(ctx, s, taxID)
}

func listAccounts(ctx context.Context, r Requester, taxID string) ([]Account, error) {
	if taxID == "" {
		return nil, fmt.Errorf("tax ID is required")
	}
	var accounts []Account
	req := Request{
		Method:  http.MethodGet,
		Path:    "/account",
		Headers: payerHeaders(taxID),
	}
	if err := doInto(ctx, r, req, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Create attaches a bank account to the payer. The service answers with the
// stored account, including the hash that identifies it from then on.
func (s AccountsService) Create(ctx context.Context, taxID string, params AccountParams) (*Account, error) {
	return createAccount(ctx, s, taxID, params)
}

func createAccount(ctx context.Context, r Requester, taxID string, params AccountParams) (*Account, error) {
	if taxID == "" {
		return nil, fmt.Errorf("tax ID is required")
	}
	if params.BankCode == "" {
		return nil, fmt.Errorf("bank code is required")
	}
	if params.Number == "" {
		return nil, fmt.Errorf("account number is required")
	}
	var account Account
	req := Request{
		Method:  http.MethodPost,
		Path:    "/account",
		Headers: payerHeaders(taxID),
		Fields:  params.fields(),
	}
	if err := doInto(ctx, r, req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Get retrieves one bank account by its hash.
func (s AccountsService) Get(ctx context.Context, taxID, hash string) (*Account, error) {
	return getBankAccount(ctx, s, taxID, hash)
}

func getBankAccount(ctx context.Context, r Requester, taxID, hash string) (*Account, error) {
	if taxID == "" {
		return nil, fmt.Errorf("tax ID is required")
	}
	if hash == "" {
		return nil, fmt.Errorf("account hash is required")
	}
	var account Account
	req := Request{
		Method:  http.MethodGet,
		Path:    "/account/" + url.PathEscape(hash),
		Headers: payerHeaders(taxID),
	}
	if err := doInto(ctx, r, req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Update changes a bank account identified by its hash.
func (s AccountsService) Update(ctx context.Context, taxID, hash string, params AccountParams) (*Account, error) {
	return updateBankAccount(ctx, s, taxID, hash, params)
}

func updateBankAccount(ctx context.Context, r Requester, taxID, hash string, params AccountParams) (*Account, error) {
	if taxID == "" {
		return nil, fmt.Errorf("tax ID is required")
	}
	if hash == "" {
		return nil, fmt.Errorf("account hash is required")
	}
	var account Account
	req := Request{
		Method:  http.MethodPut,
		Path:    "/account/" + url.PathEscape(hash),
		Headers: payerHeaders(taxID),
		Fields:  params.fields(),
	}
	if err := doInto(ctx, r, req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
