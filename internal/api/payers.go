package api

import (
	"context"
	"fmt"
	"net/http"
)

// Get retrieves the payer identified by taxID. The tax ID may carry CPF or
// CNPJ punctuation; identification always travels digits-only.
func (s PayersService) Get(ctx context.Context, taxID string) (*Payer, error) {
	return getPayer(ctx, s, taxID)
}

func getPayer(ctx context.Context, r Requester, taxID string) (*Payer, error) {
	if taxID == "" {
		return nil, fmt.Errorf("tax ID is required")
	}
	var payer Payer
	req := Request{
		Method:  http.MethodGet,
		Path:    "/payer",
		Headers: payerHeaders(taxID),
	}
	if err := doInto(ctx, r, req, &payer); err != nil {
		return nil, err
	}
	return &payer, nil
}

// Create registers a new payer.
func (s PayersService) Create(ctx context.Context, params PayerParams) (*Payer, error) {
	return createPayer(ctx, s, params)
}

func createPayer(ctx context.Context, r Requester, params PayerParams) (*Payer, error) {
	if params.TaxID == "" {
		return nil, fmt.Errorf("tax ID is required")
	}
	if params.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	var payer Payer
	req := Request{
		Method: http.MethodPost,
		Path:   "/payer",
		Fields: params.fields(),
	}
	if err := doInto(ctx, r, req, &payer); err != nil {
		return nil, err
	}
	return &payer, nil
}

// Update changes the registration data of the payer identified by
// params.TaxID.
func (s PayersService) Update(ctx context.Context, params PayerParams) (*Payer, error) {
	return updatePayer(ctx, s, params)
}

func updatePayer(ctx context.Context, r Requester, params PayerParams) (*Payer, error) {
	if params.TaxID == "" {
		return nil, fmt.Errorf("tax ID is required")
	}
	var payer Payer
	req := Request{
		Method:  http.MethodPut,
		Path:    "/payer",
		Headers: payerHeaders(params.TaxID),
		Fields:  params.fields(),
	}
	if err := doInto(ctx, r, req, &payer); err != nil {
		return nil, err
	}
	return &payer, nil
}
