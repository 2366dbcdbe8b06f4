package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// maxWaitIterations is a safety limit to prevent infinite loops when
// polling a parse job. At the default 2s interval this allows ~30 minutes
// of waiting before giving up.
const maxWaitIterations = 1000

// Upload submits a statement file for parsing. The call always runs in
// upload mode: fields travel as bracket-flattened multipart form-data next
// to the file part, whatever the client-level setting says.
func (s StatementsService) Upload(ctx context.Context, taxID, accountHash, filename string, content []byte) (*StatementParseJob, error) {
	return uploadStatement(ctx, s, taxID, accountHash, filename, content)
}

func uploadStatement(ctx context.Context, r Requester, taxID, accountHash, filename string, content []byte) (*StatementParseJob, error) {
	if taxID == "" {
		return nil, fmt.Errorf("tax ID is required")
	}
	if accountHash == "" {
		return nil, fmt.Errorf("account hash is required")
	}
	if filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("file content is empty")
	}
	if len(content) > MaxStatementSize {
		return nil, fmt.Errorf("file exceeds maximum size of %d bytes", MaxStatementSize)
	}

	var job StatementParseJob
	req := Request{
		Method:  http.MethodPost,
		Path:    "/statement/parser",
		Headers: payerHeaders(taxID),
		Fields: map[string]any{
			"accountHash": accountHash,
			"file": map[string]any{
				"name": filename,
				"size": len(content),
			},
		},
		Files: []File{{Field: "file", Name: filename, Content: content}},
	}
	if err := doInto(ctx, r, req, &job, WithUpload(true)); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetParse retrieves the state of a statement parse job.
func (s StatementsService) GetParse(ctx context.Context, taxID, id string) (*StatementParseJob, error) {
	return getStatementParse(ctx, s, taxID, id)
}

func getStatementParse(ctx context.Context, r Requester, taxID, id string) (*StatementParseJob, error) {
	if taxID == "" {
		return nil, fmt.Errorf("tax ID is required")
	}
	if id == "" {
		return nil, fmt.Errorf("parse job ID is required")
	}
	var job StatementParseJob
	req := Request{
		Method:  http.MethodGet,
		Path:    "/statement/parser/" + url.PathEscape(id),
		Headers: payerHeaders(taxID),
	}
	if err := doInto(ctx, r, req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// WaitParse polls a parse job until it reaches a terminal state. The
// client's WaitTimeout bounds the overall wait and WaitInterval sets the
// poll cadence; ctx cancellation is honored between polls.
func (s StatementsService) WaitParse(ctx context.Context, taxID, id string) (*StatementParseJob, error) {
	waitCtx := ctx
	if s.WaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.WaitTimeout)
		defer cancel()
	}

	interval := s.WaitInterval
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	for iteration := 0; iteration < maxWaitIterations; iteration++ {
		job, err := getStatementParse(waitCtx, s, taxID, id)
		if err != nil {
			// Normalize timeout/cancellation to the canonical context errors
			// so callers can check equality without unwrapping.
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, context.DeadlineExceeded
			}
			if errors.Is(err, context.Canceled) {
				return nil, context.Canceled
			}
			return nil, err
		}
		if job.Finished() {
			return job, nil
		}
		if err := sleepWithContext(waitCtx, interval); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("parse job %s still running after %d polls", id, maxWaitIterations)
}

// ListByPeriod retrieves the statements on file for the payer between
// dateStart and dateEnd (inclusive, 2006-01-02 form). Extra query pairs are
// passed through, except that caller-supplied dateStart/dateEnd pairs are
// dropped in favor of the explicit arguments so the query never carries
// duplicates.
func (s StatementsService) ListByPeriod(ctx context.Context, taxID, dateStart, dateEnd string, extra ...Param) ([]Statement, error) {
	return listStatementsByPeriod(ctx, s, taxID, dateStart, dateEnd, extra...)
}

func listStatementsByPeriod(ctx context.Context, r Requester, taxID, dateStart, dateEnd string, extra ...Param) ([]Statement, error) {
	if taxID == "" {
		return nil, fmt.Errorf("tax ID is required")
	}
	if dateStart == "" || dateEnd == "" {
		return nil, fmt.Errorf("dateStart and dateEnd are required")
	}

	params := withoutParams(extra, "dateStart", "dateEnd")
	params = append(params,
		Param{Name: "dateStart", Value: dateStart},
		Param{Name: "dateEnd", Value: dateEnd},
	)

	var statements []Statement
	req := Request{
		Method:  http.MethodGet,
		Path:    "/statement",
		Params:  params,
		Headers: payerHeaders(taxID),
	}
	if err := doInto(ctx, r, req, &statements); err != nil {
		return nil, err
	}
	return statements, nil
}

// Download retrieves the original statement file. The call always runs with
// decoding off: the payload is the file itself, not JSON. Returns the file
// bytes and the Content-Type the service reported.
func (s StatementsService) Download(ctx context.Context, taxID, id string) ([]byte, string, error) {
	return downloadStatement(ctx, s, taxID, id)
}

func downloadStatement(ctx context.Context, r Requester, taxID, id string) ([]byte, string, error) {
	if taxID == "" {
		return nil, "", fmt.Errorf("tax ID is required")
	}
	if id == "" {
		return nil, "", fmt.Errorf("statement ID is required")
	}
	req := Request{
		Method:  http.MethodGet,
		Path:    "/statement/" + url.PathEscape(id) + "/download",
		Headers: payerHeaders(taxID),
	}
	res, err := r.Do(ctx, req, WithDecode(false))
	if err != nil {
		return nil, "", err
	}
	return res.Raw, res.Headers.Get("Content-Type"), nil
}

// sleepWithContext sleeps for the given duration unless the context is
// canceled first, in which case the context error is returned.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
