package api

import "context"

// Requester is the request surface resource helpers depend on. It abstracts
// request building and execution: URL assembly from the configured
// environment, body encoding per the active mode, the decode policy and
// error classification.
//
// Depending on the interface rather than *Client lets tests swap in a stub
// that returns canned results without a network:
//
//	type stubRequester struct{ result *api.Result }
//	func (s stubRequester) Do(ctx context.Context, req api.Request, opts ...api.CallOption) (*api.Result, error) {
//		return s.result, nil
//	}
type Requester interface {
	// Do executes one API call under a snapshot of the client settings,
	// adjusted by opts for this call only. Exactly one attempt is made.
	Do(ctx context.Context, req Request, opts ...CallOption) (*Result, error)
}
