package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/extrata/extrata-cli/internal/debug"
	"github.com/extrata/extrata-cli/internal/validation"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultWaitTimeout  = 5 * time.Minute
	DefaultWaitInterval = 2 * time.Second
)

// Environment selects which Extrata deployment the client talks to.
type Environment string

const (
	Production Environment = "production"
	Staging    Environment = "staging"
)

const (
	productionBaseURL = "https://api.extrata.com.br/api/v1"
	stagingBaseURL    = "https://api.staging.extrata.com.br/api/v1"
)

// ParseEnvironment maps a configuration string to an Environment.
// Anything that is not recognizably staging means production.
func ParseEnvironment(s string) Environment {
	switch s {
	case "staging", "stg", "sandbox":
		return Staging
	}
	return Production
}

// EndpointURL returns the API root for the environment.
func (e Environment) EndpointURL() string {
	if e == Staging {
		return stagingBaseURL
	}
	return productionBaseURL
}

// Client is the Extrata API client.
//
// Settings (credentials, environment, upload/decode/debug modes) may be
// changed at any time through their setters; each request captures an
// immutable snapshot of them when it starts, so concurrent setter calls
// never affect a request already in flight and a per-call override never
// leaks into client state.
type Client struct {
	mu              sync.RWMutex
	credentialID    string
	credentialToken string
	environment     Environment
	baseURLOverride string
	uploadMode      bool
	decodeMode      bool
	debugMode       bool
	userAgent       string

	HTTP *http.Client

	WaitTimeout  time.Duration
	WaitInterval time.Duration

	skipURLValidation bool // internal flag for testing only
	validateMu        sync.Mutex
	validatedBaseURL  string
}

// Compile-time interface implementation check
var _ Requester = (*Client)(nil)

var validateBaseURL = validation.ValidateBaseURL

// Option adjusts a Client at construction time.
type Option func(*Client)

// WithBaseURL overrides the environment-derived API root. Meant for tests
// and self-hosted gateways.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURLOverride = url }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

// WithUserAgent replaces the default User-Agent header value.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithUploadMode sets the initial upload mode.
func WithUploadMode(on bool) Option {
	return func(c *Client) { c.uploadMode = on }
}

// WithDecodeMode sets the initial decode mode.
func WithDecodeMode(on bool) Option {
	return func(c *Client) { c.decodeMode = on }
}

// WithDebugMode sets the initial debug mode.
func WithDebugMode(on bool) Option {
	return func(c *Client) { c.debugMode = on }
}

// New creates an Extrata API client. staging=false targets production,
// which is the default deployment.
func New(credentialID, credentialToken string, staging bool, opts ...Option) *Client {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12
	transport.TLSClientConfig.InsecureSkipVerify = false

	env := Production
	if staging {
		env = Staging
	}

	// Allow localhost URLs when EXTRATA_TESTING=1 is set (for integration tests)
	skipValidation := os.Getenv("EXTRATA_TESTING") == "1"

	c := &Client{
		credentialID:      credentialID,
		credentialToken:   credentialToken,
		environment:       env,
		decodeMode:        true,
		userAgent:         "extrata-cli",
		skipURLValidation: skipValidation,
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		WaitTimeout:  DefaultWaitTimeout,
		WaitInterval: DefaultWaitInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newTestClient creates a client pointed at a test server with URL
// validation disabled.
func newTestClient(baseURL, credentialID, credentialToken string) *Client {
	c := New(credentialID, credentialToken, false, WithBaseURL(baseURL))
	c.skipURLValidation = true
	return c
}

// CredentialID returns the credential identifier sent with every request.
func (c *Client) CredentialID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credentialID
}

// SetCredentialID replaces the credential identifier.
func (c *Client) SetCredentialID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credentialID = id
}

// CredentialToken returns the credential secret sent with every request.
func (c *Client) CredentialToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credentialToken
}

// SetCredentialToken replaces the credential secret.
func (c *Client) SetCredentialToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credentialToken = token
}

// Environment returns the deployment the client targets.
func (c *Client) Environment() Environment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.environment
}

// SetEnvironment switches the client between production and staging.
func (c *Client) SetEnvironment(env Environment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.environment = env
}

// UploadMode reports whether request bodies are encoded as multipart
// form-data instead of JSON.
func (c *Client) UploadMode() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uploadMode
}

// SetUploadMode switches body encoding between multipart form-data (true)
// and JSON (false).
func (c *Client) SetUploadMode(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploadMode = on
}

// DecodeMode reports whether success response bodies are decoded from JSON.
func (c *Client) DecodeMode() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.decodeMode
}

// SetDecodeMode switches decoding of success response bodies. Non-success
// bodies are always decoded for classification regardless of this setting.
func (c *Client) SetDecodeMode(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decodeMode = on
}

// DebugMode reports whether results carry request diagnostics.
func (c *Client) DebugMode() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.debugMode
}

// SetDebugMode switches diagnostics collection.
func (c *Client) SetDebugMode(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debugMode = on
}

// BaseURL returns the API root requests are sent to: the override when one
// was set, otherwise the environment's endpoint.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.baseURLOverride != "" {
		return c.baseURLOverride
	}
	return c.environment.EndpointURL()
}

// callConfig is the immutable snapshot of client settings one call runs
// under. Per-call options adjust the snapshot only, so nothing ever has to
// be restored afterwards, error path or not.
type callConfig struct {
	credentialID    string
	credentialToken string
	baseURL         string
	uploadMode      bool
	decodeMode      bool
	debugMode       bool
	userAgent       string
}

// CallOption overrides one setting for a single call.
type CallOption func(*callConfig)

// WithUpload forces multipart form-data encoding (or JSON, when off) for
// this call only.
func WithUpload(on bool) CallOption {
	return func(cfg *callConfig) { cfg.uploadMode = on }
}

// WithDecode forces the decode mode for this call only. Non-success bodies
// are still always decoded for classification.
func WithDecode(on bool) CallOption {
	return func(cfg *callConfig) { cfg.decodeMode = on }
}

func (c *Client) snapshot(opts []CallOption) callConfig {
	c.mu.RLock()
	cfg := callConfig{
		credentialID:    c.credentialID,
		credentialToken: c.credentialToken,
		baseURL:         c.baseURLOverride,
		uploadMode:      c.uploadMode,
		decodeMode:      c.decodeMode,
		debugMode:       c.debugMode,
		userAgent:       c.userAgent,
	}
	if cfg.baseURL == "" {
		cfg.baseURL = c.environment.EndpointURL()
	}
	c.mu.RUnlock()

	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c *Client) ensureBaseURLValidated(baseURL string) error {
	if c.skipURLValidation {
		return nil
	}
	if baseURL == productionBaseURL || baseURL == stagingBaseURL {
		return nil
	}

	c.validateMu.Lock()
	defer c.validateMu.Unlock()

	if c.validatedBaseURL == baseURL {
		return nil
	}

	if err := validateBaseURL(baseURL); err != nil {
		return fmt.Errorf("URL validation failed: %w", err)
	}

	c.validatedBaseURL = baseURL
	return nil
}

// normalizePath guarantees a leading slash so callers can pass "payer" and
// "/payer" interchangeably. An empty path addresses the API root itself.
func normalizePath(path string) string {
	if path == "" || path[0] == '/' {
		return path
	}
	return "/" + path
}

// Do executes one API call. The request runs under a snapshot of the client
// settings taken at call time, adjusted by opts for this call only.
//
// Exactly one attempt is made; there are no retries. When a response was
// received, the returned Result always carries its status, headers and raw
// body, even when err is non-nil.
func (c *Client) Do(ctx context.Context, req Request, opts ...CallOption) (*Result, error) {
	cfg := c.snapshot(opts)

	if err := c.ensureBaseURLValidated(cfg.baseURL); err != nil {
		return nil, err
	}

	payload, err := encodeBody(cfg, req.Fields, req.Files)
	if err != nil {
		return nil, err
	}

	target := cfg.baseURL + normalizePath(req.Path) + encodeQuery(req.Params)

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = payload.reader
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("X-Credential-Id", cfg.credentialID)
	httpReq.Header.Set("X-Credential-Token", cfg.credentialToken)
	if cfg.userAgent != "" {
		httpReq.Header.Set("User-Agent", cfg.userAgent)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", payload.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	for _, h := range req.Headers {
		// Add, not Set: same-name pairs accumulate in caller order.
		httpReq.Header.Add(h.Name, h.Value)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		if debug.IsEnabled(ctx) {
			slog.Debug("request failed", "method", req.Method, "url", target, "error", err)
		}
		return nil, &TransportError{Method: req.Method, URL: target, Cause: err}
	}

	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: target, Cause: err}
	}
	duration := time.Since(start)

	if debug.IsEnabled(ctx) || cfg.debugMode {
		slog.Debug("request complete",
			"method", req.Method, "url", target,
			"status", resp.StatusCode, "duration", duration)
	}

	result := &Result{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Raw:        raw,
	}
	if cfg.debugMode {
		result.Diagnostics = &Diagnostics{
			Method:         req.Method,
			URL:            target,
			Proto:          resp.Proto,
			Duration:       duration,
			RequestHeaders: httpReq.Header,
		}
	}

	if !isSuccess(resp.StatusCode) {
		if decoded, ok := decodeAny(raw); ok {
			result.Decoded = decoded
		}
		return result, classifyResponse(resp.StatusCode, raw, requestIDFromHeader(resp.Header))
	}

	if cfg.decodeMode && len(raw) > 0 {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return result, fmt.Errorf("unexpected API response format (JSON decode failed): %w", err)
		}
		result.Decoded = decoded
	}
	return result, nil
}

func decodeAny(raw []byte) (any, bool) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

func requestIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	if id := header.Get("X-Request-Id"); id != "" {
		return id
	}
	if id := header.Get("X-Request-ID"); id != "" {
		return id
	}
	return ""
}

// doInto runs req through r and unmarshals the response body into result
// when result is non-nil and a body came back.
func doInto(ctx context.Context, r Requester, req Request, result any, opts ...CallOption) error {
	res, err := r.Do(ctx, req, opts...)
	if err != nil {
		return err
	}
	if result == nil || len(res.Raw) == 0 {
		return nil
	}
	return res.DecodeInto(result)
}

// payerHeaders builds the identification header pair sent on payer-scoped
// calls. The service matches payers on tax ID digits only, so CPF/CNPJ
// formatting punctuation is stripped.
func payerHeaders(taxID string) []Header {
	return []Header{{Name: "X-Payer-Id", Value: validation.TaxIDDigits(taxID)}}
}

// HealthCheck checks if the API is reachable via GET /health at the API
// root. Returns true when it answers 200.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	cfg := c.snapshot(nil)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.baseURL+"/health", nil)
	if err != nil {
		return false, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK, nil
}
