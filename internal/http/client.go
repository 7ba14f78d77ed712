// Package http is the single choke-point for all management API calls: it
// applies authentication, encodes and decodes JSON, maps HTTP status codes to
// typed errors, and performs the one bounded re-authentication retry on 401.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/tidewater-io/smapi/internal/constants"
	"github.com/tidewater-io/smapi/pkg/smapi"
)

// SessionManager supplies authentication for outgoing requests.
type SessionManager interface {
	EnsureSession(ctx context.Context) (smapi.APIVersion, error)
	AuthHeaders() (map[string]string, error)
	Invalidate()
}

// Request represents an API request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    interface{}

	// FailKind tags non-2xx responses. The same status code means different
	// things for create vs delete vs a generic read, so the caller supplies
	// the kind to attach. Empty means OperationFailed.
	FailKind smapi.ErrorKind

	// Entity and ID enrich the typed error, when known.
	Entity string
	ID     string
}

// Response represents an API response. Body may be empty: DELETE commonly
// returns 204 with no content.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client dispatches requests against the management endpoint.
type Client struct {
	baseURL      string
	session      SessionManager
	httpClient   *retryablehttp.Client
	logger       smapi.Logger
	debug        bool
	userAgent    string
	cache        smapi.Cache
	cacheTTL     time.Duration
	interceptors *smapi.InterceptorChain
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger smapi.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig enables automatic retries for transient failures (5xx, 429,
// connection errors). Off by default: without it, no request is retried
// except the single 401-driven re-authentication.
func WithRetryConfig(retryMax int, retryWaitMin, retryWaitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = retryWaitMin
		c.httpClient.RetryWaitMax = retryWaitMax
	}
}

// WithTimeout sets the per-request timeout, applied uniformly to all calls.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithTLSConfig sets the TLS verification policy.
func WithTLSConfig(tlsConfig *tls.Config) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}
}

// WithCache enables caching of GET responses. Any mutating call clears the
// cached reads so stale representations are never served after a change.
func WithCache(cache smapi.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithInterceptors attaches a request/response interceptor chain.
func WithInterceptors(chain *smapi.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a dispatcher for the given endpoint. A nil session
// manager sends requests unauthenticated.
func NewClient(baseURL string, session SessionManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	// Hand back the final response even when the retry budget is exhausted,
	// so non-2xx statuses map to typed errors instead of transport failures.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:    baseURL,
		session:    session,
		httpClient: retryClient,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do dispatches a request, guaranteeing a valid session first. On a 401 the
// session is invalidated, re-established, and the request retried exactly
// once; a second 401 is fatal.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.session != nil {
		_, err := c.session.EnsureSession(ctx)
		if err != nil {
			return nil, err
		}
	}

	var body []byte

	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		body = encoded
	}

	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	if req.Method == http.MethodGet && c.cache != nil {
		entry, err := c.cache.Get(ctx, fullURL)
		if err == nil {
			return &Response{StatusCode: http.StatusOK, Body: entry.Body}, nil
		}
	}

	// Bounded retry loop: at most one extra attempt, driven only by a 401.
	var resp *Response

	for attempt := 0; ; attempt++ {
		var err error

		resp, err = c.send(ctx, req, fullURL, body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusUnauthorized {
			break
		}

		if attempt > 0 || c.session == nil {
			return resp, c.typedError(req, resp, smapi.ErrorKindAuthenticationFailed)
		}

		c.session.Invalidate()

		_, err = c.session.EnsureSession(ctx)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, c.typedError(req, resp, req.FailKind)
	}

	if c.cache != nil {
		if req.Method == http.MethodGet {
			_ = c.cache.Set(ctx, fullURL, &smapi.CacheEntry{
				Body:      resp.Body,
				ExpiresAt: time.Now().Add(c.cacheTTL),
			})
		} else {
			_ = c.cache.Clear(ctx)
		}
	}

	return resp, nil
}

// send issues one HTTP attempt, with fresh auth headers.
func (c *Client) send(ctx context.Context, req *Request, fullURL string, body []byte) (*Response, error) {
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")

	if len(body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	if c.session != nil {
		authHeaders, err := c.session.AuthHeaders()
		if err != nil {
			return nil, err
		}

		for key, value := range authHeaders {
			httpReq.Header.Set(key, value)
		}
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	intercepted := &smapi.InterceptedRequest{
		Method:  req.Method,
		Path:    req.Path,
		Headers: httpReq.Header,
		Body:    body,
	}

	if c.interceptors != nil {
		err = c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, err
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &smapi.Error{
			Kind:    smapi.ErrorKindTransportFailed,
			Entity:  req.Entity,
			ID:      req.ID,
			Message: err.Error(),
		}
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &smapi.Error{
			Kind:    smapi.ErrorKindTransportFailed,
			Entity:  req.Entity,
			ID:      req.ID,
			Message: err.Error(),
		}
	}

	response := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.interceptors != nil {
		err = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &smapi.InterceptedResponse{
			StatusCode: response.StatusCode,
			Headers:    response.Headers,
			Body:       response.Body,
		})
		if err != nil {
			return nil, err
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         fullURL,
			"status_code": response.StatusCode,
		})
	}

	return response, nil
}

// typedError maps a non-2xx response to a typed error, preserving the raw
// server payload. 404 always means the entity does not exist, regardless of
// the verb that found out.
func (c *Client) typedError(req *Request, resp *Response, kind smapi.ErrorKind) error {
	if resp.StatusCode == http.StatusNotFound {
		kind = smapi.ErrorKindNotFound
	}

	if kind == "" {
		kind = smapi.ErrorKindOperationFailed
	}

	apiErr := smapi.NewError(kind, resp.StatusCode, resp.Body)
	apiErr.Entity = req.Entity
	apiErr.ID = req.ID

	return apiErr
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}
