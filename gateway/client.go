// Package gateway sends every request the user admin client makes to the backend and
// classifies each response into one of five outcomes.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "go-user-admin"

	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 10 << 20
)

// Authenticator supplies the bearer token for each request and is told when the server rejects one.
type Authenticator interface {
	oauth2.TokenSource
	Rejected(token string)
}

// Client is the single choke point for backend requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	metrics    *metrics

	authMu sync.RWMutex
	auth   Authenticator

	rejectMu     sync.Mutex
	lastRejected string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. The Client works on a copy when a
// timeout is also set, so hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per request timeout, whatever order the options come in.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMetrics records request counts and latency on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		if reg != nil {
			c.metrics = newMetrics(reg)
		}
	}
}

// WithAuthenticator is SetAuthenticator at construction time.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) {
		c.auth = a
	}
}

// New creates a Client for baseURL. A missing scheme defaults to http.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("[gateway.New] base url is required")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.httpClient == nil:
		timeout := c.timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	case c.timeout > 0:
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetAuthenticator installs the token source. It may be called after construction so the
// session controller and the client can refer to each other.
func (c *Client) SetAuthenticator(a Authenticator) {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	c.auth = a
}

func (c *Client) authenticator() Authenticator {
	c.authMu.RLock()
	defer c.authMu.RUnlock()
	return c.auth
}

// Send performs one authenticated request. The token is read at send time, so a request
// sent after logout carries no Authorization header. body is encoded as JSON when non-nil.
func (c *Client) Send(ctx context.Context, method, path string, body any) *Result {
	return c.send(ctx, method, path, body, true)
}

func (c *Client) send(ctx context.Context, method, path string, body any, authenticated bool) *Result {
	start := time.Now()
	res := c.roundTrip(ctx, method, path, body, authenticated)
	took := time.Since(start)

	c.metrics.observe(method, res.Outcome, took)

	event := log.Debug()
	if res.Outcome == OutcomeNetwork || res.Outcome == OutcomeServer {
		event = log.Warn()
	}
	event.
		Str("method", method).
		Str("path", path).
		Int("status", res.Status).
		Str("outcome", res.Outcome.String()).
		Str("request_id", res.RequestID).
		Dur("took", took).
		Msg("gateway request")

	return res
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, authenticated bool) *Result {
	res := &Result{Method: method, Path: path, RequestID: uuid.NewString()}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			res.Outcome = OutcomeServer
			res.Message = "could not encode request"
			res.Cause = fmt.Errorf("encode request body: %w", err)
			return res
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		res.Outcome = OutcomeServer
		res.Message = "could not build request"
		res.Cause = fmt.Errorf("build request: %w", err)
		return res
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, res.RequestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var sent string
	if authenticated {
		if tok := c.currentToken(); tok != nil {
			tok.SetAuthHeader(req)
			sent = tok.AccessToken
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		res.Outcome = OutcomeNetwork
		res.Message = "no response from server"
		res.Cause = err
		return res
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		res.Outcome = OutcomeNetwork
		res.Status = resp.StatusCode
		res.Message = "response interrupted"
		res.Cause = fmt.Errorf("read response body: %w", err)
		return res
	}

	classified := classify(resp.StatusCode, raw)
	classified.Method, classified.Path, classified.RequestID = method, path, res.RequestID

	if classified.Outcome == OutcomeAuth && sent != "" {
		c.rejected(sent)
	}
	return classified
}

// currentToken returns nil when there is no authenticator or it has no usable token.
func (c *Client) currentToken() *oauth2.Token {
	auth := c.authenticator()
	if auth == nil {
		return nil
	}
	tok, err := auth.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return nil
	}
	return tok
}

// rejected signals the authenticator once per distinct token, however many requests fail with it.
func (c *Client) rejected(token string) {
	c.rejectMu.Lock()
	if token == c.lastRejected {
		c.rejectMu.Unlock()
		return
	}
	c.lastRejected = token
	c.rejectMu.Unlock()

	auth := c.authenticator()
	if auth == nil {
		return
	}
	log.Warn().Msg("server rejected the session token")
	auth.Rejected(token)
}
