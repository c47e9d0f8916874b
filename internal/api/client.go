package api

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for Client options.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultChunkSize = 20
	DefaultMaxPages  = 1000
)

// SessionProvider supplies the Authorization header for the current session.
// *auth.Manager implements it.
type SessionProvider interface {
	AuthHeader() (string, error)
}

// Client provides access to the exchange REST API.
type Client struct {
	baseURL    string
	session    SessionProvider
	httpClient *http.Client
	timeout    time.Duration // Applied after options; zero keeps the default
	logger     *slog.Logger
	limiter    *rate.Limiter

	chunkSize int
	maxPages  int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. baseURL must end with "/".
// A nil session sends unauthenticated requests.
func NewClient(baseURL string, session SessionProvider, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   baseURL,
		session:   session,
		logger:    slog.Default(),
		chunkSize: DefaultChunkSize,
		maxPages:  DefaultMaxPages,
	}

	for _, opt := range opts {
		opt(c)
	}

	// A custom client is copied before its timeout is changed so the
	// caller's value is left alone.
	switch {
	case c.httpClient == nil:
		timeout := DefaultTimeout
		if c.timeout > 0 {
			timeout = c.timeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	case c.timeout > 0:
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	return c
}

// WithTimeout sets the request timeout. It applies regardless of option
// order, including on top of WithHTTPClient. Non-positive values are ignored.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithChunkSize sets the number of ids sent per chunked request.
func WithChunkSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithMaxPages bounds cursor pagination.
func WithMaxPages(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// ChunkSize returns the configured chunk size.
func (c *Client) ChunkSize() int {
	return c.chunkSize
}
