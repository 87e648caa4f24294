package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rickgao/dao-risk/internal/version"
)

// Client talks JSON over HTTP to one upstream provider. The same client type
// serves the governance hub (GraphQL over POST) and the treasury REST API.
type Client struct {
	name       string // Provider name used in errors and logs
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a client for the provider called name. A trailing slash
// on baseURL is dropped so paths can always start with "/".
func NewClient(name, baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		name:         name,
		baseURL:      strings.TrimRight(baseURL, "/"),
		userAgent:    version.UserAgent(),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// WithAPIKey sends key in the x-api-key header. Hubs that do not require a
// key accept requests without one at a lower rate limit.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout sets the per-attempt HTTP timeout. Zero keeps the default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetries sets how many times a retryable failure is repeated and the
// initial backoff.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the HTTP client, e.g. to add a transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}
