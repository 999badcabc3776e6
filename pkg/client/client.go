// Package client provides the GitHub REST API client used by restar.
// It stamps the headers GitHub requires on every request, records
// request metrics, and feeds rate limit headers to the tracker.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/restar/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for GitHub API requests.
var (
	githubRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_requests_total",
		Help: "Total GitHub API requests by method and status",
	}, []string{"method", "status"})

	githubRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "github_request_duration_seconds",
		Help:    "GitHub API request duration in seconds by method",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	githubErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_errors_total",
		Help: "Total GitHub API errors by class",
	}, []string{"class"})
)

// GitHub REST API contract values.
const (
	DefaultBaseURL    = "https://api.github.com"
	DefaultAPIVersion = "2022-11-28"
	DefaultUserAgent  = "restar/0.1.0"
	MediaType         = "application/vnd.github+json"

	// StarredPageSize is the page size requested from the starred listing.
	StarredPageSize = 100
)

// Client is the GitHub REST API client.
// A single Client is shared read-only by all concurrent requests.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Token is the bearer credential of the authenticated account.
	Token string

	// UserAgent header (REQUIRED by GitHub).
	UserAgent string

	// BaseURL of the REST API, without trailing slash.
	BaseURL string

	// APIVersion is sent as X-GitHub-Api-Version.
	APIVersion string

	// Timeout bounds a single request. 0 disables it.
	Timeout time.Duration
}

// DefaultConfig returns the configuration for api.github.com.
func DefaultConfig(token string) Config {
	return Config{
		Token:      token,
		UserAgent:  DefaultUserAgent,
		BaseURL:    DefaultBaseURL,
		APIVersion: DefaultAPIVersion,
		Timeout:    30 * time.Second,
	}
}

// New creates a new GitHub client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("token is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}

	logger := log.With().Str("component", "github-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: ratelimit.NewTracker(logger),
		config:      cfg,
		logger:      logger,
	}, nil
}

// Do performs an HTTP request with the GitHub header set.
// Any received status is returned as a response; only a failure to
// complete the exchange is returned as an error, wrapping ErrTransport.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	method := req.Method

	startTime := time.Now()
	defer func() {
		githubRequestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", MediaType)
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("X-GitHub-Api-Version", c.config.APIVersion)

	c.logger.Debug().
		Str("method", method).
		Str("url", req.URL.String()).
		Msg("Executing GitHub request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		githubErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		githubRequestsTotal.WithLabelValues(method, "network_error").Inc()
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, req.URL.Redacted(), err)
	}

	if err := c.rateLimiter.UpdateFromHeaders(resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read rate limit headers")
	}

	githubRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	if class := ClassifyStatus(resp.StatusCode); class != "" {
		githubErrorsTotal.WithLabelValues(string(class)).Inc()
	}

	return resp, nil
}

// Get performs a GET request against a path of the API.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// Put performs a body-less PUT request against a fully-qualified URL.
func (c *Client) Put(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// StarredListPath returns the path listing the first page of repositories
// starred by account.
func StarredListPath(account string) string {
	return fmt.Sprintf("/users/%s/starred?per_page=%d", url.PathEscape(account), StarredPageSize)
}

// StarEndpoint returns the base URL for starring a repository as the
// authenticated user. The repository full name is appended to it.
func (c *Client) StarEndpoint() string {
	return c.baseURL + "/user/starred"
}

// RateLimit returns the latest observed rate limit for a resource.
func (c *Client) RateLimit(resource string) (ratelimit.State, bool) {
	return c.rateLimiter.State(resource)
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
