// Package testutil provides testing utilities for restar.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// StarPathPrefix is the path under which the mock accepts star requests.
const StarPathPrefix = "/user/starred/"

// MockResponse defines the behavior for a mock GitHub endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockGitHub is a configurable mock GitHub REST API for testing.
// Unconfigured PUTs under /user/starred/ answer 204 No Content;
// every other unconfigured request answers 404.
type MockGitHub struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	starDelay time.Duration

	// Tracking
	requestCount      int
	starred           []string
	inFlight          int
	maxInFlight       int
	lastRequestHeader http.Header
}

// NewMockGitHub creates a new mock GitHub server.
func NewMockGitHub() *MockGitHub {
	mock := &MockGitHub{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.lastRequestHeader = r.Header.Clone()
		mock.inFlight++
		if mock.inFlight > mock.maxInFlight {
			mock.maxInFlight = mock.inFlight
		}
		handler, exists := mock.handlers[r.Method+" "+r.URL.Path]
		mock.mu.Unlock()

		defer func() {
			mock.mu.Lock()
			mock.inFlight--
			mock.mu.Unlock()
		}()

		setRateLimitHeaders(w)

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGitHub) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGitHub) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a method and path, e.g. "GET", "/users/octocat/starred".
func (m *MockGitHub) SetHandler(method, path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+" "+path] = handler
}

// SetResponse configures a simple response for a method and path.
func (m *MockGitHub) SetResponse(method, path string, resp MockResponse) {
	m.SetHandler(method, path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetStarredList configures the listing response for an account.
func (m *MockGitHub) SetStarredList(account string, body string) {
	m.SetResponse(http.MethodGet, "/users/"+account+"/starred", NewJSONResponse(http.StatusOK, body))
}

// SetStarResponse configures the response to starring one repository.
func (m *MockGitHub) SetStarResponse(fullName string, resp MockResponse) {
	m.SetHandler(http.MethodPut, StarPathPrefix+fullName, func(w http.ResponseWriter, r *http.Request) {
		m.recordStar(r.URL.Path)
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetStarDelay delays every default star response.
func (m *MockGitHub) SetStarDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starDelay = d
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGitHub) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// Starred returns the full names of repositories that received a PUT, in arrival order.
func (m *MockGitHub) Starred() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.starred))
	copy(out, m.starred)
	return out
}

// MaxInFlight returns the highest number of concurrently handled requests.
func (m *MockGitHub) MaxInFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxInFlight
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockGitHub) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

func (m *MockGitHub) recordStar(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starred = append(m.starred, strings.TrimPrefix(path, StarPathPrefix))
}

// defaultHandler provides default GitHub-like responses.
func (m *MockGitHub) defaultHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, StarPathPrefix) {
		m.recordStar(r.URL.Path)

		m.mu.RLock()
		delay := m.starDelay
		m.mu.RUnlock()
		if delay > 0 {
			time.Sleep(delay)
		}

		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"message":"Not Found","documentation_url":"https://docs.github.com/rest"}`))
}

func setRateLimitHeaders(w http.ResponseWriter) {
	w.Header().Set("X-RateLimit-Limit", "5000")
	w.Header().Set("X-RateLimit-Remaining", "4999")
	w.Header().Set("X-RateLimit-Used", "1")
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
	w.Header().Set("X-RateLimit-Resource", "core")
}

// NewJSONResponse creates a JSON response with the given status and body.
func NewJSONResponse(status int, body string) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a GitHub 404 response.
func NewNotFoundResponse() MockResponse {
	return NewJSONResponse(http.StatusNotFound, `{"message":"Not Found"}`)
}

// NewValidationFailedResponse creates a GitHub 422 response.
func NewValidationFailedResponse() MockResponse {
	return NewJSONResponse(http.StatusUnprocessableEntity, `{"message":"Validation Failed"}`)
}

// NewRateLimitedResponse creates a 403 response with an exhausted rate limit.
func NewRateLimitedResponse() MockResponse {
	resp := NewJSONResponse(http.StatusForbidden, `{"message":"API rate limit exceeded"}`)
	resp.Headers["X-RateLimit-Remaining"] = "0"
	return resp
}
