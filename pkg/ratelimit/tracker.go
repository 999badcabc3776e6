package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	rateLimitRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "github_rate_limit_remaining",
		Help: "Requests remaining in the current GitHub rate limit window by resource",
	}, []string{"resource"})

	rateLimitExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_rate_limit_exhausted_total",
		Help: "Responses observed with no requests remaining by resource",
	}, []string{"resource"})
)

// Tracker keeps the latest rate limit snapshot per resource.
// It is safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]State
	logger zerolog.Logger
}

// NewTracker creates a new rate limit tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		states: make(map[string]State),
		logger: logger,
	}
}

// State returns the latest snapshot for a resource.
func (t *Tracker) State(resource string) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.states[resource]
	return s, ok
}

// UpdateFromHeaders parses the rate limit headers of a response and records them.
// Responses without rate limit headers are ignored.
func (t *Tracker) UpdateFromHeaders(headers http.Header) error {
	state, ok, err := ParseHeaders(headers, time.Now())
	if err != nil || !ok {
		return err
	}

	t.mu.Lock()
	t.states[state.Resource] = state
	t.mu.Unlock()

	rateLimitRemaining.WithLabelValues(state.Resource).Set(float64(state.Remaining))

	switch {
	case state.IsExhausted():
		rateLimitExhaustedTotal.WithLabelValues(state.Resource).Inc()
		t.logger.Error().
			Str("resource", state.Resource).
			Int("limit", state.Limit).
			Time("reset_at", state.ResetAt).
			Msg("GitHub rate limit exhausted")
	case state.IsLow():
		t.logger.Warn().
			Str("resource", state.Resource).
			Int("remaining", state.Remaining).
			Int("limit", state.Limit).
			Dur("reset_in", state.TimeUntilReset()).
			Msg("GitHub rate limit running low")
	default:
		t.logger.Debug().
			Str("resource", state.Resource).
			Int("remaining", state.Remaining).
			Int("limit", state.Limit).
			Msg("GitHub rate limit state updated")
	}

	return nil
}

// ParseHeaders extracts a State from response headers.
// ok is false when X-RateLimit-Remaining is absent.
func ParseHeaders(headers http.Header, now time.Time) (state State, ok bool, err error) {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return State{}, false, nil
	}

	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		return State{}, false, fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	limit, err := intHeader(headers, HeaderLimit)
	if err != nil {
		return State{}, false, err
	}

	used, err := intHeader(headers, HeaderUsed)
	if err != nil {
		return State{}, false, err
	}

	resetUnix, err := intHeader(headers, HeaderReset)
	if err != nil {
		return State{}, false, err
	}

	resource := headers.Get(HeaderResource)
	if resource == "" {
		resource = DefaultResource
	}

	state = State{
		Limit:      limit,
		Remaining:  remaining,
		Used:       used,
		Resource:   resource,
		LastUpdate: now,
	}
	if resetUnix > 0 {
		state.ResetAt = time.Unix(int64(resetUnix), 0)
	}

	return state, true, nil
}

// intHeader parses an optional integer header, returning 0 when absent.
func intHeader(headers http.Header, name string) (int, error) {
	v := headers.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s header: %w", name, err)
	}
	return n, nil
}
