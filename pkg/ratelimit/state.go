// Package ratelimit observes the GitHub REST API rate limit headers.
// It reads X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Used,
// X-RateLimit-Reset and X-RateLimit-Resource from every response and keeps
// the latest snapshot for logging and metrics. It never delays requests.
package ratelimit

import (
	"time"
)

// Header names sent by the GitHub REST API.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderUsed      = "X-RateLimit-Used"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderResource  = "X-RateLimit-Resource"
)

// DefaultResource is assumed when X-RateLimit-Resource is absent.
const DefaultResource = "core"

// LowWatermarkRatio marks the state as low once remaining falls below
// this fraction of the limit.
const LowWatermarkRatio = 0.1

// State is one snapshot of the rate limit for a resource.
type State struct {
	// Limit is the number of requests allowed per window.
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// Used is the number of requests already made in the current window.
	Used int `json:"used"`

	// ResetAt is when the current window ends.
	ResetAt time.Time `json:"reset_at"`

	// Resource is the rate limit bucket (core, search, graphql, ...).
	Resource string `json:"resource"`

	// LastUpdate is when this snapshot was taken.
	LastUpdate time.Time `json:"last_update"`
}

// IsExhausted returns true when no requests remain in the window.
func (s *State) IsExhausted() bool {
	return s.Remaining <= 0
}

// IsLow returns true when remaining is below the low watermark but not exhausted.
func (s *State) IsLow() bool {
	if s.IsExhausted() || s.Limit <= 0 {
		return false
	}
	return float64(s.Remaining) < float64(s.Limit)*LowWatermarkRatio
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}
