package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrTransport is returned when a request could not be completed
// (DNS, connection, timeout, protocol violation).
var ErrTransport = errors.New("transport failure")

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// ClassifyStatus maps an HTTP status code to an ErrorClass.
// Returns "" for non-error statuses.
func ClassifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// APIError describes a response GitHub answered with an unexpected status.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("GitHub %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("GitHub %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// maxErrorBody caps how much of an error body is read for its message.
const maxErrorBody = 64 << 10

// NewAPIError builds an APIError from a response. The message is GitHub's
// JSON "message" field when present, otherwise the status line.
// The response body is consumed but not closed.
func NewAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		ErrorClass: ClassifyStatus(resp.StatusCode),
		Message:    resp.Status,
	}
	if resp.Body == nil {
		return apiErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		apiErr.Err = err
		return apiErr
	}

	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	}
	return apiErr
}
