package client

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrTransport   = errors.New("transport failure")
	ErrBadResponse = errors.New("malformed response")
	ErrBaseURL     = errors.New("invalid base url")
)

// APIError is a non-success response. Message is the body's "error" field,
// empty when the server sent none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// MessageOr returns the server message for err, or fallback when err
// carries none.
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
