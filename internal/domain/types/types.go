// Package types contains common types used across the application
package types

import (
	"errors"

	"github.com/okian/devbasics/internal/domain/model"
)

// SessionView is the read shape of the session store.
type SessionView struct {
	User    *model.User   `json:"user"`
	Modal   model.Overlay `json:"modal"`
	Pending bool          `json:"pending"`
}

// SignedIn reports whether a user is present.
func (v SessionView) SignedIn() bool { return v.User != nil }

// Submission is the confirmation of a successful outbound save.
type Submission struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// SubmitError is a failed outbound save. Message is what the user sees:
// the server's own message when it sent one, otherwise a fixed fallback.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }

// Unwrap returns the underlying transport or API error.
func (e *SubmitError) Unwrap() error { return e.Err }

// ErrNotStarted is returned by operations called before the service started.
var ErrNotStarted = errors.New("service not started")
