package session

import "errors"

// Sentinel errors.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrPending         = errors.New("submission already in progress")
	ErrClosed          = errors.New("session store closed")
	ErrNoAuthenticator = errors.New("no authenticator configured")
)
