package repository

import "errors"

// Sentinel kinds for slot errors.
var (
	ErrNotFound   = errors.New("slot not found")
	ErrInvalidKey = errors.New("invalid slot key")
)
