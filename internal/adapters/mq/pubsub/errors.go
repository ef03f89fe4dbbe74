package pubsub

import "errors"

// Sentinel errors returned by the broker.
var (
	ErrClosed     = errors.New("broker closed")
	ErrEmptyTopic = errors.New("empty topic")
	ErrDuplicate  = errors.New("duplicate event")
)
