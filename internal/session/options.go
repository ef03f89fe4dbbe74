package session

import (
	"time"

	"github.com/okian/devbasics/internal/adapters/hatch"
	"github.com/okian/devbasics/internal/adapters/mq/pubsub"
	"github.com/okian/devbasics/internal/adapters/repository"
	"github.com/okian/devbasics/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithSlot sets the durable store holding the user slot.
func WithSlot(slot repository.Store) Option {
	return func(s *Store) {
		if slot != nil {
			s.slot = slot
		}
	}
}

// WithBroker subscribes the store to the auth topic of b.
func WithBroker(b *pubsub.Broker) Option {
	return func(s *Store) {
		s.broker = b
	}
}

// WithHatch sets the registry the store installs its open function into.
func WithHatch(r *hatch.Registry) Option {
	return func(s *Store) {
		if r != nil {
			s.hatch = r
		}
	}
}

// WithAuthenticator sets the backend used by SubmitAuth.
func WithAuthenticator(a Authenticator) Option {
	return func(s *Store) {
		s.auth = a
	}
}

// WithAutoCloseDelay sets how long a successful auth keeps the overlay open.
func WithAutoCloseDelay(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.autoCloseDelay = d
		}
	}
}

// WithAfterFunc replaces time.AfterFunc for scheduling the auto-close.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.afterFunc = fn
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}
