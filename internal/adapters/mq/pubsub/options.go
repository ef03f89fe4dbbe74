package pubsub

import (
	"github.com/okian/devbasics/internal/domain/dedupe"
	"github.com/okian/devbasics/pkg/logger"
)

// Option applies a configuration option to the Broker.
type Option func(*Broker)

// WithBuffer sets the per-subscription channel buffer.
func WithBuffer(size int) Option {
	return func(b *Broker) {
		if size > 0 {
			b.buffer = size
		}
	}
}

// WithDeduper replaces the default seen-ID window.
func WithDeduper(d dedupe.Deduper) Option {
	return func(b *Broker) {
		if d != nil {
			b.dedupe = d
		}
	}
}

// WithLogger sets the broker logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Broker) {
		if l != nil {
			b.log = l
		}
	}
}
