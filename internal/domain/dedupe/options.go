// Package dedupe defines the interface for idempotency tracking.
package dedupe

// Option applies a configuration option to the deduper.
type Option func(*windowDeduper)

// WithWindow sets how many recent IDs are remembered. Non-positive values
// keep the default.
func WithWindow(size int) Option {
	return func(d *windowDeduper) {
		if size > 0 {
			d.window = size
		}
	}
}
