package service

import (
	"net/http"
	"time"

	"github.com/okian/devbasics/internal/adapters/hatch"
	"github.com/okian/devbasics/internal/adapters/repository"
	"github.com/okian/devbasics/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithAPIBaseURL sets the base URL of the external API.
func WithAPIBaseURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.apiBaseURL = url
		}
	}
}

// WithHTTPTimeout sets the timeout of outbound API calls.
func WithHTTPTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.httpTimeout = d
		}
	}
}

// WithStoreDir keeps the user slot in files under dir.
func WithStoreDir(dir string) Option {
	return func(s *Service) {
		s.storeDir = dir
	}
}

// WithSlot uses slot for the user slot instead of opening one.
func WithSlot(slot repository.Store) Option {
	return func(s *Service) {
		s.slot = slot
	}
}

// WithAutoCloseDelay sets how long the overlay stays open after a
// successful auth.
func WithAutoCloseDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.autoCloseDelay = d
		}
	}
}

// WithEventBuffer sets the per-subscriber broadcast buffer.
func WithEventBuffer(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.eventBuffer = size
		}
	}
}

// WithDedupeWindow sets how many recent broadcast IDs are remembered.
func WithDedupeWindow(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeWindow = size
		}
	}
}

// WithHTTPClient replaces the outbound HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		s.httpClient = c
	}
}

// WithHatch sets the registry the session store installs into.
func WithHatch(r *hatch.Registry) Option {
	return func(s *Service) {
		s.hatch = r
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
