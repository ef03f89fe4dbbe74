// Package session holds who is signed in and whether the auth overlay is
// open. One Store exists per running application.
//
// The store can be reached three ways: directly, through the auth topic of
// the broadcast broker, and through the "devbasicsAuth" entry of the hatch
// registry. All three act on the same instance.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/okian/devbasics/internal/adapters/hatch"
	"github.com/okian/devbasics/internal/adapters/mq/pubsub"
	"github.com/okian/devbasics/internal/adapters/mq/worker"
	"github.com/okian/devbasics/internal/adapters/repository"
	"github.com/okian/devbasics/internal/domain/model"
	"github.com/okian/devbasics/internal/domain/types"
	"github.com/okian/devbasics/pkg/logger"
	"github.com/okian/devbasics/pkg/metrics"
)

// UserSlotKey is the durable slot holding the serialized signed-in user.
const UserSlotKey = "devbasics:user"

// DefaultAutoCloseDelay keeps the overlay visible after a successful auth
// long enough to read the confirmation.
const DefaultAutoCloseDelay = 1200 * time.Millisecond

const listenerShutdownTimeout = 2 * time.Second

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Store is the session store.
type Store struct {
	slot           repository.Store
	broker         *pubsub.Broker
	hatch          *hatch.Registry
	auth           Authenticator
	log            logger.Logger
	autoCloseDelay time.Duration
	afterFunc      AfterFunc

	// writeMu serializes slot writes with the memory update that follows.
	writeMu sync.Mutex

	mu       sync.Mutex
	user     *model.User
	overlay  model.Overlay
	pending  bool
	timer    Timer
	timerGen uint64
	watchers map[uint64]chan types.SessionView
	nextW    uint64
	closed   bool

	inflight  *semaphore.Weighted
	sub       *pubsub.Subscription
	listener  *worker.InMemoryWorker
	uninstall func()
}

// NewStore builds the store and hydrates the user from the durable slot.
// Unreadable slot content is logged and ignored.
func NewStore(ctx context.Context, opts ...Option) (*Store, error) {
	s := &Store{
		slot:           repository.NewMemoryStore(),
		hatch:          hatch.Default(),
		log:            logger.Nop(),
		autoCloseDelay: DefaultAutoCloseDelay,
		afterFunc:      realAfterFunc,
		overlay:        model.Overlay{Mode: model.ModeLogin},
		watchers:       make(map[uint64]chan types.SessionView),
		inflight:       semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hydrate(ctx)

	if s.broker != nil {
		sub, err := s.broker.Subscribe(model.AuthTopic)
		if err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", model.AuthTopic, err)
		}
		s.sub = sub
		s.listener = worker.NewInMemoryWorker(sub, worker.HandlerFunc(s.handleAuthEvent),
			worker.WithName("auth-listener"),
			worker.WithLogger(s.log),
		)
		go s.listener.Run(context.Background())
	}

	uninstall, err := s.hatch.Install(hatch.AuthName, func(mode string) {
		s.OpenModal(model.ParseAuthMode(mode))
	})
	if err != nil {
		s.stopListener(ctx)
		return nil, fmt.Errorf("install %s: %w", hatch.AuthName, err)
	}
	s.uninstall = uninstall

	return s, nil
}

func (s *Store) hydrate(ctx context.Context) {
	data, err := s.slot.Get(ctx, UserSlotKey)
	if errors.Is(err, repository.ErrNotFound) {
		return
	}
	if err != nil {
		s.log.Warn(ctx, "failed to read stored user", logger.Error(err))
		return
	}
	u, err := model.DecodeUser(data)
	if err != nil {
		s.log.Warn(ctx, "failed to parse stored user", logger.Error(err))
		return
	}
	s.user = u
	metrics.UpdateSignedIn(true)
}

func (s *Store) handleAuthEvent(_ context.Context, e model.Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	s.OpenModal(e.Mode)
	return nil
}

// OpenModal opens the overlay in mode. An empty or unknown mode opens the
// login form.
func (s *Store) OpenModal(mode model.AuthMode) {
	next := model.Overlay{IsOpen: true, Mode: mode.OrDefault()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlay == next {
		return
	}
	s.overlay = next
	metrics.RecordOverlayTransition("open")
	s.notifyLocked()
}

// CloseModal closes the overlay and cancels a pending auto-close.
func (s *Store) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	if !s.overlay.IsOpen {
		return
	}
	s.overlay.IsOpen = false
	metrics.RecordOverlayTransition("close")
	s.notifyLocked()
}

// SetMode switches the form while the overlay is open. It does nothing
// while the overlay is closed.
func (s *Store) SetMode(mode model.AuthMode) {
	mode = mode.OrDefault()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.overlay.IsOpen || s.overlay.Mode == mode {
		return
	}
	s.overlay.Mode = mode
	metrics.RecordOverlayTransition("mode")
	s.notifyLocked()
}

// SetUser replaces the signed-in user. A non-nil user is written to the
// durable slot, nil removes the slot. Memory changes only after the slot
// write succeeded.
func (s *Store) SetUser(ctx context.Context, u *model.User) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if u == nil {
		if err := s.slot.Remove(ctx, UserSlotKey); err != nil {
			return fmt.Errorf("remove user slot: %w", err)
		}
	} else {
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		if err := s.slot.Set(ctx, UserSlotKey, data); err != nil {
			return fmt.Errorf("write user slot: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u.Clone()
	metrics.UpdateSignedIn(s.user != nil)
	s.notifyLocked()
	return nil
}

// Logout clears the signed-in user.
func (s *Store) Logout(ctx context.Context) error {
	return s.SetUser(ctx, nil)
}

// User returns a copy of the signed-in user, nil when signed out.
func (s *Store) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

// Overlay returns the current overlay state.
func (s *Store) Overlay() model.Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay
}

// Snapshot returns a copy of the whole session state.
func (s *Store) Snapshot() types.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Store) viewLocked() types.SessionView {
	return types.SessionView{
		User:    s.user.Clone(),
		Modal:   s.overlay,
		Pending: s.pending,
	}
}

// Watch returns a channel that receives the state after every change. A
// slow reader only sees the latest state. The returned func stops the
// watch and closes the channel.
func (s *Store) Watch() (<-chan types.SessionView, func()) {
	ch := make(chan types.SessionView, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.nextW++
	id := s.nextW
	s.watchers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if w, ok := s.watchers[id]; ok {
				delete(s.watchers, id)
				close(w)
			}
		})
	}
}

func (s *Store) notifyLocked() {
	if len(s.watchers) == 0 {
		return
	}
	v := s.viewLocked()
	for _, ch := range s.watchers {
		select {
		case ch <- v:
		default:
			// replace the stale value
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// scheduleClose arms the auto-close, replacing any earlier one.
func (s *Store) scheduleClose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelTimerLocked()
	gen := s.timerGen
	s.timer = s.afterFunc(s.autoCloseDelay, func() { s.autoClose(gen) })
}

func (s *Store) autoClose(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.timerGen {
		return
	}
	s.timer = nil
	if !s.overlay.IsOpen {
		return
	}
	s.overlay.IsOpen = false
	metrics.RecordOverlayTransition("auto_close")
	s.notifyLocked()
}

// cancelTimerLocked releases the scheduled close. Bumping the generation
// also disarms a callback that already fired and waits on the lock.
func (s *Store) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

// AutoCloseScheduled reports whether an auto-close is armed.
func (s *Store) AutoCloseScheduled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Store) setPending(p bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = p
	s.notifyLocked()
}

func (s *Store) stopListener(ctx context.Context) {
	if s.sub != nil {
		s.sub.Close()
	}
	if s.listener != nil {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listenerShutdownTimeout)
		defer cancel()
		if err := s.listener.Shutdown(sctx); err != nil {
			s.log.Warn(ctx, "auth listener did not stop", logger.Error(err))
		}
	}
}

// Close detaches the store: the broker subscription and hatch entry are
// released, the auto-close is cancelled and watchers are closed. The
// in-memory state stays readable.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancelTimerLocked()
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
	s.mu.Unlock()

	if s.uninstall != nil {
		s.uninstall()
	}
	s.stopListener(ctx)
	return nil
}
