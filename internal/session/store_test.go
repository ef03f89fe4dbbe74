package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/devbasics/internal/adapters/hatch"
	"github.com/okian/devbasics/internal/adapters/http/client"
	"github.com/okian/devbasics/internal/adapters/mq/pubsub"
	"github.com/okian/devbasics/internal/adapters/repository"
	"github.com/okian/devbasics/internal/domain/model"
	"github.com/okian/devbasics/internal/domain/types"
)

// fakeTimer records Stop calls and fires only when the test says so.
type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	c.delays = append(c.delays, d)
	return t
}

func (c *fakeClock) last() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

type fakeAuth struct {
	calls int32
	resp  client.AuthResponse
	err   error
	block chan struct{}
	mode  model.AuthMode
}

func (a *fakeAuth) Authenticate(_ context.Context, mode model.AuthMode, _ model.Credentials) (client.AuthResponse, error) {
	atomic.AddInt32(&a.calls, 1)
	a.mode = mode
	if a.block != nil {
		<-a.block
	}
	return a.resp, a.err
}

// failingSlot rejects every write.
type failingSlot struct{ repository.Store }

func (failingSlot) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func newTestStore(opts ...Option) *Store {
	base := []Option{WithHatch(hatch.NewRegistry())}
	s, err := NewStore(context.Background(), append(base, opts...)...)
	So(err, ShouldBeNil)
	return s
}

func noChange(ch <-chan types.SessionView) bool {
	select {
	case <-ch:
		return false
	default:
		return true
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestHydration(t *testing.T) {
	Convey("Given a durable slot", t, func() {
		ctx := context.Background()
		slot := repository.NewMemoryStore()

		Convey("When a user is set and the store is rebuilt", func() {
			first := newTestStore(WithSlot(slot))
			u := &model.User{ID: 7, Email: "a@b.co", Name: model.StringPtr("Аня")}
			So(first.SetUser(ctx, u), ShouldBeNil)
			So(first.Close(ctx), ShouldBeNil)

			second := newTestStore(WithSlot(slot))

			Convey("Then the reloaded user is deep-equal", func() {
				So(second.User(), ShouldResemble, u)
				So(second.Snapshot().SignedIn(), ShouldBeTrue)
			})

			Convey("And after logout a rebuilt store is signed out", func() {
				So(second.Logout(ctx), ShouldBeNil)
				third := newTestStore(WithSlot(slot))
				So(third.User(), ShouldBeNil)
				_, err := slot.Get(ctx, UserSlotKey)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the slot holds something that is not a user", func() {
			for _, raw := range []string{"{not json", "null", `{"foo":1}`, `[]`} {
				So(slot.Set(ctx, UserSlotKey, []byte(raw)), ShouldBeNil)
				s, err := NewStore(ctx, WithSlot(slot), WithHatch(hatch.NewRegistry()))

				So(err, ShouldBeNil)
				So(s.User(), ShouldBeNil)
			}
		})

		Convey("When the slot is empty", func() {
			s := newTestStore(WithSlot(slot))

			Convey("Then the store starts signed out and closed", func() {
				v := s.Snapshot()
				So(v.User, ShouldBeNil)
				So(v.Modal, ShouldResemble, model.Overlay{IsOpen: false, Mode: model.ModeLogin})
				So(v.Pending, ShouldBeFalse)
			})
		})
	})
}

func TestSetUser(t *testing.T) {
	Convey("Given a store whose slot rejects writes", t, func() {
		ctx := context.Background()
		s := newTestStore(WithSlot(failingSlot{repository.NewMemoryStore()}))

		Convey("When setting a user", func() {
			err := s.SetUser(ctx, &model.User{ID: 1, Email: "a@b.co"})

			Convey("Then the error surfaces and memory is unchanged", func() {
				So(err, ShouldNotBeNil)
				So(s.User(), ShouldBeNil)
			})
		})
	})

	Convey("Given a store with a user", t, func() {
		ctx := context.Background()
		s := newTestStore()
		u := &model.User{ID: 1, Email: "a@b.co"}
		So(s.SetUser(ctx, u), ShouldBeNil)

		Convey("When the caller mutates its copy", func() {
			u.Email = "changed@b.co"
			got := s.User()
			got.ID = 99

			Convey("Then the store is not affected", func() {
				So(s.User().Email, ShouldEqual, "a@b.co")
				So(s.User().ID, ShouldEqual, 1)
			})
		})
	})
}

func TestOverlay(t *testing.T) {
	Convey("Given a closed overlay", t, func() {
		s := newTestStore()
		watch, stop := s.Watch()
		defer stop()

		Convey("When opening login twice", func() {
			s.OpenModal(model.ModeLogin)
			<-watch
			s.OpenModal(model.ModeLogin)

			Convey("Then the second call changes nothing", func() {
				So(s.Overlay(), ShouldResemble, model.Overlay{IsOpen: true, Mode: model.ModeLogin})
				So(noChange(watch), ShouldBeTrue)
			})
		})

		Convey("When opening with no mode", func() {
			s.OpenModal("")
			So(s.Overlay(), ShouldResemble, model.Overlay{IsOpen: true, Mode: model.ModeLogin})
		})

		Convey("When switching mode while closed", func() {
			s.SetMode(model.ModeRegister)

			Convey("Then nothing changes", func() {
				So(s.Overlay(), ShouldResemble, model.Overlay{IsOpen: false, Mode: model.ModeLogin})
			})
		})

		Convey("When switching mode while open", func() {
			s.OpenModal(model.ModeLogin)
			s.SetMode(model.ModeRegister)

			Convey("Then the mode follows and the overlay stays open", func() {
				So(s.Overlay(), ShouldResemble, model.Overlay{IsOpen: true, Mode: model.ModeRegister})
			})
		})

		Convey("When closing an already closed overlay", func() {
			s.CloseModal()

			Convey("Then no change is published", func() {
				So(noChange(watch), ShouldBeTrue)
			})
		})

		Convey("When opening then closing", func() {
			s.OpenModal(model.ModeRegister)
			s.CloseModal()

			Convey("Then the overlay is closed and keeps the last mode", func() {
				So(s.Overlay(), ShouldResemble, model.Overlay{IsOpen: false, Mode: model.ModeRegister})
				v := <-watch
				So(v.Modal.IsOpen, ShouldBeFalse)
			})
		})
	})
}

func TestCrossTreeSignals(t *testing.T) {
	Convey("Given a store wired to a broker and a hatch registry", t, func() {
		ctx := context.Background()
		broker := pubsub.NewBroker()
		defer broker.Close()
		reg := hatch.NewRegistry()
		s, err := NewStore(ctx, WithBroker(broker), WithHatch(reg))
		So(err, ShouldBeNil)

		Convey("When an auth event with a mode is published", func() {
			n, err := broker.Publish(ctx, model.Event{Topic: model.AuthTopic, Mode: model.ModeRegister})
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			Convey("Then the overlay opens in that mode", func() {
				So(waitFor(func() bool { return s.Overlay().IsOpen }), ShouldBeTrue)
				So(s.Overlay().Mode, ShouldEqual, model.ModeRegister)
			})
		})

		Convey("When an auth event without a mode is published", func() {
			_, err := broker.Publish(ctx, model.Event{Topic: model.AuthTopic})
			So(err, ShouldBeNil)

			Convey("Then the overlay opens in login", func() {
				So(waitFor(func() bool { return s.Overlay().IsOpen }), ShouldBeTrue)
				So(s.Overlay().Mode, ShouldEqual, model.ModeLogin)
			})
		})

		Convey("When the hatch function is called", func() {
			So(reg.Call(hatch.AuthName, "register"), ShouldBeNil)

			Convey("Then the same store opens", func() {
				So(s.Overlay(), ShouldResemble, model.Overlay{IsOpen: true, Mode: model.ModeRegister})
			})
		})

		Convey("When the store is closed", func() {
			So(s.Close(ctx), ShouldBeNil)
			So(s.Close(ctx), ShouldBeNil)

			Convey("Then both paths are released", func() {
				So(reg.Installed(hatch.AuthName), ShouldBeFalse)
				So(broker.Subscribers(model.AuthTopic), ShouldEqual, 0)
			})
		})

		Convey("When a second store takes over the hatch", func() {
			other, err := NewStore(ctx, WithHatch(reg))
			So(err, ShouldBeNil)
			So(s.Close(ctx), ShouldBeNil)

			Convey("Then closing the first leaves the second installed", func() {
				So(reg.Installed(hatch.AuthName), ShouldBeTrue)
				So(reg.Call(hatch.AuthName, ""), ShouldBeNil)
				So(other.Overlay().IsOpen, ShouldBeTrue)
			})
		})
	})

	Convey("Given a closed broker", t, func() {
		broker := pubsub.NewBroker()
		So(broker.Close(), ShouldBeNil)

		Convey("Then building a store on it fails", func() {
			_, err := NewStore(context.Background(), WithBroker(broker), WithHatch(hatch.NewRegistry()))
			So(errors.Is(err, pubsub.ErrClosed), ShouldBeTrue)
		})
	})
}

func TestWatch(t *testing.T) {
	Convey("Given a watcher that does not read", t, func() {
		s := newTestStore()
		watch, stop := s.Watch()

		s.OpenModal(model.ModeLogin)
		s.SetMode(model.ModeRegister)
		s.CloseModal()

		Convey("Then it only holds the latest state", func() {
			v := <-watch
			So(v.Modal, ShouldResemble, model.Overlay{IsOpen: false, Mode: model.ModeRegister})
		})

		Convey("When the watch is stopped", func() {
			stop()
			stop()
			for range watch {
			}

			Convey("Then the channel is closed", func() {
				_, ok := <-watch
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given a closed store", t, func() {
		s := newTestStore()
		So(s.Close(context.Background()), ShouldBeNil)

		Convey("Then Watch returns a closed channel", func() {
			watch, stop := s.Watch()
			stop()
			_, ok := <-watch
			So(ok, ShouldBeFalse)
		})
	})
}
