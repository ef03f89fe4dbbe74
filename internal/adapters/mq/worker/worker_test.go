package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	worker "github.com/okian/devbasics/internal/adapters/mq/worker"
	model "github.com/okian/devbasics/internal/domain/model"
	logging "github.com/okian/devbasics/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockSource struct {
	eventChan chan model.Event
}

func newMockSource() *mockSource {
	return &mockSource{eventChan: make(chan model.Event, 10)}
}

func (ms *mockSource) Events() <-chan model.Event { return ms.eventChan }

func (ms *mockSource) addEvent(event model.Event) { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	ms.eventChan <- event
}

type recordingHandler struct {
	mu     sync.Mutex
	seen   []string
	failOn map[string]error
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{failOn: make(map[string]error)}
}

func (h *recordingHandler) Handle(_ context.Context, e model.Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, e.ID)
	return h.failOn[e.ID]
}

func (h *recordingHandler) ids() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()

		source := newMockSource()
		handler := newRecordingHandler()

		convey.Convey("When creating a worker with options", func() {
			w := worker.NewInMemoryWorker(source, handler,
				worker.WithName("auth-listener"),
				worker.WithLogger(logging.Get()),
			)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			w := worker.NewInMemoryWorker(source, handler)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			convey.Convey("And events arrive", func() {
				for _, id := range []string{"a", "b", "c"} {
					source.addEvent(model.Event{ID: id, Topic: model.AuthTopic})
				}

				convey.Convey("Then they are handled in delivery order", func() {
					convey.So(eventually(func() bool { return len(handler.ids()) == 3 }), convey.ShouldBeTrue)
					convey.So(handler.ids(), convey.ShouldResemble, []string{"a", "b", "c"})
				})
			})

			convey.Convey("And a handler fails", func() {
				handler.failOn["bad"] = errors.New("boom")
				source.addEvent(model.Event{ID: "bad", Topic: model.AuthTopic})
				source.addEvent(model.Event{ID: "good", Topic: model.AuthTopic})

				convey.Convey("Then the worker keeps going", func() {
					convey.So(eventually(func() bool { return len(handler.ids()) == 2 }), convey.ShouldBeTrue)
					convey.So(handler.ids(), convey.ShouldResemble, []string{"bad", "good"})
				})
			})

			convey.Convey("And Shutdown is called twice", func() {
				sctx, scancel := context.WithTimeout(context.Background(), time.Second)
				defer scancel()

				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)

				convey.Convey("Then Done is closed", func() {
					select {
					case <-w.Done():
					default:
						convey.So("worker still running", convey.ShouldBeEmpty)
					}
				})
			})
		})

		convey.Convey("When the source is closed", func() {
			w := worker.NewInMemoryWorker(source, handler)
			close(source.eventChan)
			w.Run(context.Background())

			convey.Convey("Then Run returns on its own", func() {
				_, open := <-w.Done()
				convey.So(open, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When Shutdown waits on a worker that never ran", func() {
			w := worker.NewInMemoryWorker(source, handler)
			sctx, scancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer scancel()

			convey.Convey("Then it reports the timeout", func() {
				err := w.Shutdown(sctx)
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})
}

func TestHandlerFunc(t *testing.T) {
	convey.Convey("Given a HandlerFunc", t, func() {
		var got model.Event
		h := worker.HandlerFunc(func(_ context.Context, e model.Event) error {
			got = e
			return nil
		})

		convey.Convey("When it handles an event", func() {
			err := h.Handle(context.Background(), model.Event{ID: "x", Mode: model.ModeRegister})

			convey.Convey("Then the function is called with it", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.ID, convey.ShouldEqual, "x")
				convey.So(got.Mode, convey.ShouldEqual, model.ModeRegister)
			})
		})
	})
}
