// Package service wires the session store, the broadcast broker and the
// external API client, and implements the operations the HTTP API and the
// CLI call.
package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/okian/devbasics/internal/adapters/hatch"
	"github.com/okian/devbasics/internal/adapters/http/client"
	"github.com/okian/devbasics/internal/adapters/mq/pubsub"
	"github.com/okian/devbasics/internal/adapters/repository"
	"github.com/okian/devbasics/internal/domain/chat"
	"github.com/okian/devbasics/internal/domain/dedupe"
	"github.com/okian/devbasics/internal/domain/model"
	"github.com/okian/devbasics/internal/domain/scoring"
	"github.com/okian/devbasics/internal/domain/survey"
	"github.com/okian/devbasics/internal/domain/types"
	"github.com/okian/devbasics/internal/session"
	"github.com/okian/devbasics/pkg/logger"
	"github.com/okian/devbasics/pkg/metrics"
)

// User-facing messages.
const (
	MsgAssessmentFailed = "Не удалось сохранить оценку"
	MsgChatFailed       = "Не удалось сохранить чат"
)

const (
	kindAssessment = "assessment"
	kindChat       = "chat"
)

// Sentinel errors.
var (
	ErrNotStarted = types.ErrNotStarted
	// ErrPending is shared with the session store so callers match one value.
	ErrPending = session.ErrPending
)

// Service implements the API dependencies for the devbasics core.
type Service struct {
	mu sync.RWMutex

	// Configuration
	apiBaseURL     string
	httpTimeout    time.Duration
	storeDir       string
	autoCloseDelay time.Duration
	eventBuffer    int
	dedupeWindow   int

	// Injected collaborators
	slot       repository.Store
	httpClient *http.Client
	hatch      *hatch.Registry

	// Core components
	deduper dedupe.Deduper
	broker  *pubsub.Broker
	client  *client.Client
	session *session.Store

	assessmentInflight *semaphore.Weighted
	chatInflight       *semaphore.Weighted

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		apiBaseURL:         "http://localhost:3000",
		httpTimeout:        10 * time.Second,
		autoCloseDelay:     session.DefaultAutoCloseDelay,
		eventBuffer:        16,
		dedupeWindow:       1024,
		assessmentInflight: semaphore.NewWeighted(1),
		chatInflight:       semaphore.NewWeighted(1),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the components. Calling it twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting devbasics service...")

	slot := s.slot
	if slot == nil {
		if s.storeDir != "" {
			fs, err := repository.NewFileStore(s.storeDir)
			if err != nil {
				return fmt.Errorf("open store dir: %w", err)
			}
			slot = fs
			s.logger.Info(ctx, "using file store", logger.String("dir", fs.Dir()))
		} else {
			slot = repository.NewMemoryStore()
			s.logger.Info(ctx, "using memory store")
		}
	}

	clientOpts := []client.Option{
		client.WithTimeout(s.httpTimeout),
		client.WithLogger(s.logger.Named("client")),
	}
	if s.httpClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(s.httpClient))
	}
	apiClient, err := client.New(s.apiBaseURL, clientOpts...)
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithWindow(s.dedupeWindow))
	broker := pubsub.NewBroker(
		pubsub.WithBuffer(s.eventBuffer),
		pubsub.WithDeduper(s.deduper),
		pubsub.WithLogger(s.logger.Named("pubsub")),
	)

	sessionOpts := []session.Option{
		session.WithSlot(slot),
		session.WithBroker(broker),
		session.WithAuthenticator(apiClient),
		session.WithAutoCloseDelay(s.autoCloseDelay),
		session.WithLogger(s.logger.Named("session")),
	}
	if s.hatch != nil {
		sessionOpts = append(sessionOpts, session.WithHatch(s.hatch))
	}
	store, err := session.NewStore(ctx, sessionOpts...)
	if err != nil {
		_ = broker.Close()
		return fmt.Errorf("session store: %w", err)
	}

	s.slot = slot
	s.client = apiClient
	s.broker = broker
	s.session = store
	s.started = true
	s.startedAt = time.Now()

	s.logger.Info(ctx, "devbasics service started",
		logger.String("apiBaseURL", apiClient.BaseURL()),
		logger.Bool("signedIn", store.User() != nil),
		logger.Duration("autoCloseDelay", s.autoCloseDelay),
	)

	return nil
}

// Stop releases the session store and the broker.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping devbasics service...")

	if err := s.session.Close(ctx); err != nil {
		s.logger.Warn(ctx, "session store close failed", logger.Error(err))
	}
	if err := s.broker.Close(); err != nil {
		s.logger.Warn(ctx, "broker close failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "devbasics service stopped")
}

// Session returns the session store. Nil before Start.
func (s *Service) Session() *session.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Service) components() (*client.Client, *pubsub.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.client, s.broker, nil
}

// Preview evaluates the survey without side effects besides a metric.
func (s *Service) Preview(st survey.State) scoring.Preview { //nolint:gocritic // hugeParam: State is read by value on purpose
	metrics.RecordPreviewComputed()
	return scoring.Evaluate(st)
}

// SubmitAssessment sends the packaged survey to the create-assessment
// endpoint. st is never modified. Only one submission runs at a time.
func (s *Service) SubmitAssessment(ctx context.Context, st survey.State) (types.Submission, error) { //nolint:gocritic // hugeParam: State is read by value on purpose
	apiClient, _, err := s.components()
	if err != nil {
		return types.Submission{}, err
	}
	if !s.assessmentInflight.TryAcquire(1) {
		metrics.RecordSubmission(kindAssessment, "pending")
		return types.Submission{}, ErrPending
	}
	defer s.assessmentInflight.Release(1)

	id, err := apiClient.CreateAssessment(ctx, client.NewAssessmentRequest(st))
	if err != nil {
		metrics.RecordSubmission(kindAssessment, "error")
		s.logger.Info(ctx, "assessment submission failed", logger.Error(err))
		return types.Submission{}, &types.SubmitError{Message: client.MessageOr(err, MsgAssessmentFailed), Err: err}
	}

	metrics.RecordSubmission(kindAssessment, "ok")
	return types.Submission{ID: id.String(), Message: "Готово, ID " + id.String()}, nil
}

// SaveChat stores a transcript. A nil transcript saves the starter
// conversation and an empty summary uses the default one.
func (s *Service) SaveChat(ctx context.Context, transcript []chat.Message, summary string) (types.Submission, error) {
	apiClient, _, err := s.components()
	if err != nil {
		return types.Submission{}, err
	}
	if !s.chatInflight.TryAcquire(1) {
		metrics.RecordSubmission(kindChat, "pending")
		return types.Submission{}, ErrPending
	}
	defer s.chatInflight.Release(1)

	if transcript == nil {
		transcript = chat.Starter()
	}
	if summary == "" {
		summary = chat.DefaultSummary
	}

	id, err := apiClient.SaveChat(ctx, client.ChatRequest{Transcript: transcript, Summary: summary})
	if err != nil {
		metrics.RecordSubmission(kindChat, "error")
		s.logger.Info(ctx, "chat save failed", logger.Error(err))
		return types.Submission{}, &types.SubmitError{Message: client.MessageOr(err, MsgChatFailed), Err: err}
	}

	metrics.RecordSubmission(kindChat, "ok")
	return types.Submission{ID: id.String(), Message: fmt.Sprintf("Чат сохранён (#%s)", id)}, nil
}

// RequestAuth asks whoever listens on the auth topic to open the overlay.
// It returns how many listeners received the request. id may be empty; a
// repeated non-empty id fails with pubsub.ErrDuplicate.
func (s *Service) RequestAuth(ctx context.Context, id string, mode model.AuthMode) (int, error) {
	_, broker, err := s.components()
	if err != nil {
		return 0, err
	}
	return broker.Publish(ctx, model.Event{ID: id, Topic: model.AuthTopic, Mode: mode})
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"apiBaseURL":     s.apiBaseURL,
		"autoCloseDelay": s.autoCloseDelay.String(),
		"eventBuffer":    s.eventBuffer,
		"dedupeWindow":   s.dedupeWindow,
	}

	if s.started {
		view := s.session.Snapshot()
		stats["uptime"] = time.Since(s.startedAt).Round(time.Second).String()
		stats["signedIn"] = view.SignedIn()
		stats["modalOpen"] = view.Modal.IsOpen
		stats["pending"] = view.Pending
		stats["authSubscribers"] = s.broker.Subscribers(model.AuthTopic)
		stats["dedupeSize"] = s.deduper.Size()
	}

	return stats
}

// Size returns the current number of event IDs in the dedupe window.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
