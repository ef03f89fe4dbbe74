// Package pubsub is an in-process broadcast broker with named topics.
//
// Publishing never blocks: a subscriber whose buffer is full misses the
// event and the drop is counted. Events are deduplicated by ID inside a
// bounded window so a replayed event reaches each subscriber at most once.
package pubsub

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/devbasics/internal/domain/dedupe"
	"github.com/okian/devbasics/internal/domain/model"
	"github.com/okian/devbasics/pkg/logger"
	"github.com/okian/devbasics/pkg/metrics"
)

const defaultBuffer = 16

// Broker fans events out to the subscribers of a topic.
type Broker struct {
	buffer int
	dedupe dedupe.Deduper
	log    logger.Logger

	mu     sync.RWMutex
	nextID uint64
	topics map[string]map[uint64]*Subscription
	closed bool
}

// Subscription is a live registration on one topic.
type Subscription struct {
	id     uint64
	topic  string
	ch     chan model.Event
	broker *Broker
	once   sync.Once
}

// NewBroker creates a broker with configuration options.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		buffer: defaultBuffer,
		log:    logger.Nop(),
		topics: make(map[string]map[uint64]*Subscription),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.dedupe == nil {
		b.dedupe = dedupe.NewInMemoryDeduper()
	}
	return b
}

// Subscribe registers a new subscription on topic.
func (b *Broker) Subscribe(topic string) (*Subscription, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	b.nextID++
	s := &Subscription{
		id:     b.nextID,
		topic:  topic,
		ch:     make(chan model.Event, b.buffer),
		broker: b,
	}
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[uint64]*Subscription)
		b.topics[topic] = subs
	}
	subs[s.id] = s
	metrics.UpdateBroadcastSubscribers(topic, len(subs))
	return s, nil
}

// Publish delivers e to every current subscriber of e.Topic and returns the
// number of subscribers that received it. A missing ID or timestamp is
// filled in. An ID already seen inside the window yields ErrDuplicate.
func (b *Broker) Publish(ctx context.Context, e model.Event) (int, error) { //nolint:gocritic // hugeParam: Event is copied onto channels anyway
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e.Topic = strings.TrimSpace(e.Topic)
	if e.Topic == "" {
		return 0, ErrEmptyTopic
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.TS.IsZero() {
		e.TS = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, ErrClosed
	}

	if b.dedupe.SeenAndRecord(ctx, e.ID) {
		metrics.RecordBroadcastDuplicate(e.Topic)
		return 0, ErrDuplicate
	}

	subs := b.topics[e.Topic]
	if len(subs) == 0 {
		// nobody heard it; allow a retry with the same ID
		b.dedupe.Unrecord(ctx, e.ID)
		metrics.RecordBroadcastDropped(e.Topic, "no_subscribers")
		return 0, nil
	}

	delivered := 0
	for _, s := range subs {
		select {
		case s.ch <- e:
			delivered++
		default:
			metrics.RecordBroadcastDropped(e.Topic, "buffer_full")
			b.log.Warn(ctx, "subscriber buffer full, event dropped",
				logger.String("topic", e.Topic),
				logger.String("event_id", e.ID))
		}
	}
	if delivered > 0 {
		metrics.RecordBroadcastPublished(e.Topic)
	}
	return delivered, nil
}

// Subscribers returns the number of live subscriptions on topic.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[strings.TrimSpace(topic)])
}

// Close ends every subscription. Further Publish and Subscribe calls fail
// with ErrClosed.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for topic, subs := range b.topics {
		for id, s := range subs {
			s.once.Do(func() { close(s.ch) })
			delete(subs, id)
		}
		delete(b.topics, topic)
		metrics.UpdateBroadcastSubscribers(topic, 0)
	}
	return nil
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string { return s.topic }

// Events returns the delivery channel. It is closed by Close or when the
// broker shuts down.
func (s *Subscription) Events() <-chan model.Event { return s.ch }

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.topics[s.topic]; ok {
		delete(subs, s.id)
		metrics.UpdateBroadcastSubscribers(s.topic, len(subs))
		if len(subs) == 0 {
			delete(b.topics, s.topic)
		}
	}
	s.once.Do(func() { close(s.ch) })
}
