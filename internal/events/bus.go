// Package events is the in-process notification channel between entry
// ingestion and insight generation.
package events

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
)

// Topic names an event kind
type Topic string

const (
	// TopicEntryAdded fires after an entry is durably appended
	TopicEntryAdded Topic = "entry.added"
	// TopicInsightsGenerated fires after a user's insight set is replaced
	TopicInsightsGenerated Topic = "insights.generated"
	// TopicAnalysisError fires when background insight generation fails
	TopicAnalysisError Topic = "analysis.error"
)

// DefaultQueueSize bounds the async queue when no size is configured
const DefaultQueueSize = 1000

// Event is a notification delivered to subscribers
type Event struct {
	Topic     Topic
	UserID    string
	Timestamp time.Time
	Data      map[string]any
}

// Handler receives events. Handlers run on the publisher's goroutine for
// Publish and on the bus worker for PublishAsync.
type Handler func(Event)

// Subscription is a handle for a registered subscriber
type Subscription struct {
	ID      string
	Topic   Topic
	handler Handler
	bus     *Bus
}

// Unsubscribe removes the subscriber; it is safe to call more than once
func (s *Subscription) Unsubscribe() {
	s.bus.unsubscribe(s)
}

// Option configures a Bus
type Option func(*Bus)

// WithQueueSize sets the async queue capacity
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithDropHandler is called for every async event dropped on a full queue
func WithDropHandler(fn func(Event)) Option {
	return func(b *Bus) { b.onDrop = fn }
}

// Bus fans events out to subscribers
type Bus struct {
	log       logger.Logger
	queueSize int
	onDrop    func(Event)

	mu          sync.RWMutex
	subscribers map[Topic][]*Subscription
	closed      bool
	nextID      atomic.Uint64

	queue chan Event
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewBus creates a bus and starts its async worker
func NewBus(log logger.Logger, opts ...Option) *Bus {
	b := &Bus{
		log:         log,
		queueSize:   DefaultQueueSize,
		subscribers: make(map[Topic][]*Subscription),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.queue = make(chan Event, b.queueSize)

	go b.run()
	return b
}

// Subscribe registers a handler for a topic
func (b *Bus) Subscribe(topic Topic, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		ID:      strconv.FormatUint(b.nextID.Add(1), 10),
		Topic:   topic,
		handler: handler,
		bus:     b,
	}
	b.subscribers[topic] = append(b.subscribers[topic], sub)
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[sub.Topic]
	for i, s := range subs {
		if s.ID == sub.ID {
			b.subscribers[sub.Topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to all subscribers synchronously. A panicking
// handler is logged and does not affect the others.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	subs := make([]*Subscription, len(b.subscribers[event.Topic]))
	copy(subs, b.subscribers[event.Topic])
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(sub, event)
	}
}

func (b *Bus) deliver(sub *Subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic in event subscriber",
				logger.Topic(string(event.Topic)),
				logger.String("subscription_id", sub.ID),
				logger.Any("panic", r),
			)
		}
	}()
	sub.handler(event)
}

// PublishAsync queues an event for the worker. It never blocks: when the
// queue is full or the bus is closed the event is dropped and reported.
func (b *Bus) PublishAsync(event Event) bool {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return false
	}

	select {
	case b.queue <- event:
		return true
	default:
		b.log.Warn("event queue full, dropping event",
			logger.Topic(string(event.Topic)),
			logger.UserID(event.UserID),
		)
		if b.onDrop != nil {
			b.onDrop(event)
		}
		return false
	}
}

func (b *Bus) run() {
	defer close(b.done)
	for {
		select {
		case event := <-b.queue:
			b.Publish(event)
		case <-b.stop:
			// deliver whatever was accepted before shutdown
			for {
				select {
				case event := <-b.queue:
					b.Publish(event)
				default:
					return
				}
			}
		}
	}
}

// Shutdown stops accepting async events and waits for queued ones to be
// delivered, or for ctx to end
func (b *Bus) Shutdown(ctx context.Context) error {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		close(b.stop)
	})

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
