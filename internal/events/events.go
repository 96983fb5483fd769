// Package events provides the in-process fan-out of document change events
package events

import (
	"context"
	"sync"

	"github.com/partsdesk/partsdesk/internal/logger"
)

// EventType represents the kind of document change
type EventType string

const (
	// EventDocumentWritten is emitted after a document is created or overwritten
	EventDocumentWritten EventType = "document_written"
	// EventDocumentDeleted is emitted after a document is deleted
	EventDocumentDeleted EventType = "document_deleted"
	// EventInitial is queued to a new subscription before any live event
	EventInitial EventType = "initial"

	// EventChannelSize is the buffer size of the bus channel
	EventChannelSize = 100
	// SubscriptionQueueSize is the buffer size of each subscription queue
	SubscriptionQueueSize = 16
)

// Event describes a committed change to one document
type Event struct {
	Type       EventType // The type of event
	Path       string    // Full document path
	Collection string    // Path of the collection holding the document
	Version    uint64    // Document version after the change
}

// Handler is a function that handles an event
type Handler func(context.Context, Event) error

// Filter selects the events a subscription receives
type Filter func(Event) bool

// Unsubscribe removes a subscription. It is safe to call more than once.
type Unsubscribe func()

type subscription struct {
	id      uint64
	filter  Filter
	handler Handler
	queue   chan Event
	done    chan struct{}
	once    sync.Once
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// Bus routes published events to subscriptions. Each subscription gets its
// own queue and goroutine, so handlers see events in publish order.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription
	nextID uint64
	closed bool

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBus creates a bus. Start must be called before events are delivered.
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[uint64]*subscription),
		events: make(chan Event, EventChannelSize),
	}
}

// Start starts the event processing loop
func (b *Bus) Start(ctx context.Context) {
	b.mu.Lock()
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.mu.Unlock()

	b.wg.Add(1)
	go b.processEvents()
	logger.Info("🎯 Started event processing loop")
}

// Close stops the loop and every subscription, then waits for them to exit
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	if b.cancel != nil {
		b.cancel()
	}
	for id, sub := range b.subs {
		sub.stop()
		delete(b.subs, id)
	}
	b.mu.Unlock()
	b.wg.Wait()
}

// Subscribe registers a handler for the events accepted by filter. Events in
// replay are queued before any live event. After Close it registers nothing
// and returns a no-op Unsubscribe.
func (b *Bus) Subscribe(filter Filter, handler Handler, replay ...Event) Unsubscribe {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		logger.Debug("Bus closed, ignoring subscription")
		return func() {}
	}
	b.nextID++
	sub := &subscription{
		id:      b.nextID,
		filter:  filter,
		handler: handler,
		queue:   make(chan Event, SubscriptionQueueSize+len(replay)),
		done:    make(chan struct{}),
	}
	for _, e := range replay {
		sub.queue <- e
	}
	b.subs[sub.id] = sub
	ctx := b.ctx
	// Added under the lock so Close cannot be waiting already
	b.wg.Add(1)
	b.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	go b.run(ctx, sub)
	logger.Debugf("📝 Registered subscription %d", sub.id)

	return func() {
		b.mu.Lock()
		delete(b.subs, sub.id)
		b.mu.Unlock()
		sub.stop()
	}
}

// Publish sends an event to be processed. It returns without sending once the bus is closed.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	ctx := b.ctx
	b.mu.RUnlock()

	if ctx == nil {
		b.events <- event
		return
	}
	select {
	case b.events <- event:
		logger.Debugf("📢 Published event: %s (%s)", event.Type, event.Path)
	case <-ctx.Done():
	}
}

// Closed reports whether Close was called
func (b *Bus) Closed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// Subscribers returns the number of live subscriptions
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) processEvents() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			logger.Info("🛑 Stopping event processing loop")
			return
		case event := <-b.events:
			b.mu.RLock()
			for _, sub := range b.subs {
				if sub.filter != nil && !sub.filter(event) {
					continue
				}
				select {
				case sub.queue <- event:
				default:
					// A full queue already holds an event for the same
					// subscription; its handler reads the latest state.
					logger.Debugf("Subscription %d queue full, dropping %s", sub.id, event.Path)
				}
			}
			b.mu.RUnlock()
		}
	}
}

func (b *Bus) run(ctx context.Context, sub *subscription) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case event := <-sub.queue:
			select {
			case <-sub.done:
				return
			default:
			}
			if err := sub.handler(ctx, event); err != nil {
				logger.Errorf("❌ Failed to handle event %s for %s: %v", event.Type, event.Path, err)
			}
		}
	}
}
