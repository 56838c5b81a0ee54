package events

import (
	"log"
	"sync"
	"time"
)

// Handler processes a single event
type Handler func(Event)

// Bus provides event distribution across components.
// Handlers run sequentially on a single dispatch goroutine, so they must
// not block for long. Emit never blocks: if the buffer is full the event
// is dropped and logged.
type Bus struct {
	events chan Event

	mu       sync.Mutex
	handlers []Handler
	closed   bool

	done chan struct{}
}

// NewBus creates a new event bus with the specified buffer capacity
func NewBus(capacity int) *Bus {
	b := &Bus{
		events: make(chan Event, capacity),
		done:   make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// Subscribe registers a handler for all subsequent events
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Emit queues an event for dispatch, stamping its time.
// Safe for concurrent use. Drops the event if the buffer is full.
func (b *Bus) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	select {
	case b.events <- e:
	default:
		log.Printf("WARN: event bus full, dropping event %s", e.Type)
	}
}

// Close shuts down the event bus and waits for queued events to drain
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.events)
	<-b.done
	return nil
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for e := range b.events {
		b.mu.Lock()
		handlers := make([]Handler, len(b.handlers))
		copy(handlers, b.handlers)
		b.mu.Unlock()

		for _, h := range handlers {
			h(e)
		}
	}
}
