package events

import (
	"context"
	"errors"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler) Subscription
}

// Subscription is a registered handler. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

type listener struct {
	id      uint64
	handler EventHandler
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[EventType][]listener
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]listener),
	}
}

// Publish synchronously invokes handlers for the given event. A failing
// handler does not stop the others; their errors are joined.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]listener{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	var errs []error
	for _, l := range handlers {
		if err := l.handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.listeners[eventType] = append(d.listeners[eventType], listener{id: id, handler: handler})
	return &subscription{dispatcher: d, eventType: eventType, id: id}
}

func (d *inMemoryDispatcher) remove(eventType EventType, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	current := d.listeners[eventType]
	kept := make([]listener, 0, len(current))
	for _, l := range current {
		if l.id != id {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		delete(d.listeners, eventType)
		return
	}
	d.listeners[eventType] = kept
}

type subscription struct {
	once       sync.Once
	dispatcher *inMemoryDispatcher
	eventType  EventType
	id         uint64
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.dispatcher.remove(s.eventType, s.id)
	})
}
