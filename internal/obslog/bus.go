package obslog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Observer receives exploration lifecycle notifications. Implementations
// must return quickly: the engine calls observers synchronously, on the
// single driver thread, so a slow observer stalls exploration.
type Observer interface {
	OnEvent(ctx context.Context, event CloudEvent) error
	ObserverID() string
}

// FunctionalObserver adapts a plain function to the Observer interface.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event CloudEvent) error
}

// NewFunctionalObserver builds an Observer from a handler function, minting
// a random ID if none is supplied.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event CloudEvent) error) *FunctionalObserver {
	if id == "" {
		id = uuid.NewString()
	}
	return &FunctionalObserver{id: id, handler: handler}
}

func (f *FunctionalObserver) OnEvent(ctx context.Context, event CloudEvent) error {
	return f.handler(ctx, event)
}

func (f *FunctionalObserver) ObserverID() string { return f.id }

type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool
	registeredAt time.Time
}

// Bus is the driver's fan-out notification point. Unlike an application
// that may dispatch notifications asynchronously depending on context, Bus
// always notifies synchronously: the engine never spawns a goroutine on its
// own behalf, since it only ever runs in response to a call from its
// embedding runtime.
type Bus struct {
	mu        sync.RWMutex
	observers map[string]*observerRegistration
	logger    Logger
}

// NewBus creates an empty notification bus. A nil logger is replaced with
// NopLogger.
func NewBus(logger Logger) *Bus {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Bus{observers: make(map[string]*observerRegistration), logger: logger}
}

// RegisterObserver adds an observer, optionally filtered to a set of event
// types. An empty eventTypes means "receive everything".
func (b *Bus) RegisterObserver(observer Observer, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	filter := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		filter[t] = true
	}
	b.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   filter,
		registeredAt: time.Now(),
	}
	b.logger.Debug("observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
}

// UnregisterObserver removes an observer. Idempotent.
func (b *Bus) UnregisterObserver(observer Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.observers, observer.ObserverID())
}

// Notify delivers event to every interested observer, synchronously, in
// registration order is not guaranteed (map iteration). A panicking or
// erroring observer is logged and does not stop delivery to the rest.
func (b *Bus) Notify(ctx context.Context, event CloudEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}

	for _, reg := range b.observers {
		if len(reg.eventTypes) > 0 && !reg.eventTypes[event.Type()] {
			continue
		}
		b.deliver(ctx, reg, event)
	}
}

func (b *Bus) deliver(ctx context.Context, reg *observerRegistration, event CloudEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("observer panicked", "observerID", reg.observer.ObserverID(), "event", event.Type(), "panic", r)
		}
	}()
	if err := reg.observer.OnEvent(ctx, event); err != nil {
		b.logger.Error("observer error", "observerID", reg.observer.ObserverID(), "event", event.Type(), "error", err)
	}
}
