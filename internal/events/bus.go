package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for in-process event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(StateChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event dispatches on the concrete type, so fan out through a
	// type switch rather than the interface.
	switch e := ev.(type) {
	case StateChangedEvent:
		event.Publish(b.dispatcher, e)
	case SatelliteStartedEvent:
		event.Publish(b.dispatcher, e)
	case SatelliteExitedEvent:
		event.Publish(b.dispatcher, e)
	case ConfigStaleEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler; the handler's parameter type selects which
// events it receives. Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e StateChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(StateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SatelliteStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SatelliteExitedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ConfigStaleEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
