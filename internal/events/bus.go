package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Delivery is asynchronous; subscribers run on the dispatcher's goroutines.
// Usage: bus.Publish(NodePowerChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case NodePowerChangedEvent:
		event.Publish(b.dispatcher, e)
	case NodeResetEvent:
		event.Publish(b.dispatcher, e)
	case LEDChangedEvent:
		event.Publish(b.dispatcher, e)
	case PowerErrorEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler's parameter type selects the event type; unknown handler
// types get a no-op unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e NodePowerChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(NodePowerChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(NodeResetEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LEDChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PowerErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
