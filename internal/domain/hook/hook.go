package hook

import "context"

// Event is any lifecycle event with a name identifier.
type Event interface {
	EventName() string
}

// Handler reacts to an emitted event. Errors and panics are isolated by the
// sink; they never propagate to the emitting operation.
type Handler func(ctx context.Context, e Event) error

// Emitter delivers an event to every registered handler, synchronously, in
// registration order.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
