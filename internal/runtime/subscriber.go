package runtime

import (
	"context"

	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
)

// State is the opaque per-process state a subscriber's Init produces and
// every subsequent HandleBatch receives.
type State = any

// Subscriber is the contract a batch consumer implements. Config declares how
// the process is built, Init produces its state, and HandleBatch consumes
// message batches until the process stops.
type Subscriber interface {
	Config() Config
	Init(ctx context.Context, bp *Blueprint) (State, error)
	HandleBatch(ctx context.Context, batch *Batch, state State) error
}

// Source connects a subscriber to a message transport. App names the owning
// application when the subscriber does not declare one, and SubscriberSpec
// produces the supervisable process spec for a resolved blueprint.
type Source interface {
	Name() string
	App() (string, error)
	SubscriberSpec(bp *Blueprint) (ProcessSpec, error)
}

// MessageHandler processes one message at a time. Dispatch calls it for each
// message of a batch in order.
type MessageHandler interface {
	HandleMessage(ctx context.Context, topic string, msg Message, state State) error
}

// MessageHandlerFunc adapts a function to the MessageHandler interface.
type MessageHandlerFunc func(ctx context.Context, topic string, msg Message, state State) error

// HandleMessage calls f.
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, topic string, msg Message, state State) error {
	return f(ctx, topic, msg, state)
}

// ErrorHandler is an optional extension of MessageHandler. When a message
// fails, Dispatch offers the error here before halting; returning nil skips
// the message and continues with the rest of the batch.
type ErrorHandler interface {
	MessageHandler
	HandleError(ctx context.Context, cause error, topic string, msg Message, state State) error
}

// Base is the default subscriber runtime. It wires a MessageHandler into the
// Subscriber contract: Init hands back the blueprint's subscriber options as
// state, and HandleBatch runs the standard dispatch loop.
type Base struct {
	handler MessageHandler
	config  Config
}

// NewBase returns a Base dispatching to handler with the given declared
// configuration.
func NewBase(handler MessageHandler, cfg Config) *Base {
	return &Base{handler: handler, config: cfg}
}

// Config returns the declared configuration.
func (b *Base) Config() Config {
	return b.config
}

// Init returns the blueprint's subscriber options as the process state.
func (b *Base) Init(_ context.Context, bp *Blueprint) (State, error) {
	if bp == nil {
		return nil, gzerrors.ErrNilBlueprint
	}
	return bp.SubscriberOpts, nil
}

// HandleBatch dispatches every message of the batch to the configured
// handler.
func (b *Base) HandleBatch(ctx context.Context, batch *Batch, state State) error {
	return Dispatch(ctx, b.handler, batch, state)
}

// Dispatch runs the default batch loop: messages are handled strictly in
// order. A failed message is offered to the handler's ErrorHandler extension
// when present; an error left unhandled halts the batch immediately, and the
// remaining messages are not attempted.
func Dispatch(ctx context.Context, handler MessageHandler, batch *Batch, state State) error {
	if handler == nil {
		return gzerrors.ErrHandlerRequired
	}
	if batch == nil {
		return gzerrors.ErrEmptyBatch
	}

	recoverer, canRecover := handler.(ErrorHandler)
	for _, msg := range batch.Messages {
		err := handler.HandleMessage(ctx, batch.Topic, msg, state)
		if err == nil {
			continue
		}
		if !canRecover {
			return &gzerrors.HandlerError{Topic: batch.Topic, Cause: err}
		}
		if rerr := recoverer.HandleError(ctx, err, batch.Topic, msg, state); rerr != nil {
			return &gzerrors.HandlerError{Topic: batch.Topic, Cause: rerr}
		}
	}
	return nil
}
