// Package handlers builds typed message handlers for batch subscribers.
// Incoming payloads are decoded into pointer types created per message, so
// handlers never share payload instances.
package handlers

import (
	"context"

	"github.com/alexandra-wolf/gazet/internal/runtime"
)

// RecoveryFunc handles a message that failed. Returning nil skips the message
// and lets the batch continue; returning an error halts the batch.
type RecoveryFunc func(ctx context.Context, cause error, topic string, msg runtime.Message, state runtime.State) error

// recoveryHandler combines a MessageHandler with a recovery hook so the
// dispatch loop sees an ErrorHandler.
type recoveryHandler struct {
	runtime.MessageHandler
	recovery RecoveryFunc
}

func (h *recoveryHandler) HandleError(ctx context.Context, cause error, topic string, msg runtime.Message, state runtime.State) error {
	return h.recovery(ctx, cause, topic, msg, state)
}

// WithRecovery attaches a recovery hook to handler. A nil recovery returns
// the handler unchanged.
func WithRecovery(handler runtime.MessageHandler, recovery RecoveryFunc) runtime.MessageHandler {
	if handler == nil || recovery == nil {
		return handler
	}
	return &recoveryHandler{MessageHandler: handler, recovery: recovery}
}

// SkipErrors returns a recovery hook that swallows every failure, optionally
// reporting each skipped message to observe.
func SkipErrors(observe func(cause error, topic string, msg runtime.Message)) RecoveryFunc {
	return func(_ context.Context, cause error, topic string, msg runtime.Message, _ runtime.State) error {
		if observe != nil {
			observe(cause, topic, msg)
		}
		return nil
	}
}
