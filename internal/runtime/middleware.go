package runtime

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "gazet-dispatch-tracer"

// BatchHandlerFunc is the function form of batch handling that middleware
// wraps.
type BatchHandlerFunc func(ctx context.Context, batch *Batch, state State) error

// Middleware wraps a batch handler with additional behaviour.
type Middleware func(next BatchHandlerFunc) BatchHandlerFunc

// Chain applies middlewares to handler. The first middleware is outermost.
func Chain(handler BatchHandlerFunc, middlewares ...Middleware) BatchHandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] == nil {
			continue
		}
		handler = middlewares[i](handler)
	}
	return handler
}

// HandleBatchFunc adapts a subscriber's HandleBatch into a BatchHandlerFunc.
func HandleBatchFunc(sub Subscriber) BatchHandlerFunc {
	return func(ctx context.Context, batch *Batch, state State) error {
		return sub.HandleBatch(ctx, batch, state)
	}
}

// RecovererMiddleware converts handler panics into errors so one poisoned
// batch cannot take the process down.
func RecovererMiddleware() Middleware {
	return func(next BatchHandlerFunc) BatchHandlerFunc {
		return func(ctx context.Context, batch *Batch, state State) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("gazet: batch handler panicked: %v", r)
				}
			}()
			return next(ctx, batch, state)
		}
	}
}

// LoggingMiddleware logs each dispatched batch at debug level and failures at
// error level.
func LoggingMiddleware(logger watermill.LoggerAdapter) Middleware {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return func(next BatchHandlerFunc) BatchHandlerFunc {
		return func(ctx context.Context, batch *Batch, state State) error {
			fields := watermill.LogFields{
				"topic": batch.Topic,
				"size":  batch.Len(),
			}
			logger.Debug("Dispatching batch", fields)
			if err := next(ctx, batch, state); err != nil {
				logger.Error("Batch dispatch failed", err, fields)
				return err
			}
			return nil
		}
	}
}

// TracingMiddleware opens an OpenTelemetry span per dispatched batch.
func TracingMiddleware() Middleware {
	return func(next BatchHandlerFunc) BatchHandlerFunc {
		return func(ctx context.Context, batch *Batch, state State) error {
			spanCtx, span := otel.Tracer(tracerName).Start(ctx, "DispatchBatch")
			defer span.End()

			span.SetAttributes(
				attribute.String("gazet.topic", batch.Topic),
				attribute.Int("gazet.batch_size", batch.Len()),
			)
			return next(spanCtx, batch, state)
		}
	}
}
