package runtime

import (
	"context"
	"time"

	"github.com/alexandra-wolf/gazet/internal/runtime/ids"
	"github.com/alexandra-wolf/gazet/internal/runtime/logging"
)

// BatchInfo describes one dispatched batch to hook callbacks.
type BatchInfo struct {
	// BatchID is a ULID assigned when dispatch begins.
	BatchID string
	// Topic the batch was consumed from.
	Topic string
	// Size is the number of messages in the batch.
	Size int
	// StartedAt is when dispatch began.
	StartedAt time.Time
	// Duration of the dispatch. Zero until the batch finishes.
	Duration time.Duration
}

// DispatchHooks are optional callbacks fired around batch dispatch. All
// fields may be nil.
type DispatchHooks struct {
	// OnBatchStart fires before the batch handler runs.
	OnBatchStart func(ctx context.Context, info BatchInfo)
	// OnBatchDone fires after the batch handler returns nil.
	OnBatchDone func(ctx context.Context, info BatchInfo)
	// OnBatchError fires after the batch handler returns an error.
	OnBatchError func(ctx context.Context, info BatchInfo, err error)
}

// Merge combines two hook sets. Both callbacks fire, the receiver's first.
func (h DispatchHooks) Merge(other DispatchHooks) DispatchHooks {
	return DispatchHooks{
		OnBatchStart: chainBatchHooks(h.OnBatchStart, other.OnBatchStart),
		OnBatchDone:  chainBatchHooks(h.OnBatchDone, other.OnBatchDone),
		OnBatchError: chainBatchErrorHooks(h.OnBatchError, other.OnBatchError),
	}
}

func chainBatchHooks(first, second func(context.Context, BatchInfo)) func(context.Context, BatchInfo) {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(ctx context.Context, info BatchInfo) {
		first(ctx, info)
		second(ctx, info)
	}
}

func chainBatchErrorHooks(first, second func(context.Context, BatchInfo, error)) func(context.Context, BatchInfo, error) {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(ctx context.Context, info BatchInfo, err error) {
		first(ctx, info, err)
		second(ctx, info, err)
	}
}

// HooksMiddleware fires the given hooks around every batch.
func HooksMiddleware(hooks DispatchHooks) Middleware {
	return func(next BatchHandlerFunc) BatchHandlerFunc {
		return func(ctx context.Context, batch *Batch, state State) error {
			info := BatchInfo{
				BatchID:   ids.New(),
				Topic:     batch.Topic,
				Size:      batch.Len(),
				StartedAt: time.Now(),
			}
			if hooks.OnBatchStart != nil {
				hooks.OnBatchStart(ctx, info)
			}

			err := next(ctx, batch, state)
			info.Duration = time.Since(info.StartedAt)

			if err != nil {
				if hooks.OnBatchError != nil {
					hooks.OnBatchError(ctx, info, err)
				}
				return err
			}
			if hooks.OnBatchDone != nil {
				hooks.OnBatchDone(ctx, info)
			}
			return nil
		}
	}
}

// LoggingHooks returns hooks that log batch lifecycle events.
func LoggingHooks(logger logging.Logger) DispatchHooks {
	if logger == nil {
		return DispatchHooks{}
	}
	return DispatchHooks{
		OnBatchStart: func(_ context.Context, info BatchInfo) {
			logger.Debug("Batch dispatch started", logging.LogFields{
				"batch_id": info.BatchID,
				"topic":    info.Topic,
				"size":     info.Size,
			})
		},
		OnBatchDone: func(_ context.Context, info BatchInfo) {
			logger.Debug("Batch dispatch finished", logging.LogFields{
				"batch_id": info.BatchID,
				"topic":    info.Topic,
				"size":     info.Size,
				"duration": info.Duration.String(),
			})
		},
		OnBatchError: func(_ context.Context, info BatchInfo, err error) {
			logger.Error("Batch dispatch failed", err, logging.LogFields{
				"batch_id": info.BatchID,
				"topic":    info.Topic,
				"size":     info.Size,
				"duration": info.Duration.String(),
			})
		},
	}
}
