/*
Package runtime provides the core batch subscription machinery for gazet.

# Architecture Overview

The runtime package turns a declared subscriber configuration into a running
batch consumer. Configuration flows through three stages: schema validation,
environment resolution against the settings store, and blueprint assembly.
The resulting Blueprint is handed to the configured source, which produces a
supervisable process spec.

# Package Structure

The runtime package is organized into the following components:

## Options & Schema (schema.go, startopts.go)

Subscriber configuration arrives as an Options map. The Schema describes which
keys are legal, their kinds, and their defaults. StartOpts is the ordered
key/value list carried under the "start_opts" key; it survives merging with
environment configuration without losing declaration order.

## Blueprint Assembly (blueprint.go, resolver.go, builder.go)

The Builder validates raw options, resolves the owning app, folds in settings
store environment for the (app, subscriber) and ("gazet", subscriber) scopes,
and produces an immutable Blueprint. Explicit options always win over
environment values; start_opts entries merge key-wise instead of being
replaced wholesale.

## Subscribers & Dispatch (subscriber.go, batch.go)

A Subscriber declares its config, initialises per-process state, and handles
batches. Base supplies the default HandleBatch loop: messages are dispatched
in order to a MessageHandler, failed messages are offered to an optional
ErrorHandler, and any unhandled error halts the batch.

## Process Specs & Supervision (childspec.go, supervisor.go)

ChildSpec delegates spec construction to the blueprint's source. The
Supervisor runs process specs with exponential restart backoff and honours
each spec's restart policy.

## Middleware, Hooks & Metrics (middleware.go, hooks.go, metrics.go)

Batch handlers compose through a middleware chain: panic recovery, logging,
OpenTelemetry tracing, Prometheus metrics, and user hooks fired around each
batch.

## Publishing (publisher.go)

Utilities for emitting raw, JSON, and proto-encoded messages with ULID IDs
and schema-stamped metadata.

# Sub-packages

  - errors/: Sentinel errors and error types
  - handlers/: Typed JSON and proto message handlers
  - ids/: ULID generation for message IDs
  - jsoncodec/: JSON marshaling utilities
  - logging/: Logger interface and adapters
  - metadata/: Message metadata utilities
  - settings/: Settings store, YAML loader, and file watcher

# Usage Example

	builder := runtime.NewBuilder()

	spec, err := builder.ChildSpecFor(&OrderSubscriber{}, runtime.Options{
		"id": "orders-main",
	})
	if err != nil {
		return err
	}

	sup := runtime.NewSupervisor(logger)
	sup.Add(spec)
	return sup.Run(ctx)
*/
package runtime
