// Package gazet is a small layer on top of Watermill that turns declared
// subscriber configuration into supervised batch consumers. A subscriber
// states its module, source, and ordered start_opts; the Builder validates
// them against a schema, folds in environment defaults from the settings
// store, and hands the resolved Blueprint to a source Unit, which produces a
// supervisable process spec delivering message batches.
//
// Subscribers implement Config, Init, and HandleBatch. Base supplies the
// default runtime: Init hands back the declared subscriber options as state,
// and HandleBatch walks the batch in order through a MessageHandler, offering
// failures to an optional ErrorHandler before halting. A minimal setup
// therefore involves declaring a module, creating a Unit, asking the Builder
// for a process spec, and running it under a Supervisor; see README.md for a
// copy/paste quick start snippet.
//
// # Sources
//
// Gazet supports 7 message systems out of the box:
//   - channel: In-memory Go channels for testing
//   - kafka: High-throughput streaming with consumer groups
//   - rabbitmq: AMQP-based durable queues
//   - aws: AWS SNS/SQS with LocalStack support
//   - nats: High-performance fire-and-forget messaging
//   - nats-jetstream: NATS with durable pull consumers
//   - http: Webhook-style request messaging
//
// # Batch Dispatch
//
// Units collect consecutive messages per topic until the batch size is
// reached or the flush interval elapses, then dispatch the batch as one
// unit. A successful dispatch acks every message in the batch; a failed one
// nacks them all and leaves redelivery to the transport. Batches from all
// topics of one subscriber flow through a single dispatcher, so handlers
// never run concurrently within a process.
//
// # Middleware
//
// The default middleware chain wraps every batch with panic recovery,
// structured logging, Prometheus metrics, and dispatch hooks; OpenTelemetry
// tracing is available via TracingMiddleware. Custom middleware can be added
// per unit via WithMiddleware.
//
// # Dispatch Hooks
//
// HooksMiddleware provides OnBatchStart, OnBatchDone, and OnBatchError
// callbacks for custom logging, metrics collection, and alerting around
// batch execution.
//
// When you need more control, the Builder exposes well-scoped knobs: bring
// your own Schema, settings Store, or framework scope, and register custom
// transports against the source registry to plug in brokers gazet does not
// ship with.
package gazet
