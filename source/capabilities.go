package source

// Capabilities describes what a transport system can guarantee. Units expose
// them for introspection so applications can decide how much to lean on
// redelivery, ordering, or competing consumers.
type Capabilities struct {
	// Name is the system name the record describes.
	Name string

	// SupportsOrdering reports whether delivery order within one topic (or
	// partition) is stable. Batch dispatch is always in order; this tells you
	// whether the transport preserved the order before gazet saw it.
	SupportsOrdering bool

	// SupportsAck reports whether the transport honours explicit
	// acknowledgement of consumed messages.
	SupportsAck bool

	// SupportsNack reports whether a negative acknowledgement triggers
	// redelivery. Without it, a failed batch is effectively dropped by the
	// transport.
	SupportsNack bool

	// SupportsConsumerGroups reports whether several subscriber processes can
	// share one subscription with each message going to a single member.
	SupportsConsumerGroups bool

	// SupportsDurability reports whether unconsumed messages survive process
	// and broker restarts.
	SupportsDurability bool

	// SupportsPartitioning reports whether topics are split into partitions
	// with per-partition ordering.
	SupportsPartitioning bool

	// MaxMessageSize is the maximum payload in bytes (0 = unknown/unlimited).
	MaxMessageSize int64
}

// SupportsReliableDelivery reports whether the system offers at-least-once
// semantics (ack plus nack-driven redelivery).
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.SupportsNack
}

// GuaranteesRedelivery reports whether a nacked batch will come back after a
// restart: the transport must both redeliver on nack and persist messages.
func (c Capabilities) GuaranteesRedelivery() bool {
	return c.SupportsNack && c.SupportsDurability
}

// Capability records for the built-in transports. The sub-packages register
// these together with their builders.
var (
	// ChannelCapabilities for the in-memory Go channel transport.
	ChannelCapabilities = Capabilities{
		Name:                   "channel",
		SupportsOrdering:       true,
		SupportsAck:            true,
		SupportsNack:           true,
		SupportsConsumerGroups: false,
		SupportsDurability:     false,
		SupportsPartitioning:   false,
	}

	// KafkaCapabilities for the Apache Kafka transport.
	KafkaCapabilities = Capabilities{
		Name:                   "kafka",
		SupportsOrdering:       true,
		SupportsAck:            true,
		SupportsNack:           false,
		SupportsConsumerGroups: true,
		SupportsDurability:     true,
		SupportsPartitioning:   true,
		MaxMessageSize:         1048576, // broker default 1MB
	}

	// RabbitMQCapabilities for the RabbitMQ/AMQP transport.
	RabbitMQCapabilities = Capabilities{
		Name:                   "rabbitmq",
		SupportsOrdering:       true,
		SupportsAck:            true,
		SupportsNack:           true,
		SupportsConsumerGroups: true,
		SupportsDurability:     true,
		SupportsPartitioning:   false,
	}

	// NATSCapabilities for the NATS core transport.
	NATSCapabilities = Capabilities{
		Name:                   "nats",
		SupportsOrdering:       false,
		SupportsAck:            false,
		SupportsNack:           false,
		SupportsConsumerGroups: true,
		SupportsDurability:     false,
		SupportsPartitioning:   false,
		MaxMessageSize:         1048576, // server default 1MB
	}

	// JetStreamCapabilities for the NATS JetStream transport.
	JetStreamCapabilities = Capabilities{
		Name:                   "nats-jetstream",
		SupportsOrdering:       true,
		SupportsAck:            true,
		SupportsNack:           true,
		SupportsConsumerGroups: true,
		SupportsDurability:     true,
		SupportsPartitioning:   false,
		MaxMessageSize:         1048576, // server default 1MB
	}

	// AWSCapabilities for the AWS SNS/SQS transport.
	AWSCapabilities = Capabilities{
		Name:                   "aws",
		SupportsOrdering:       true, // FIFO topics/queues
		SupportsAck:            true,
		SupportsNack:           true,
		SupportsConsumerGroups: true,
		SupportsDurability:     true,
		SupportsPartitioning:   false,
		MaxMessageSize:         262144, // 256KB
	}

	// HTTPCapabilities for the HTTP webhook transport.
	HTTPCapabilities = Capabilities{
		Name:                   "http",
		SupportsOrdering:       false,
		SupportsAck:            false,
		SupportsNack:           false,
		SupportsConsumerGroups: false,
		SupportsDurability:     false,
		SupportsPartitioning:   false,
	}
)

// GetCapabilities returns the capabilities registered under name in the
// default registry. Unknown systems yield a zero record carrying the name.
func GetCapabilities(name string) Capabilities {
	return DefaultRegistry.GetCapabilities(name)
}
