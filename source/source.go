// Package source connects gazet subscribers to message transports. A Unit is
// the upstream distribution unit a blueprint's "source" option names: it owns
// the transport connection, batches incoming messages per topic, dispatches
// batches to the subscriber, and acks or nacks the underlying deliveries.
//
// Each transport system (channel, kafka, rabbitmq, nats, nats-jetstream, aws,
// http) lives in its own sub-package and registers itself with the registry.
package source

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport is the publisher/subscriber pair a builder produces for one
// messaging system.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Builder creates a transport from endpoint configuration. Each transport
// package provides a Builder and registers it under its system name.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config provides the endpoint values transports need. The interface keeps
// transport packages decoupled from any concrete configuration type; they
// read only the getters for their own system.
type Config interface {
	// GetSystem returns the transport system name used for registry lookup.
	GetSystem() string

	// Kafka
	GetKafkaBrokers() []string
	GetKafkaConsumerGroup() string

	// RabbitMQ
	GetRabbitMQURL() string

	// NATS core and JetStream
	GetNATSURL() string

	// HTTP
	GetHTTPServerAddress() string
	GetHTTPPublisherURL() string

	// AWS SNS/SQS
	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}

// Endpoints is the concrete Config used by units. Only the fields for the
// chosen System need to be filled in.
type Endpoints struct {
	// System names the transport to build: "channel", "kafka", "rabbitmq",
	// "nats", "nats-jetstream", "aws" or "http".
	System string

	KafkaBrokers       []string
	KafkaConsumerGroup string

	RabbitMQURL string

	NATSURL string

	HTTPServerAddress string
	HTTPPublisherURL  string

	AWSRegion          string
	AWSAccountID       string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
}

func (e Endpoints) GetSystem() string             { return e.System }
func (e Endpoints) GetKafkaBrokers() []string     { return e.KafkaBrokers }
func (e Endpoints) GetKafkaConsumerGroup() string { return e.KafkaConsumerGroup }
func (e Endpoints) GetRabbitMQURL() string        { return e.RabbitMQURL }
func (e Endpoints) GetNATSURL() string            { return e.NATSURL }
func (e Endpoints) GetHTTPServerAddress() string  { return e.HTTPServerAddress }
func (e Endpoints) GetHTTPPublisherURL() string   { return e.HTTPPublisherURL }
func (e Endpoints) GetAWSRegion() string          { return e.AWSRegion }
func (e Endpoints) GetAWSAccountID() string       { return e.AWSAccountID }
func (e Endpoints) GetAWSAccessKeyID() string     { return e.AWSAccessKeyID }
func (e Endpoints) GetAWSSecretAccessKey() string { return e.AWSSecretAccessKey }
func (e Endpoints) GetAWSEndpoint() string        { return e.AWSEndpoint }
