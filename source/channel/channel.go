// Package channel provides an in-memory Go channel transport for gazet.
// This transport is useful for testing and local development.
//
// The channel transport withholds a topic's next message until the previous
// one is acked or nacked, so batches fill through the flush interval rather
// than batch_size.
package channel

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/alexandra-wolf/gazet/source"
)

// SystemName is the name used to register this transport.
const SystemName = "channel"

// Factory allows overriding the channel creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
	pubSub := gochannel.NewGoChannel(cfg, logger)
	return pubSub, pubSub
}

func init() {
	source.RegisterWithCapabilities(SystemName, Build, source.ChannelCapabilities)
}

// Build creates a new Go channel transport.
func Build(ctx context.Context, cfg source.Config, logger watermill.LoggerAdapter) (source.Transport, error) {
	pub, sub := Factory(gochannel.Config{}, logger)
	return source.Transport{
		Publisher:  pub,
		Subscriber: sub,
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() source.Capabilities {
	return source.ChannelCapabilities
}
