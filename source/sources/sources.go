// Package sources registers all built-in transports with the default
// registry. Import it for side effects when an application should be able to
// pick any system from configuration alone.
package sources

import (
	_ "github.com/alexandra-wolf/gazet/source/aws"
	_ "github.com/alexandra-wolf/gazet/source/channel"
	_ "github.com/alexandra-wolf/gazet/source/http"
	_ "github.com/alexandra-wolf/gazet/source/jetstream"
	_ "github.com/alexandra-wolf/gazet/source/kafka"
	"github.com/alexandra-wolf/gazet/source/nats"
	"github.com/alexandra-wolf/gazet/source/rabbitmq"
)

func init() {
	nats.Register()
	rabbitmq.Register()
}
