package runtime

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ThreeDotsLabs/watermill/message"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
	"github.com/alexandra-wolf/gazet/internal/runtime/ids"
	"github.com/alexandra-wolf/gazet/internal/runtime/jsoncodec"
	metadatapkg "github.com/alexandra-wolf/gazet/internal/runtime/metadata"
)

// NewMessage wraps raw data in a Watermill message with a ULID id and the
// given metadata.
func NewMessage(data []byte, md metadatapkg.Metadata) *message.Message {
	msg := message.NewMessage(ids.New(), data)
	msg.Metadata = metadatapkg.ToWatermill(md)
	return msg
}

// NewMessageJSON marshals payload to JSON and wraps it in a message stamped
// with the payload's schema name.
func NewMessageJSON(payload any, md metadatapkg.Metadata) (*message.Message, error) {
	if payload == nil {
		return nil, gzerrors.ErrPayloadRequired
	}
	data, err := jsoncodec.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T payload: %w", payload, err)
	}
	msg := NewMessage(data, md.With(metadatapkg.KeySchema, fmt.Sprintf("%T", payload)))
	return msg, nil
}

// NewMessageProto marshals event with protojson, emitting unpopulated fields
// so consumers always see the full schema shape.
func NewMessageProto(event proto.Message, md metadatapkg.Metadata) (*message.Message, error) {
	if isNilProto(event) {
		return nil, gzerrors.ErrPayloadRequired
	}
	opts := protojson.MarshalOptions{EmitUnpopulated: true}
	data, err := opts.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T event: %w", event, err)
	}
	msg := NewMessage(data, md.With(metadatapkg.KeySchema, fmt.Sprintf("%T", event)))
	return msg, nil
}

// Publish sends messages to topic, attaching ctx to each message first.
func Publish(ctx context.Context, publisher message.Publisher, topic string, msgs ...*message.Message) error {
	if publisher == nil {
		return gzerrors.ErrPublisherRequired
	}
	if topic == "" {
		return gzerrors.ErrTopicRequired
	}
	if len(msgs) == 0 {
		return nil
	}
	for _, msg := range msgs {
		if msg != nil && ctx != nil {
			msg.SetContext(ctx)
		}
	}
	return publisher.Publish(topic, msgs...)
}

// PublishJSON marshals payload to JSON and publishes it to topic.
func PublishJSON(ctx context.Context, publisher message.Publisher, topic string, payload any, md metadatapkg.Metadata) error {
	msg, err := NewMessageJSON(payload, md)
	if err != nil {
		return err
	}
	return Publish(ctx, publisher, topic, msg)
}

// PublishProto marshals event with protojson and publishes it to topic.
func PublishProto(ctx context.Context, publisher message.Publisher, topic string, event proto.Message, md metadatapkg.Metadata) error {
	msg, err := NewMessageProto(event, md)
	if err != nil {
		return err
	}
	return Publish(ctx, publisher, topic, msg)
}

// isNilProto reports whether event is nil, including a typed nil pointer
// behind the interface.
func isNilProto(event proto.Message) bool {
	if event == nil {
		return true
	}
	v := reflect.ValueOf(event)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
