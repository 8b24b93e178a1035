package runtime

import (
	"github.com/ThreeDotsLabs/watermill/message"

	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
	metadatapkg "github.com/alexandra-wolf/gazet/internal/runtime/metadata"
)

// Message is a single unit of consumed data: the raw payload plus transport
// metadata.
type Message struct {
	Data     []byte
	Metadata metadatapkg.Metadata
}

// Batch is an ordered, non-empty group of messages consumed from one topic
// and dispatched together.
type Batch struct {
	Topic    string
	Messages []Message
}

// NewBatch assembles a batch for topic. Batches are never empty; callers
// collecting zero messages must not dispatch.
func NewBatch(topic string, msgs ...Message) (*Batch, error) {
	if len(msgs) == 0 {
		return nil, gzerrors.ErrEmptyBatch
	}
	return &Batch{Topic: topic, Messages: msgs}, nil
}

// Len reports the number of messages in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Messages)
}

// MessageFromWatermill converts a Watermill message into a batch message,
// copying the payload so acking the original cannot race the handler.
func MessageFromWatermill(msg *message.Message) Message {
	data := make([]byte, len(msg.Payload))
	copy(data, msg.Payload)
	return Message{
		Data:     data,
		Metadata: metadatapkg.FromWatermill(msg.Metadata),
	}
}

// BatchFromWatermill converts a slice of Watermill messages into a batch.
func BatchFromWatermill(topic string, msgs []*message.Message) (*Batch, error) {
	if len(msgs) == 0 {
		return nil, gzerrors.ErrEmptyBatch
	}
	converted := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		converted = append(converted, MessageFromWatermill(msg))
	}
	return &Batch{Topic: topic, Messages: converted}, nil
}
