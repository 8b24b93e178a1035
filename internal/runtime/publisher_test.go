package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"google.golang.org/protobuf/types/known/structpb"

	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
	"github.com/alexandra-wolf/gazet/internal/runtime/jsoncodec"
	metadatapkg "github.com/alexandra-wolf/gazet/internal/runtime/metadata"
)

type publisherTestContextKey struct{}

var testCtxKey = publisherTestContextKey{}

// recordingPublisher captures everything published through it.
type recordingPublisher struct {
	topics []string
	msgs   []*message.Message
	err    error
}

func (p *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestNewMessage(t *testing.T) {
	t.Parallel()

	msg := NewMessage([]byte("payload"), metadatapkg.Metadata{"origin": "unit"})
	if len(msg.UUID) != 26 {
		t.Fatalf("expected ULID uuid, got %q", msg.UUID)
	}
	if string(msg.Payload) != "payload" {
		t.Fatalf("expected payload preserved, got %q", msg.Payload)
	}
	if msg.Metadata["origin"] != "unit" {
		t.Fatalf("expected metadata converted, got %#v", msg.Metadata)
	}
}

func TestNewMessageJSON(t *testing.T) {
	t.Parallel()

	if _, err := NewMessageJSON(nil, nil); !errors.Is(err, gzerrors.ErrPayloadRequired) {
		t.Fatalf("expected payload required, got %v", err)
	}

	type order struct {
		ID string `json:"id"`
	}
	msg, err := NewMessageJSON(&order{ID: "o-1"}, metadatapkg.Metadata{"origin": "unit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Metadata[metadatapkg.KeySchema] != "*runtime.order" {
		t.Fatalf("expected schema stamp, got %q", msg.Metadata[metadatapkg.KeySchema])
	}
	if msg.Metadata["origin"] != "unit" {
		t.Fatalf("expected metadata preserved, got %#v", msg.Metadata)
	}

	var decoded order
	if err := jsoncodec.Unmarshal(msg.Payload, &decoded); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.ID != "o-1" {
		t.Fatalf("expected payload round trip, got %#v", decoded)
	}
}

func TestNewMessageProto(t *testing.T) {
	t.Parallel()

	if _, err := NewMessageProto(nil, nil); !errors.Is(err, gzerrors.ErrPayloadRequired) {
		t.Fatalf("expected payload required, got %v", err)
	}

	var typed *structpb.Struct
	if _, err := NewMessageProto(typed, nil); !errors.Is(err, gzerrors.ErrPayloadRequired) {
		t.Fatalf("expected typed nil rejected, got %v", err)
	}

	msg, err := NewMessageProto(&structpb.Struct{}, metadatapkg.Metadata{"origin": "unit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Metadata[metadatapkg.KeySchema] == "" {
		t.Fatal("expected schema stamp on proto message")
	}
	if msg.Metadata["origin"] != "unit" {
		t.Fatalf("expected metadata preserved, got %#v", msg.Metadata)
	}
}

func TestNewMessageProtoMarshalError(t *testing.T) {
	t.Parallel()

	// Invalid UTF-8 in a string field fails protojson marshaling.
	event := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"key": {Kind: &structpb.Value_StringValue{StringValue: "\xff"}},
		},
	}
	if _, err := NewMessageProto(event, nil); err == nil {
		t.Fatal("expected marshal error for invalid UTF-8")
	}
}

func TestPublishValidations(t *testing.T) {
	t.Parallel()

	msg := NewMessage([]byte("x"), nil)
	if err := Publish(context.Background(), nil, "topic", msg); !errors.Is(err, gzerrors.ErrPublisherRequired) {
		t.Fatalf("expected publisher required, got %v", err)
	}
	if err := Publish(context.Background(), &recordingPublisher{}, "", msg); !errors.Is(err, gzerrors.ErrTopicRequired) {
		t.Fatalf("expected topic required, got %v", err)
	}
}

func TestPublishNoMessages(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	if err := Publish(context.Background(), pub, "topic"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.topics) != 0 {
		t.Fatal("expected no publish call for empty message list")
	}
}

func TestPublishAttachesContext(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), testCtxKey, "attached")
	pub := &recordingPublisher{}
	msg := NewMessage([]byte("x"), nil)

	if err := Publish(ctx, pub, "orders", msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("expected one message published, got %d", len(pub.msgs))
	}
	if pub.msgs[0].Context().Value(testCtxKey) != "attached" {
		t.Fatal("expected publish context attached to message")
	}
	if pub.topics[0] != "orders" {
		t.Fatalf("expected topic orders, got %q", pub.topics[0])
	}
}

func TestPublishJSON(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	err := PublishJSON(context.Background(), pub, "orders", map[string]string{"id": "o-1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("expected one message published, got %d", len(pub.msgs))
	}
}

func TestPublishProto(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	err := PublishProto(context.Background(), pub, "orders", &structpb.Struct{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("expected one message published, got %d", len(pub.msgs))
	}

	pubErr := &recordingPublisher{err: errors.New("transport down")}
	if err := PublishProto(context.Background(), pubErr, "orders", &structpb.Struct{}, nil); err == nil {
		t.Fatal("expected publish error surfaced")
	}
}
