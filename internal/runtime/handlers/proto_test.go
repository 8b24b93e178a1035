package handlers

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alexandra-wolf/gazet/internal/runtime"
	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
)

func TestBuildProtoHandlerProcessesPayload(t *testing.T) {
	var gotTopic string
	var gotEvent *structpb.Struct

	handler, err := BuildProtoHandler(func(_ context.Context, topic string, event *structpb.Struct, _ runtime.State) error {
		gotTopic = topic
		gotEvent = event
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error building handler: %v", err)
	}

	msg := runtime.Message{Data: []byte(`{"status":"shipped"}`)}
	if err := handler.HandleMessage(context.Background(), "shipments", msg, nil); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if gotTopic != "shipments" {
		t.Fatalf("expected topic shipments, got %q", gotTopic)
	}
	if gotEvent == nil {
		t.Fatal("expected decoded event")
	}
	if gotEvent.Fields["status"].GetStringValue() != "shipped" {
		t.Fatalf("unexpected event: %#v", gotEvent)
	}
}

func TestBuildProtoHandlerValidations(t *testing.T) {
	if _, err := BuildProtoHandler[*structpb.Struct](nil); !errors.Is(err, gzerrors.ErrHandlerRequired) {
		t.Fatalf("expected handler required, got %v", err)
	}
	if _, err := BuildProtoHandler(func(context.Context, string, proto.Message, runtime.State) error {
		return nil
	}); !errors.Is(err, gzerrors.ErrPayloadRequired) {
		t.Fatalf("expected payload type required, got %v", err)
	}
}

func TestBuildProtoHandlerDecodeError(t *testing.T) {
	handler, err := BuildProtoHandler(func(context.Context, string, *structpb.Struct, runtime.State) error {
		t.Fatal("handler must not run on decode failure")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error building handler: %v", err)
	}

	msg := runtime.Message{Data: []byte(`not-json`)}
	handleErr := handler.HandleMessage(context.Background(), "shipments", msg, nil)
	var decodeErr *gzerrors.DecodeError
	if !errors.As(handleErr, &decodeErr) {
		t.Fatalf("expected decode error, got %v", handleErr)
	}
	if decodeErr.Schema != "*structpb.Struct" {
		t.Fatalf("expected schema name in error, got %q", decodeErr.Schema)
	}
}

func TestBuildProtoHandlerRoundTrip(t *testing.T) {
	event, err := structpb.NewStruct(map[string]any{"status": "packed", "count": 2.0})
	if err != nil {
		t.Fatalf("unexpected error building event: %v", err)
	}
	published, err := runtime.NewMessageProto(event, nil)
	if err != nil {
		t.Fatalf("unexpected error creating message: %v", err)
	}

	var decoded *structpb.Struct
	handler, err := BuildProtoHandler(func(_ context.Context, _ string, got *structpb.Struct, _ runtime.State) error {
		decoded = got
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error building handler: %v", err)
	}

	msg := runtime.Message{Data: published.Payload}
	if err := handler.HandleMessage(context.Background(), "shipments", msg, nil); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if decoded.Fields["status"].GetStringValue() != "packed" {
		t.Fatalf("expected round trip, got %#v", decoded)
	}
	if decoded.Fields["count"].GetNumberValue() != 2.0 {
		t.Fatalf("expected numeric field preserved, got %#v", decoded)
	}
}

func TestBuildProtoHandlerFreshInstancePerMessage(t *testing.T) {
	var seen []*structpb.Struct
	handler, err := BuildProtoHandler(func(_ context.Context, _ string, event *structpb.Struct, _ runtime.State) error {
		seen = append(seen, event)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error building handler: %v", err)
	}

	batch := &runtime.Batch{Topic: "shipments", Messages: []runtime.Message{
		{Data: []byte(`{"a":1}`)},
		{Data: []byte(`{"b":2}`)},
	}}
	if err := runtime.Dispatch(context.Background(), handler, batch, nil); err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}
	if len(seen) != 2 || seen[0] == seen[1] {
		t.Fatalf("expected fresh instances, got %#v", seen)
	}
}

func TestMustProtoHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil handler")
		}
	}()
	MustProtoHandler[*structpb.Struct](nil)
}
