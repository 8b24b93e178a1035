package handlers

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/alexandra-wolf/gazet/internal/runtime"
	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
)

type jsonOrder struct {
	ID    int    `json:"id"`
	State string `json:"state"`
}

func TestBuildJSONHandlerProcessesPayload(t *testing.T) {
	var gotTopic string
	var gotPayload *jsonOrder
	var gotState runtime.State

	handler, err := BuildJSONHandler(func(ctx context.Context, topic string, payload *jsonOrder, state runtime.State) error {
		if ctx == nil {
			t.Fatal("context should not be nil")
		}
		gotTopic = topic
		gotPayload = payload
		gotState = state
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error building handler: %v", err)
	}

	msg := runtime.Message{Data: []byte(`{"id":42,"state":"open"}`)}
	if err := handler.HandleMessage(context.Background(), "orders", msg, "proc-state"); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if gotTopic != "orders" {
		t.Fatalf("expected topic orders, got %q", gotTopic)
	}
	if gotPayload == nil || gotPayload.ID != 42 || gotPayload.State != "open" {
		t.Fatalf("unexpected payload: %#v", gotPayload)
	}
	if gotState != runtime.State("proc-state") {
		t.Fatalf("expected state passed through, got %#v", gotState)
	}
}

func TestBuildJSONHandlerValidations(t *testing.T) {
	if _, err := BuildJSONHandler[*jsonOrder](nil); !errors.Is(err, gzerrors.ErrHandlerRequired) {
		t.Fatalf("expected handler required, got %v", err)
	}
	if _, err := BuildJSONHandler(func(context.Context, string, jsonOrder, runtime.State) error {
		return nil
	}); !errors.Is(err, gzerrors.ErrPayloadPointerRequired) {
		t.Fatalf("expected pointer required, got %v", err)
	}
	if _, err := BuildJSONHandler(func(context.Context, string, any, runtime.State) error {
		return nil
	}); !errors.Is(err, gzerrors.ErrPayloadRequired) {
		t.Fatalf("expected payload type required, got %v", err)
	}
}

func TestBuildJSONHandlerDecodeError(t *testing.T) {
	handler, err := BuildJSONHandler(func(context.Context, string, *jsonOrder, runtime.State) error {
		t.Fatal("handler must not run on decode failure")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error building handler: %v", err)
	}

	msg := runtime.Message{Data: []byte(`not-json`)}
	handleErr := handler.HandleMessage(context.Background(), "orders", msg, nil)
	var decodeErr *gzerrors.DecodeError
	if !errors.As(handleErr, &decodeErr) {
		t.Fatalf("expected decode error, got %v", handleErr)
	}
	if decodeErr.Schema != "*handlers.jsonOrder" {
		t.Fatalf("expected schema name in error, got %q", decodeErr.Schema)
	}
}

func TestBuildJSONHandlerFreshInstancePerMessage(t *testing.T) {
	var seen []*jsonOrder
	handler, err := BuildJSONHandler(func(_ context.Context, _ string, payload *jsonOrder, _ runtime.State) error {
		seen = append(seen, payload)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error building handler: %v", err)
	}

	batch := &runtime.Batch{Topic: "orders", Messages: []runtime.Message{
		{Data: []byte(`{"id":1}`)},
		{Data: []byte(`{"id":2}`)},
	}}
	if err := runtime.Dispatch(context.Background(), handler, batch, nil); err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("expected two payloads, got %d", len(seen))
	}
	if seen[0] == seen[1] {
		t.Fatal("expected a fresh payload instance per message")
	}
	if seen[0].ID != 1 || seen[1].ID != 2 {
		t.Fatalf("expected ordered decode, got %#v", seen)
	}
}

func TestMustJSONHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil handler")
		}
	}()
	MustJSONHandler[*jsonOrder](nil)
}

func TestWithRecoverySkipsFailedMessages(t *testing.T) {
	boom := errors.New("boom")
	handler, err := BuildJSONHandler(func(_ context.Context, _ string, payload *jsonOrder, _ runtime.State) error {
		if payload.ID == 2 {
			return boom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error building handler: %v", err)
	}

	var skipped []string
	recovering := WithRecovery(handler, SkipErrors(func(cause error, topic string, _ runtime.Message) {
		skipped = append(skipped, topic+":"+cause.Error())
	}))

	batch := &runtime.Batch{Topic: "orders", Messages: []runtime.Message{
		{Data: []byte(`{"id":1}`)},
		{Data: []byte(`{"id":2}`)},
		{Data: []byte(`{"id":3}`)},
	}}
	if err := runtime.Dispatch(context.Background(), recovering, batch, nil); err != nil {
		t.Fatalf("expected batch to continue, got %v", err)
	}
	if len(skipped) != 1 || skipped[0] != "orders:boom" {
		t.Fatalf("expected one skipped message, got %#v", skipped)
	}
}

func TestWithRecoveryHaltsWhenHookFails(t *testing.T) {
	boom := errors.New("boom")
	handler, err := BuildJSONHandler(func(context.Context, string, *jsonOrder, runtime.State) error {
		return boom
	})
	if err != nil {
		t.Fatalf("unexpected error building handler: %v", err)
	}

	giveUp := errors.New("give up")
	recovering := WithRecovery(handler, func(context.Context, error, string, runtime.Message, runtime.State) error {
		return giveUp
	})

	batch := &runtime.Batch{Topic: "orders", Messages: []runtime.Message{{Data: []byte(`{"id":1}`)}}}
	err = runtime.Dispatch(context.Background(), recovering, batch, nil)
	if !errors.Is(err, giveUp) {
		t.Fatalf("expected recovery error surfaced, got %v", err)
	}
}

func TestWithRecoveryNilArgs(t *testing.T) {
	handler := MustJSONHandler(func(context.Context, string, *jsonOrder, runtime.State) error { return nil })
	if WithRecovery(handler, nil) != handler {
		t.Fatal("expected handler unchanged for nil recovery")
	}
	if WithRecovery(nil, SkipErrors(nil)) != nil {
		t.Fatal("expected nil handler passthrough")
	}
}
