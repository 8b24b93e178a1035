package handlers

import (
	"context"
	"fmt"
	"reflect"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/alexandra-wolf/gazet/internal/runtime"
	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
)

// ProtoHandler processes one decoded proto event. T must be a pointer to a
// generated message type.
type ProtoHandler[T proto.Message] func(ctx context.Context, topic string, event T, state runtime.State) error

// BuildProtoHandler converts a typed proto handler into a MessageHandler.
// Payloads are decoded with protojson, matching the publisher side.
func BuildProtoHandler[T proto.Message](handler ProtoHandler[T]) (runtime.MessageHandler, error) {
	if handler == nil {
		return nil, gzerrors.ErrHandlerRequired
	}

	factory, schema, err := protoPrototypeFactory[T]()
	if err != nil {
		return nil, err
	}

	return runtime.MessageHandlerFunc(func(ctx context.Context, topic string, msg runtime.Message, state runtime.State) error {
		typed := factory()
		if err := protojson.Unmarshal(msg.Data, typed); err != nil {
			return &gzerrors.DecodeError{Schema: schema, Cause: err}
		}
		return handler(ctx, topic, typed, state)
	}), nil
}

// MustProtoHandler is BuildProtoHandler that panics on construction errors.
func MustProtoHandler[T proto.Message](handler ProtoHandler[T]) runtime.MessageHandler {
	built, err := BuildProtoHandler(handler)
	if err != nil {
		panic(err)
	}
	return built
}

func protoPrototypeFactory[T proto.Message]() (func() T, string, error) {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil {
		return nil, "", gzerrors.ErrPayloadRequired
	}
	if typ.Kind() != reflect.Ptr {
		return nil, "", gzerrors.ErrPayloadPointerRequired
	}
	elem := typ.Elem()
	schema := fmt.Sprintf("%v", typ)
	return func() T {
		clone := reflect.New(elem).Interface()
		return clone.(T)
	}, schema, nil
}
