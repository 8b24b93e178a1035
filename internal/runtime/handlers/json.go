package handlers

import (
	"context"
	"fmt"
	"reflect"

	"github.com/alexandra-wolf/gazet/internal/runtime"
	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
	"github.com/alexandra-wolf/gazet/internal/runtime/jsoncodec"
)

// JSONHandler processes one decoded JSON payload. T must be a pointer type.
type JSONHandler[T any] func(ctx context.Context, topic string, payload T, state runtime.State) error

// BuildJSONHandler converts a typed JSON handler into a MessageHandler. Each
// message decodes into a fresh instance of T.
func BuildJSONHandler[T any](handler JSONHandler[T]) (runtime.MessageHandler, error) {
	if handler == nil {
		return nil, gzerrors.ErrHandlerRequired
	}

	factory, schema, err := jsonPrototypeFactory[T]()
	if err != nil {
		return nil, err
	}

	return runtime.MessageHandlerFunc(func(ctx context.Context, topic string, msg runtime.Message, state runtime.State) error {
		typed := factory()
		if err := jsoncodec.Unmarshal(msg.Data, typed); err != nil {
			return &gzerrors.DecodeError{Schema: schema, Cause: err}
		}
		return handler(ctx, topic, typed, state)
	}), nil
}

// MustJSONHandler is BuildJSONHandler that panics on construction errors.
// Useful for package-level handler variables.
func MustJSONHandler[T any](handler JSONHandler[T]) runtime.MessageHandler {
	built, err := BuildJSONHandler(handler)
	if err != nil {
		panic(err)
	}
	return built
}

func jsonPrototypeFactory[T any]() (func() T, string, error) {
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
