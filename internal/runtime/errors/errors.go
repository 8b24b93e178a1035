// Package errors defines the sentinel and structured errors shared across
// the gazet runtime. Blueprint construction surfaces *SchemaError,
// *NoConfigError and *UnresolvedError; batch dispatch surfaces
// *HandlerError. All of them are terminal for the operation that produced
// them.
package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrModuleRequired         = sterrors.New("gazet: subscriber module is required")
	ErrSourceRequired         = sterrors.New("gazet: source is required")
	ErrNilBlueprint           = sterrors.New("gazet: blueprint is required")
	ErrEmptyBatch             = sterrors.New("gazet: batch must contain at least one message")
	ErrPublisherRequired      = sterrors.New("gazet: publisher is required")
	ErrTopicRequired          = sterrors.New("gazet: topic is required")
	ErrHandlerRequired        = sterrors.New("gazet: handler function is required")
	ErrPayloadRequired        = sterrors.New("gazet: payload type is required")
	ErrPayloadPointerRequired = sterrors.New("gazet: payload type must be a pointer")
	ErrUnknownSystem          = sterrors.New("gazet: unknown transport system")
	ErrNoTopics               = sterrors.New("gazet: start_opts must name at least one topic")
	ErrRunRequired            = sterrors.New("gazet: process spec requires a run function")
)

// SchemaError reports a single option that failed schema validation. When a
// set of options violates the schema in several places the violations are
// joined, each one remaining addressable via errors.As.
type SchemaError struct {
	Key      string
	Expected string
	Received any
}

func (e *SchemaError) Error() string {
	switch {
	case e.Expected == "":
		return fmt.Sprintf("gazet: unknown option %q", e.Key)
	case e.Received == nil:
		return fmt.Sprintf("gazet: option %q is required (%s)", e.Key, e.Expected)
	default:
		return fmt.Sprintf("gazet: option %q must be %s, got %T", e.Key, e.Expected, e.Received)
	}
}

// NoConfigError reports a module that was handed to the blueprint builder
// without declaring any configuration.
type NoConfigError struct {
	Module string
}

func (e *NoConfigError) Error() string {
	return fmt.Sprintf("gazet: module %s declares no configuration", e.Module)
}

// UnresolvedError reports a blueprint field whose cross-referenced default
// could not be resolved, carrying the underlying reason.
type UnresolvedError struct {
	Field string
	Cause error
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("gazet: cannot resolve option %q: %v", e.Field, e.Cause)
}

func (e *UnresolvedError) Unwrap() error { return e.Cause }

// HandlerError is the aggregated outcome of a failed batch dispatch. The
// cause is the first handler (or recovery) error that went unhandled; the
// messages after it were not processed.
type HandlerError struct {
	Topic string
	Cause error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("gazet: batch on topic %q failed: %v", e.Topic, e.Cause)
}

func (e *HandlerError) Unwrap() error { return e.Cause }

// DecodeError reports a message payload that could not be decoded into the
// type a typed handler expects.
type DecodeError struct {
	Schema string
	Cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("gazet: cannot decode payload into %s: %v", e.Schema, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }
