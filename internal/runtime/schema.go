package runtime

import (
	"errors"
	"sort"

	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
)

// Options is the raw configuration shape a subscriber declares before
// validation. Keys are schema-defined strings, values are untyped until the
// schema has coerced them.
type Options map[string]any

// Schema option keys recognised by the default subscriber schema.
const (
	OptModule         = "module"
	OptApp            = "app"
	OptID             = "id"
	OptSource         = "source"
	OptStartOpts      = "start_opts"
	OptSubscriberOpts = "subscriber_opts"
)

// Clone returns a shallow copy of the options map. A nil receiver yields an
// empty, writable map.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Kind describes the value type a schema field accepts.
type Kind int

const (
	// KindAny accepts any value, including nil.
	KindAny Kind = iota
	// KindString accepts string values.
	KindString
	// KindModule accepts a Subscriber implementation.
	KindModule
	// KindSource accepts a Source implementation.
	KindSource
	// KindStartOpts accepts anything CoerceStartOpts understands.
	KindStartOpts
)

// String reports the human-readable kind name used in validation errors.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "a string"
	case KindModule:
		return "a subscriber module"
	case KindSource:
		return "a source"
	case KindStartOpts:
		return "a start_opts list"
	default:
		return "any value"
	}
}

// Field declares a single schema entry.
type Field struct {
	Kind     Kind
	Required bool
	Default  any
	Doc      string
}

// Schema maps option keys to their declarations. Validation is all-or-nothing:
// every violation is reported, and no partial result escapes.
type Schema map[string]Field

// DefaultSchema returns the schema for subscriber options. Callers may extend
// the returned copy without affecting other builders.
func DefaultSchema() Schema {
	return Schema{
		OptModule: {
			Kind:     KindModule,
			Required: true,
			Doc:      "subscriber implementation receiving batches",
		},
		OptApp: {
			Kind: KindString,
			Doc:  "owning application scope; defaults to the source's app",
		},
		OptID: {
			Kind: KindString,
			Doc:  "process identity; defaults to the module name",
		},
		OptSource: {
			Kind:     KindSource,
			Required: true,
			Doc:      "message source the subscriber consumes from",
		},
		OptStartOpts: {
			Kind:    KindStartOpts,
			Default: StartOpts{},
			Doc:     "ordered runtime options, merged with environment entries",
		},
		OptSubscriberOpts: {
			Kind: KindAny,
			Doc:  "opaque value handed to the subscriber's init callback",
		},
	}
}

// Validate checks opts against the schema and returns a validated copy with
// defaults applied and start_opts coerced to the StartOpts type. All
// violations are collected and joined; on error the returned options are nil.
func (s Schema) Validate(opts Options) (Options, error) {
	var errs []error
	out := make(Options, len(s))

	for _, key := range sortedKeys(opts) {
		if _, ok := s[key]; !ok {
			errs = append(errs, &gzerrors.SchemaError{Key: key})
		}
	}

	for _, key := range sortedSchemaKeys(s) {
		field := s[key]
		value, present := opts[key]
		if !present {
			if field.Required {
				errs = append(errs, &gzerrors.SchemaError{Key: key, Expected: field.Kind.String()})
				continue
			}
			if field.Default != nil {
				out[key] = field.Default
			}
			continue
		}

		checked, err := checkKind(key, field.Kind, value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[key] = checked
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func checkKind(key string, kind Kind, value any) (any, error) {
	switch kind {
	case KindString:
		v, ok := value.(string)
		if !ok {
			return nil, &gzerrors.SchemaError{Key: key, Expected: kind.String(), Received: value}
		}
		return v, nil
	case KindModule:
		v, ok := value.(Subscriber)
		if !ok || v == nil {
			return nil, &gzerrors.SchemaError{Key: key, Expected: kind.String(), Received: value}
		}
		return v, nil
	case KindSource:
		v, ok := value.(Source)
		if !ok || v == nil {
			return nil, &gzerrors.SchemaError{Key: key, Expected: kind.String(), Received: value}
		}
		return v, nil
	case KindStartOpts:
		v, err := CoerceStartOpts(value)
		if err != nil {
			return nil, &gzerrors.SchemaError{Key: key, Expected: kind.String(), Received: value}
		}
		return v, nil
	default:
		return value, nil
	}
}

func sortedKeys(opts Options) []string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSchemaKeys(s Schema) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
