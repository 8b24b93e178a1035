package runtime

// Blueprint is the fully resolved subscriber configuration produced by the
// Builder. Every field has passed schema validation; StartOpts already
// include merged environment entries.
type Blueprint struct {
	// Module is the subscriber the blueprint was built for.
	Module Subscriber
	// App is the owning application scope used for environment lookup.
	App string
	// ID names the subscriber process. Defaults to the module's type name.
	ID string
	// Source produces the process spec and delivers batches.
	Source Source
	// StartOpts are the merged, ordered runtime options.
	StartOpts StartOpts
	// SubscriberOpts is the opaque value handed to Init.
	SubscriberOpts any
}

// options converts the blueprint back into its Options form so overrides can
// be overlaid and the result re-validated. Nil module or source fields are
// omitted and surface as missing-key schema errors downstream.
func (bp *Blueprint) options() Options {
	opts := Options{}
	if bp.Module != nil {
		opts[OptModule] = bp.Module
	}
	if bp.Source != nil {
		opts[OptSource] = bp.Source
	}
	if bp.App != "" {
		opts[OptApp] = bp.App
	}
	if bp.ID != "" {
		opts[OptID] = bp.ID
	}
	opts[OptStartOpts] = bp.StartOpts.Clone()
	if bp.SubscriberOpts != nil {
		opts[OptSubscriberOpts] = bp.SubscriberOpts
	}
	return opts
}

// SubscriberOpts returns the blueprint's subscriber options as T. The second
// return is false when the blueprint is nil, the options are unset, or the
// value is not a T.
func SubscriberOpts[T any](bp *Blueprint) (T, bool) {
	var zero T
	if bp == nil || bp.SubscriberOpts == nil {
		return zero, false
	}
	typed, ok := bp.SubscriberOpts.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Config is a subscriber's declared configuration. It is either resolved (a
// ready Blueprint that skips environment resolution) or raw (an Options map
// the Builder validates and resolves).
type Config struct {
	blueprint *Blueprint
	options   Options
}

// ResolvedConfig declares configuration via an already assembled blueprint.
// The builder stamps the calling module's identity and re-validates, but
// performs no environment resolution.
func ResolvedConfig(bp *Blueprint) Config {
	return Config{blueprint: bp}
}

// RawConfig declares configuration as schema options to be validated and
// resolved against the environment.
func RawConfig(opts Options) Config {
	return Config{options: opts}
}

// IsZero reports whether the config declares nothing. Subscribers returning a
// zero Config are rejected by the builder.
func (c Config) IsZero() bool {
	return c.blueprint == nil && c.options == nil
}
