package runtime

import (
	"fmt"

	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
	"github.com/alexandra-wolf/gazet/internal/runtime/settings"
)

// Builder resolves declared subscriber configuration into blueprints. The
// zero value is not usable; construct with NewBuilder.
type Builder struct {
	schema    Schema
	store     settings.Store
	scope     string
	component string
}

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithSchema replaces the default option schema.
func WithSchema(schema Schema) BuilderOption {
	return func(b *Builder) {
		b.schema = schema
	}
}

// WithStore replaces the settings store consulted during environment
// resolution. A nil store disables resolution entirely.
func WithStore(store settings.Store) BuilderOption {
	return func(b *Builder) {
		b.store = store
	}
}

// WithFrameworkScope replaces the fallback application scope consulted after
// the subscriber's own app.
func WithFrameworkScope(scope string) BuilderOption {
	return func(b *Builder) {
		b.scope = scope
	}
}

// NewBuilder returns a Builder with the default schema, the process-wide
// settings registry, and the standard framework scope.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		schema:    DefaultSchema(),
		store:     settings.Default,
		scope:     settings.FrameworkScope,
		component: settings.SubscriberComponent,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Build resolves module's declared configuration into a blueprint. The build
// is all-or-nothing: any schema violation or unresolved dependency fails the
// whole build and no partial blueprint escapes.
func (b *Builder) Build(module Subscriber) (*Blueprint, error) {
	return b.BuildFor(module, nil)
}

// BuildFor resolves module's configuration with overrides overlaid. Only the
// allow-listed override keys (app, id, source, start_opts, subscriber_opts)
// are honoured; unknown override keys are silently ignored.
func (b *Builder) BuildFor(module Subscriber, overrides Options) (*Blueprint, error) {
	if module == nil {
		return nil, &gzerrors.NoConfigError{Module: "<nil>"}
	}
	cfg := module.Config()
	if cfg.IsZero() {
		return nil, &gzerrors.NoConfigError{Module: moduleName(module)}
	}

	if cfg.blueprint != nil {
		bp := *cfg.blueprint
		bp.Module = module
		if len(overrides) == 0 {
			return b.finalize(&bp)
		}
		return b.BuildOptions(overlayOverrides(bp.options(), overrides))
	}

	opts := cfg.options.Clone()
	opts[OptModule] = module
	if len(overrides) > 0 {
		opts = overlayOverrides(opts, overrides)
	}
	return b.BuildOptions(opts)
}

// BuildOptions resolves raw options into a blueprint: validate, resolve the
// owning app, fold in environment configuration, default the id, and
// re-validate the assembled result.
func (b *Builder) BuildOptions(opts Options) (*Blueprint, error) {
	validated, err := b.schema.Validate(opts)
	if err != nil {
		return nil, err
	}

	app, err := b.resolveApp(validated)
	if err != nil {
		return nil, err
	}

	env := b.resolveScopes(app)
	assembled := applyEnvironment(opts, env)
	if app != "" {
		assembled[OptApp] = app
	}
	if !hasNonEmptyString(assembled, OptID) {
		if module, ok := validated[OptModule].(Subscriber); ok {
			assembled[OptID] = moduleName(module)
		}
	}

	final, err := b.schema.Validate(assembled)
	if err != nil {
		return nil, err
	}
	return blueprintFrom(final), nil
}

// finalize re-validates an already resolved blueprint without touching the
// environment.
func (b *Builder) finalize(bp *Blueprint) (*Blueprint, error) {
	opts := bp.options()
	if bp.ID == "" && bp.Module != nil {
		opts[OptID] = moduleName(bp.Module)
	}
	validated, err := b.schema.Validate(opts)
	if err != nil {
		return nil, err
	}
	return blueprintFrom(validated), nil
}

// resolveApp returns the subscriber's owning app, asking the source when the
// options do not name one.
func (b *Builder) resolveApp(validated Options) (string, error) {
	if app, ok := validated[OptApp].(string); ok && app != "" {
		return app, nil
	}
	source, ok := validated[OptSource].(Source)
	if !ok {
		return "", nil
	}
	app, err := source.App()
	if err != nil {
		return "", &gzerrors.UnresolvedError{Field: OptApp, Cause: err}
	}
	if app == "" {
		return "", &gzerrors.UnresolvedError{Field: OptApp, Cause: fmt.Errorf("source %q reported no app", source.Name())}
	}
	return app, nil
}

// resolveScopes folds the settings store entries for the subscriber's app and
// the framework scope, app first.
func (b *Builder) resolveScopes(app string) Options {
	candidates := make([]settings.Scope, 0, 2)
	if app != "" {
		candidates = append(candidates, settings.Scope{App: app, Component: b.component})
	}
	if b.scope != "" && b.scope != app {
		candidates = append(candidates, settings.Scope{App: b.scope, Component: b.component})
	}
	return resolveEnvironment(b.store, candidates, []string{OptStartOpts})
}

// applyEnvironment unions explicit options over resolved environment.
// Explicit keys win; start_opts merge entry-wise with explicit entries
// taking precedence.
func applyEnvironment(explicit, env Options) Options {
	if len(env) == 0 {
		return explicit.Clone()
	}
	out := env.Clone()
	for key, value := range explicit {
		if key == OptStartOpts {
			if base, ok := env[OptStartOpts]; ok {
				out[key] = mergeStartOpts(base, value)
				continue
			}
		}
		out[key] = value
	}
	return out
}

// blueprintFrom converts validated options into a Blueprint.
func blueprintFrom(validated Options) *Blueprint {
	bp := &Blueprint{StartOpts: StartOpts{}}
	if v, ok := validated[OptModule].(Subscriber); ok {
		bp.Module = v
	}
	if v, ok := validated[OptSource].(Source); ok {
		bp.Source = v
	}
	if v, ok := validated[OptApp].(string); ok {
		bp.App = v
	}
	if v, ok := validated[OptID].(string); ok {
		bp.ID = v
	}
	if v, ok := validated[OptStartOpts].(StartOpts); ok {
		bp.StartOpts = v.Clone()
	}
	bp.SubscriberOpts = validated[OptSubscriberOpts]
	return bp
}

func hasNonEmptyString(opts Options, key string) bool {
	v, ok := opts[key].(string)
	return ok && v != ""
}

func moduleName(module Subscriber) string {
	return fmt.Sprintf("%T", module)
}
