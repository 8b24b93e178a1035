package runtime

import (
	"context"

	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
)

// RestartPolicy controls how a supervisor treats a finished process.
type RestartPolicy int

const (
	// RestartPermanent restarts the process regardless of how it exited.
	RestartPermanent RestartPolicy = iota
	// RestartTransient restarts the process only after an error exit.
	RestartTransient
	// RestartTemporary never restarts the process.
	RestartTemporary
)

// String reports the policy name.
func (p RestartPolicy) String() string {
	switch p {
	case RestartTransient:
		return "transient"
	case RestartTemporary:
		return "temporary"
	default:
		return "permanent"
	}
}

// ProcessSpec describes a supervisable subscriber process.
type ProcessSpec struct {
	// ID names the process for supervision and logging.
	ID string
	// Run executes the process until ctx is cancelled or a fatal error occurs.
	Run func(ctx context.Context) error
	// Restart is the supervisor restart policy.
	Restart RestartPolicy
}

// childSpecOverrideKeys is the allow-list of option keys callers may override
// when requesting a process spec. Anything else is silently ignored.
var childSpecOverrideKeys = []string{
	OptApp,
	OptID,
	OptSource,
	OptStartOpts,
	OptSubscriberOpts,
}

// overlayOverrides copies opts and applies the allow-listed override keys.
func overlayOverrides(opts, overrides Options) Options {
	out := opts.Clone()
	for _, key := range childSpecOverrideKeys {
		if value, ok := overrides[key]; ok {
			out[key] = value
		}
	}
	return out
}

// ChildSpec asks the blueprint's source for the subscriber's process spec.
func ChildSpec(bp *Blueprint) (ProcessSpec, error) {
	if bp == nil {
		return ProcessSpec{}, gzerrors.ErrNilBlueprint
	}
	if bp.Source == nil {
		return ProcessSpec{}, gzerrors.ErrSourceRequired
	}
	return bp.Source.SubscriberSpec(bp)
}

// ChildSpecOptions builds a blueprint from raw options and returns its
// process spec.
func (b *Builder) ChildSpecOptions(opts Options) (ProcessSpec, error) {
	bp, err := b.BuildOptions(opts)
	if err != nil {
		return ProcessSpec{}, err
	}
	return ChildSpec(bp)
}

// ChildSpecFor builds module's blueprint with the allow-listed overrides
// applied and returns its process spec.
func (b *Builder) ChildSpecFor(module Subscriber, overrides Options) (ProcessSpec, error) {
	bp, err := b.BuildFor(module, overrides)
	if err != nil {
		return ProcessSpec{}, err
	}
	return ChildSpec(bp)
}
