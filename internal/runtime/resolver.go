package runtime

import (
	"github.com/alexandra-wolf/gazet/internal/runtime/settings"
)

// resolveEnvironment folds the settings store entries for the given scope
// candidates into one options map. Candidates are ordered highest priority
// first; plain keys from a higher-priority scope replace lower-priority ones,
// while keys listed in mergeKeys are combined as start_opts with the
// higher-priority entries winning per key.
func resolveEnvironment(store settings.Store, candidates []settings.Scope, mergeKeys []string) Options {
	if store == nil {
		return Options{}
	}

	merge := make(map[string]bool, len(mergeKeys))
	for _, k := range mergeKeys {
		merge[k] = true
	}

	out := Options{}
	// Walk lowest priority first so later candidates overlay earlier ones.
	for i := len(candidates) - 1; i >= 0; i-- {
		scope := candidates[i]
		env, ok := store.Lookup(scope.App, scope.Component)
		if !ok {
			continue
		}
		for key, value := range env {
			if !merge[key] {
				out[key] = value
				continue
			}
			out[key] = mergeStartOpts(out[key], value)
		}
	}
	return out
}

// mergeStartOpts layers a higher-priority start_opts value over an
// accumulated one. Values that fail coercion are kept raw so schema
// validation reports them instead of silently dropping configuration.
func mergeStartOpts(accumulated, value any) any {
	higher, err := CoerceStartOpts(value)
	if err != nil {
		return value
	}
	if accumulated == nil {
		return higher
	}
	lower, err := CoerceStartOpts(accumulated)
	if err != nil {
		return higher
	}
	return lower.Merge(higher)
}
