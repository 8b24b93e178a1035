package runtime

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// StartOpt is a single ordered runtime option.
type StartOpt struct {
	Key   string
	Value any
}

// StartOpts is an ordered list of runtime options. Order is preserved through
// merging so option lists behave deterministically.
type StartOpts []StartOpt

// Clone returns a copy of the list. Values are copied shallowly.
func (s StartOpts) Clone() StartOpts {
	if s == nil {
		return nil
	}
	out := make(StartOpts, len(s))
	copy(out, s)
	return out
}

// Merge combines the receiver with override. Keys present in both keep the
// receiver's position but take the override value; keys only in override are
// appended in their original order. Neither input is mutated.
func (s StartOpts) Merge(override StartOpts) StartOpts {
	if len(override) == 0 {
		return s.Clone()
	}
	if len(s) == 0 {
		return override.Clone()
	}

	used := make(map[string]bool, len(override))
	out := make(StartOpts, 0, len(s)+len(override))
	for _, opt := range s {
		if v, ok := override.Get(opt.Key); ok {
			out = append(out, StartOpt{Key: opt.Key, Value: v})
			used[opt.Key] = true
			continue
		}
		out = append(out, opt)
	}
	for _, opt := range override {
		if !used[opt.Key] {
			out = append(out, opt)
		}
	}
	return out
}

// Get returns the value for key. The first occurrence wins.
func (s StartOpts) Get(key string) (any, bool) {
	for _, opt := range s {
		if opt.Key == key {
			return opt.Value, true
		}
	}
	return nil, false
}

// String returns the value for key as a string.
func (s StartOpts) String(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Int returns the value for key as an int. Integer and float values from
// decoded YAML or JSON are accepted.
func (s StartOpts) Int(key string) (int, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Duration returns the value for key as a duration. Strings are parsed with
// time.ParseDuration; bare numbers are treated as milliseconds.
func (s StartOpts) Duration(key string) (time.Duration, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch d := v.(type) {
	case time.Duration:
		return d, true
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case int:
		return time.Duration(d) * time.Millisecond, true
	case int64:
		return time.Duration(d) * time.Millisecond, true
	case float64:
		return time.Duration(d) * time.Millisecond, true
	default:
		return 0, false
	}
}

// Strings returns the value for key as a string slice. Accepts []string,
// []any of strings, and comma-separated strings.
func (s StartOpts) Strings(key string) ([]string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return nil, false
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	case string:
		parts := strings.Split(list, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// CoerceStartOpts normalises the supported start_opts shapes into StartOpts.
// Accepted inputs are StartOpts, []StartOpt, a string-keyed map (entries
// sorted by key), and a list of single-entry string-keyed maps (order kept).
func CoerceStartOpts(value any) (StartOpts, error) {
	switch v := value.(type) {
	case nil:
		return StartOpts{}, nil
	case StartOpts:
		return v.Clone(), nil
	case []StartOpt:
		return StartOpts(v).Clone(), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(StartOpts, 0, len(keys))
		for _, k := range keys {
			out = append(out, StartOpt{Key: k, Value: v[k]})
		}
		return out, nil
	case []any:
		out := make(StartOpts, 0, len(v))
		for _, item := range v {
			entry, ok := item.(map[string]any)
			if !ok || len(entry) != 1 {
				return nil, fmt.Errorf("start_opts list entries must be single-key maps, got %T", item)
			}
			for k, val := range entry {
				out = append(out, StartOpt{Key: k, Value: val})
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot interpret %T as start_opts", value)
	}
}
