package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML settings file shaped app -> component -> options and
// applies every entry to the registry. Apps absent from the file keep their
// existing values.
//
//	shop:
//	  subscriber:
//	    start_opts:
//	      batch_size: 20
//	gazet:
//	  subscriber:
//	    start_opts:
//	      flush_interval: 250ms
func Load(path string, reg *Registry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings file %s: %w", path, err)
	}

	var doc map[string]map[string]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse settings file %s: %w", path, err)
	}

	for app, components := range doc {
		for component, values := range components {
			reg.Put(app, component, values)
		}
	}
	return nil
}

// Watch reloads the settings file whenever it is written or recreated,
// invoking onChange after each successful reload. It watches the file's
// directory so editors that replace the file are picked up. Blocks until the
// context is cancelled.
func Watch(ctx context.Context, path string, reg *Registry, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch settings dir %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := Load(path, reg); err != nil {
				// Partial writes show up as parse errors; the next event
				// brings the complete file.
				continue
			}
			if onChange != nil {
				onChange()
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
