package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleSettings = `
shop:
  subscriber:
    id: orders-main
    start_opts:
      batch_size: 20
      flush_interval: 250ms
gazet:
  subscriber:
    start_opts:
      retries: 3
`

func writeSettingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write settings file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	reg := NewRegistry()
	path := writeSettingsFile(t, sampleSettings)

	if err := Load(path, reg); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	shop, ok := reg.Lookup("shop", SubscriberComponent)
	if !ok {
		t.Fatal("expected shop/subscriber to load")
	}
	if shop["id"] != "orders-main" {
		t.Errorf("id = %v", shop["id"])
	}
	startOpts, ok := shop["start_opts"].(map[string]any)
	if !ok {
		t.Fatalf("start_opts = %T, want map", shop["start_opts"])
	}
	if startOpts["batch_size"] != 20 {
		t.Errorf("batch_size = %v", startOpts["batch_size"])
	}
	if startOpts["flush_interval"] != "250ms" {
		t.Errorf("flush_interval = %v", startOpts["flush_interval"])
	}

	framework, ok := reg.Lookup(FrameworkScope, SubscriberComponent)
	if !ok {
		t.Fatal("expected gazet/subscriber to load")
	}
	frameworkOpts := framework["start_opts"].(map[string]any)
	if frameworkOpts["retries"] != 3 {
		t.Errorf("retries = %v", frameworkOpts["retries"])
	}
}

func TestLoadKeepsOtherApps(t *testing.T) {
	reg := NewRegistry()
	reg.Put("untouched", SubscriberComponent, map[string]any{"id": "keep"})

	path := writeSettingsFile(t, sampleSettings)
	if err := Load(path, reg); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	values, ok := reg.Lookup("untouched", SubscriberComponent)
	if !ok || values["id"] != "keep" {
		t.Errorf("existing app lost: %v, %v", values, ok)
	}
}

func TestLoadMissingFile(t *testing.T) {
	reg := NewRegistry()
	err := Load(filepath.Join(t.TempDir(), "absent.yaml"), reg)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	reg := NewRegistry()
	path := writeSettingsFile(t, "shop:\n  subscriber: [not a map")
	if err := Load(path, reg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWatchStopsOnContextCancel(t *testing.T) {
	reg := NewRegistry()
	path := writeSettingsFile(t, sampleSettings)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Watch(ctx, path, reg, nil); err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
}

func TestWatchMissingDir(t *testing.T) {
	reg := NewRegistry()
	err := Watch(context.Background(), "/nonexistent-gazet-dir/settings.yaml", reg, nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
