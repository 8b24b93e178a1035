package runtime

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
	"github.com/alexandra-wolf/gazet/internal/runtime/settings"
)

func newTestBuilder(reg *settings.Registry) *Builder {
	if reg == nil {
		reg = settings.NewRegistry()
	}
	return NewBuilder(WithStore(reg))
}

func TestBuildFromRawConfig(t *testing.T) {
	t.Parallel()

	src := &fakeSource{app: "shop"}
	sub := &configSubscriber{cfg: RawConfig(Options{
		OptSource:    src,
		OptStartOpts: map[string]any{"batch_size": 20},
	})}

	bp, err := newTestBuilder(nil).Build(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bp.Module != Subscriber(sub) {
		t.Fatal("expected module identity stamped into blueprint")
	}
	if bp.App != "shop" {
		t.Fatalf("expected app from source, got %q", bp.App)
	}
	if bp.ID != "*runtime.configSubscriber" {
		t.Fatalf("expected id defaulted to module name, got %q", bp.ID)
	}
	if bp.Source != Source(src) {
		t.Fatal("expected source carried into blueprint")
	}
	if size, _ := bp.StartOpts.Int("batch_size"); size != 20 {
		t.Fatalf("expected batch_size 20, got %d", size)
	}
}

func TestBuildExplicitAppSkipsSource(t *testing.T) {
	t.Parallel()

	src := &fakeSource{app: "shop"}
	sub := &configSubscriber{cfg: RawConfig(Options{
		OptSource: src,
		OptApp:    "billing",
		OptID:     "invoices",
	})}

	bp, err := newTestBuilder(nil).Build(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bp.App != "billing" {
		t.Fatalf("expected explicit app, got %q", bp.App)
	}
	if bp.ID != "invoices" {
		t.Fatalf("expected explicit id, got %q", bp.ID)
	}
	if src.appHits != 0 {
		t.Fatalf("expected source app not consulted, got %d calls", src.appHits)
	}
}

func TestBuildUnresolvedApp(t *testing.T) {
	t.Parallel()

	t.Run("source app errors", func(t *testing.T) {
		t.Parallel()
		src := &fakeSource{appErr: errors.New("adapter not configured")}
		sub := &configSubscriber{cfg: RawConfig(Options{OptSource: src})}

		_, err := newTestBuilder(nil).Build(sub)
		var unresolved *gzerrors.UnresolvedError
		if !errors.As(err, &unresolved) {
			t.Fatalf("expected unresolved error, got %v", err)
		}
		if unresolved.Field != OptApp {
			t.Fatalf("expected app field, got %q", unresolved.Field)
		}
		if !strings.Contains(err.Error(), "adapter not configured") {
			t.Fatalf("expected cause preserved, got %q", err.Error())
		}
	})

	t.Run("source reports empty app", func(t *testing.T) {
		t.Parallel()
		src := &fakeSource{name: "noapp"}
		sub := &configSubscriber{cfg: RawConfig(Options{OptSource: src})}

		_, err := newTestBuilder(nil).Build(sub)
		var unresolved *gzerrors.UnresolvedError
		if !errors.As(err, &unresolved) {
			t.Fatalf("expected unresolved error, got %v", err)
		}
		if !strings.Contains(err.Error(), `"noapp"`) {
			t.Fatalf("expected source name in cause, got %q", err.Error())
		}
	})
}

func TestBuildMergesEnvironmentUnderExplicit(t *testing.T) {
	t.Parallel()

	reg := settings.NewRegistry()
	reg.Put("shop", settings.SubscriberComponent, map[string]any{
		"start_opts": map[string]any{"timeout": 1000, "retries": 3},
	})

	src := &fakeSource{app: "shop"}
	sub := &configSubscriber{cfg: RawConfig(Options{
		OptSource:    src,
		OptStartOpts: map[string]any{"timeout": 5000},
	})}

	bp, err := newTestBuilder(reg).Build(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := StartOpts{
		{Key: "retries", Value: 3},
		{Key: "timeout", Value: 5000},
	}
	if !reflect.DeepEqual(bp.StartOpts, want) {
		t.Fatalf("expected %#v, got %#v", want, bp.StartOpts)
	}
}

func TestBuildFrameworkScopeFallback(t *testing.T) {
	t.Parallel()

	reg := settings.NewRegistry()
	reg.Put(settings.FrameworkScope, settings.SubscriberComponent, map[string]any{
		"start_opts": map[string]any{"retries": 7, "flush_interval": "1s"},
	})
	reg.Put("shop", settings.SubscriberComponent, map[string]any{
		"start_opts": map[string]any{"retries": 3},
	})

	src := &fakeSource{app: "shop"}
	sub := &configSubscriber{cfg: RawConfig(Options{OptSource: src})}

	bp, err := newTestBuilder(reg).Build(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if retries, _ := bp.StartOpts.Int("retries"); retries != 3 {
		t.Fatalf("expected app scope to win, got retries=%d", retries)
	}
	if flush, _ := bp.StartOpts.String("flush_interval"); flush != "1s" {
		t.Fatalf("expected framework entry preserved, got %q", flush)
	}
}

func TestBuildEnvironmentScalarUnderExplicit(t *testing.T) {
	t.Parallel()

	reg := settings.NewRegistry()
	reg.Put("shop", settings.SubscriberComponent, map[string]any{
		"id":              "from-env",
		"subscriber_opts": map[string]any{"mode": "audit"},
	})

	src := &fakeSource{app: "shop"}
	sub := &configSubscriber{cfg: RawConfig(Options{
		OptSource: src,
		OptID:     "explicit-id",
	})}

	bp, err := newTestBuilder(reg).Build(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bp.ID != "explicit-id" {
		t.Fatalf("expected explicit id to win, got %q", bp.ID)
	}
	opts, ok := SubscriberOpts[map[string]any](bp)
	if !ok || opts["mode"] != "audit" {
		t.Fatalf("expected env subscriber_opts, got %#v", bp.SubscriberOpts)
	}
}

func TestBuildAllOrNothing(t *testing.T) {
	t.Parallel()

	src := &fakeSource{app: "shop"}
	sub := &configSubscriber{cfg: RawConfig(Options{
		OptSource:    src,
		OptStartOpts: 42,
		"bogus":      true,
	})}

	bp, err := newTestBuilder(nil).Build(sub)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if bp != nil {
		t.Fatalf("expected no partial blueprint, got %#v", bp)
	}
	msg := err.Error()
	if !strings.Contains(msg, `unknown option "bogus"`) || !strings.Contains(msg, `option "start_opts" must be`) {
		t.Fatalf("expected both violations reported, got %q", msg)
	}
}

func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	reg := settings.NewRegistry()
	reg.Put("shop", settings.SubscriberComponent, map[string]any{
		"start_opts": map[string]any{"timeout": 1000, "retries": 3, "queue": "orders"},
	})

	src := &fakeSource{app: "shop"}
	sub := &configSubscriber{cfg: RawConfig(Options{
		OptSource:    src,
		OptStartOpts: map[string]any{"timeout": 5000},
	})}

	builder := newTestBuilder(reg)
	first, err := builder.Build(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := builder.Build(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical blueprints, got %#v vs %#v", first, second)
	}
}

func TestBuildOutputRevalidates(t *testing.T) {
	t.Parallel()

	reg := settings.NewRegistry()
	reg.Put("shop", settings.SubscriberComponent, map[string]any{
		"start_opts": map[string]any{"retries": 3},
	})

	src := &fakeSource{app: "shop"}
	sub := &configSubscriber{cfg: RawConfig(Options{
		OptSource:    src,
		OptStartOpts: map[string]any{"timeout": 5000},
	})}

	bp, err := newTestBuilder(reg).Build(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	validated, err := DefaultSchema().Validate(bp.options())
	if err != nil {
		t.Fatalf("expected built blueprint to re-validate cleanly, got %v", err)
	}
	if rebuilt := blueprintFrom(validated); !reflect.DeepEqual(rebuilt, bp) {
		t.Fatalf("expected re-validation to preserve the blueprint, got %#v vs %#v", rebuilt, bp)
	}
}

func TestBuildNoConfig(t *testing.T) {
	t.Parallel()

	t.Run("nil module", func(t *testing.T) {
		t.Parallel()
		_, err := newTestBuilder(nil).Build(nil)
		var noCfg *gzerrors.NoConfigError
		if !errors.As(err, &noCfg) {
			t.Fatalf("expected no-config error, got %v", err)
		}
	})

	t.Run("zero config", func(t *testing.T) {
		t.Parallel()
		_, err := newTestBuilder(nil).Build(&configSubscriber{})
		var noCfg *gzerrors.NoConfigError
		if !errors.As(err, &noCfg) {
			t.Fatalf("expected no-config error, got %v", err)
		}
		if noCfg.Module != "*runtime.configSubscriber" {
			t.Fatalf("expected module name in error, got %q", noCfg.Module)
		}
	})
}

func TestBuildResolvedConfigSkipsEnvironment(t *testing.T) {
	t.Parallel()

	reg := settings.NewRegistry()
	reg.Put("shop", settings.SubscriberComponent, map[string]any{
		"start_opts": map[string]any{"retries": 9},
	})

	src := &fakeSource{app: "shop"}
	sub := &configSubscriber{cfg: ResolvedConfig(&Blueprint{
		App:       "shop",
		Source:    src,
		StartOpts: StartOpts{{Key: "timeout", Value: 5000}},
	})}

	bp, err := newTestBuilder(reg).Build(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bp.Module != Subscriber(sub) {
		t.Fatal("expected module identity stamped into resolved blueprint")
	}
	if bp.ID != "*runtime.configSubscriber" {
		t.Fatalf("expected id defaulted, got %q", bp.ID)
	}
	if _, ok := bp.StartOpts.Get("retries"); ok {
		t.Fatalf("expected environment untouched for resolved config, got %#v", bp.StartOpts)
	}
	if timeout, _ := bp.StartOpts.Int("timeout"); timeout != 5000 {
		t.Fatalf("expected declared start_opts kept, got %#v", bp.StartOpts)
	}
}

func TestBuildResolvedConfigStillValidated(t *testing.T) {
	t.Parallel()

	sub := &configSubscriber{cfg: ResolvedConfig(&Blueprint{})}
	_, err := newTestBuilder(nil).Build(sub)
	if err == nil {
		t.Fatal("expected validation error for blueprint without source")
	}
	if !strings.Contains(err.Error(), `option "source" is required`) {
		t.Fatalf("expected source violation, got %q", err.Error())
	}
}

func TestBuildOptionsDirect(t *testing.T) {
	t.Parallel()

	src := &fakeSource{app: "shop"}
	sub := &configSubscriber{}
	bp, err := newTestBuilder(nil).BuildOptions(Options{
		OptModule: sub,
		OptSource: src,
		OptID:     "direct",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bp.ID != "direct" {
		t.Fatalf("expected id kept, got %q", bp.ID)
	}
}

func TestBuilderSameAppAsFrameworkScope(t *testing.T) {
	t.Parallel()

	reg := settings.NewRegistry()
	reg.Put(settings.FrameworkScope, settings.SubscriberComponent, map[string]any{
		"start_opts": map[string]any{"retries": 2},
	})

	src := &fakeSource{app: settings.FrameworkScope}
	sub := &configSubscriber{cfg: RawConfig(Options{OptSource: src})}

	bp, err := newTestBuilder(reg).Build(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := StartOpts{{Key: "retries", Value: 2}}
	if !reflect.DeepEqual(bp.StartOpts, want) {
		t.Fatalf("expected scope applied once, got %#v", bp.StartOpts)
	}
}
