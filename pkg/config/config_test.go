package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Remote.APIBase != "https://mysellkit.com/api/1.1/wf" {
		t.Fatalf("unexpected API base: %q", cfg.Remote.APIBase)
	}
	if cfg.Session.Duration != 24*time.Hour {
		t.Fatalf("expected 24h session duration, got %v", cfg.Session.Duration)
	}
	if cfg.Widget.FloatingShowDelay != 300*time.Millisecond {
		t.Fatalf("expected 300ms floating delay, got %v", cfg.Widget.FloatingShowDelay)
	}
	if cfg.Widget.MobileBreakpoint != 768 {
		t.Fatalf("expected 768px mobile breakpoint, got %d", cfg.Widget.MobileBreakpoint)
	}
	if cfg.FeatureFlags.UseSQLite {
		t.Fatal("sqlite store should be opt-in")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvAPIBase, "http://localhost:9090/api/1.1/wf")
	t.Setenv(EnvUseSQLite, "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if !cfg.App.IsProd() {
		t.Fatalf("expected prod env, got %q", cfg.App.Env)
	}
	if cfg.Remote.APIBase != "http://localhost:9090/api/1.1/wf" {
		t.Fatalf("unexpected API base: %q", cfg.Remote.APIBase)
	}
	if !cfg.FeatureFlags.UseSQLite {
		t.Fatal("expected sqlite flag to be honored")
	}
}

func TestLoad_BlankAPIBaseRejected(t *testing.T) {
	t.Setenv(EnvAPIBase, "   ")

	if _, err := Load(); err == nil {
		t.Fatal("expected blank API base to return an error")
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "Production"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
