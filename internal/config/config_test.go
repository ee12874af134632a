package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Addr != ":8000" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("cache ttl = %v", cfg.CacheTTL)
	}
	if cfg.MaxWorkers != 1 {
		t.Errorf("max workers = %d", cfg.MaxWorkers)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MAX_WORKERS", "8")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("PARALLEL_WORKERS", "0")

	cfg := FromEnv()
	if cfg.MaxWorkers != 8 {
		t.Errorf("max workers = %d, want 8", cfg.MaxWorkers)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("cache ttl = %v, want 1m", cfg.CacheTTL)
	}
	// Clamped to at least one.
	if cfg.ParallelWorkers != 1 {
		t.Errorf("parallel workers = %d, want 1", cfg.ParallelWorkers)
	}
}

func TestLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	content := `
epoch_duration: 0.25
null_class: bckg
guard_width: 0.01
label_map:
  SEIZ: seiz
  BCKG: bckg
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadParams(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.EpochDuration != 0.25 || p.NullClass != "bckg" || p.GuardWidth != 0.01 {
		t.Errorf("params = %+v", p)
	}
	if p.Canon("SEIZ") != "seiz" {
		t.Errorf("label map not loaded: %v", p.LabelMap)
	}
	if p.Canon("unmapped") != "unmapped" {
		t.Error("unmapped labels must pass through")
	}
}

func TestLoadParamsMissingFileKeepsDefaults(t *testing.T) {
	p, err := LoadParams(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
	if p.EpochDuration != 1.0 || p.NullClass != "null" {
		t.Errorf("defaults lost: %+v", p)
	}
}

func TestParamStoreSwap(t *testing.T) {
	p := NewParamStore(algo.DefaultParams())
	if p.Get().EpochDuration != 1.0 {
		t.Errorf("initial = %+v", p.Get())
	}
	next := p.Get()
	next.EpochDuration = 2.0
	p.Set(next)
	if p.Get().EpochDuration != 2.0 {
		t.Errorf("after set = %+v", p.Get())
	}
}
