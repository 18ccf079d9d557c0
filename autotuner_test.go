package vgpu

import (
	"os"
	"path/filepath"
	"testing"
)

func withTempHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := os.Getenv("HOME")
	os.Setenv("HOME", dir)
	t.Cleanup(func() { os.Setenv("HOME", old) })
	return dir
}

func TestCandidateSpaceRespectsCacheHierarchy(t *testing.T) {
	cache := CacheSizes{L1: 32 * 1024, L2: 256 * 1024, L3: 8 * 1024 * 1024}
	candidates := candidateSpace(cache)
	if len(candidates) == 0 {
		t.Fatalf("expected at least one candidate to survive the filter")
	}
	for _, c := range candidates {
		if c.MC*c.KC*4 >= cache.L2 {
			t.Errorf("candidate %+v: MC*KC block does not fit L2", c)
		}
		if c.KC*c.KC*4 >= cache.L1 {
			t.Errorf("candidate %+v: KC*KC working set does not fit L1", c)
		}
		if c.KC*c.NC*4 >= cache.L3 {
			t.Errorf("candidate %+v: KC*NC block does not fit L3", c)
		}
	}
}

func TestTuneAndPersistRoundTrip(t *testing.T) {
	withTempHome(t)

	tuner := &Tuner{}
	cfg, err := tuner.Tune(true)
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if cfg.MC <= 0 || cfg.KC <= 0 || cfg.NC <= 0 {
		t.Fatalf("Tune returned invalid config: %+v", cfg)
	}

	loaded, ok := loadTunerConfig()
	if !ok {
		t.Fatalf("expected persisted config to load")
	}
	if loaded != cfg {
		t.Fatalf("loaded %+v, want %+v", loaded, cfg)
	}
}

func TestTunerResetRemovesFile(t *testing.T) {
	home := withTempHome(t)
	tuner := &Tuner{}
	if _, err := tuner.Tune(true); err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if err := tuner.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, TunerConfigFileName)); !os.IsNotExist(err) {
		t.Fatalf("expected tuner config file removed, stat err = %v", err)
	}
	if tuner.hasCached {
		t.Fatalf("expected hasCached = false after Reset")
	}
}

func TestConfigFallsBackToDefaultWhenUncached(t *testing.T) {
	tuner := &Tuner{}
	cfg := tuner.Config()
	if cfg.MC != DefaultTileMC || cfg.KC != DefaultTileKC || cfg.NC != DefaultTileNC {
		t.Fatalf("Config() = %+v, want default tile triple", cfg)
	}
}
