package vgpu

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spacewink/vgpu/compute"
)

// TunerConfig is the persisted tile-size triple.
type TunerConfig struct {
	MC int `json:"MC"`
	KC int `json:"KC"`
	NC int `json:"NC"`
}

func (c TunerConfig) tiles() compute.TileSizes {
	return compute.TileSizes{MC: c.MC, KC: c.KC, NC: c.NC}
}

// Tuner searches the MC/KC/NC candidate space for the configuration that
// maximizes measured GFLOPS on a fixed-size probe problem, and persists
// the winner so later processes skip the search.
type Tuner struct {
	mu           sync.Mutex
	hasCached    bool
	cachedConfig TunerConfig
}

var (
	tunerOnce sync.Once
	tunerInst *Tuner
)

// GetTuner returns the process-wide tuner singleton, loading any
// previously persisted configuration on first use.
func GetTuner() *Tuner {
	tunerOnce.Do(func() {
		tunerInst = &Tuner{}
		if cfg, ok := loadTunerConfig(); ok {
			tunerInst.cachedConfig = cfg
			tunerInst.hasCached = true
		}
	})
	return tunerInst
}

// Tune returns the best known tile configuration, running the probe
// sweep if force is set or no cached configuration exists yet.
func (t *Tuner) Tune(force bool) (TunerConfig, error) {
	t.mu.Lock()
	if t.hasCached && !force {
		cfg := t.cachedConfig
		t.mu.Unlock()
		return cfg, nil
	}
	t.mu.Unlock()

	best, err := runTuningSweep()
	if err != nil {
		return TunerConfig{}, err
	}

	t.mu.Lock()
	t.cachedConfig = best
	t.hasCached = true
	t.mu.Unlock()

	if err := saveTunerConfig(best); err != nil {
		return best, NewPersistenceFailed("Tuner.Tune", "save tuner config", err)
	}
	return best, nil
}

// Config returns the current configuration without running a new sweep,
// falling back to the documented default tile triple.
func (t *Tuner) Config() TunerConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hasCached {
		return t.cachedConfig
	}
	return TunerConfig{MC: DefaultTileMC, KC: DefaultTileKC, NC: DefaultTileNC}
}

// Reset discards the cached configuration and removes the persisted file.
func (t *Tuner) Reset() error {
	t.mu.Lock()
	t.hasCached = false
	t.mu.Unlock()

	path, err := tunerConfigPath()
	if err != nil {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return NewPersistenceFailed("Tuner.Reset", "remove tuner config", err)
	}
	return nil
}

// CacheSizesReport exposes the probed cache topology for the CLI and
// test harness.
func (t *Tuner) CacheSizesReport() CacheSizes {
	return ProbeTopology().Cache
}

func tunerConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return TunerConfigFileName, nil
	}
	return filepath.Join(home, TunerConfigFileName), nil
}

func loadTunerConfig() (TunerConfig, bool) {
	path, err := tunerConfigPath()
	if err != nil {
		return TunerConfig{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return TunerConfig{}, false
	}
	var cfg TunerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return TunerConfig{}, false
	}
	if cfg.MC <= 0 || cfg.KC <= 0 || cfg.NC <= 0 {
		return TunerConfig{}, false
	}
	return cfg, true
}

// saveTunerConfig writes the config atomically: write to a temp file in
// the same directory, then rename over the destination, so a reader never
// observes a half-written file.
func saveTunerConfig(cfg TunerConfig) error {
	path, err := tunerConfigPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// candidateSpace generates the Cartesian product of the MC/KC/NC axes,
// keeping only triples that fit the cache hierarchy: A's MC x KC block
// under L2, a KC x KC working set under L1, and B's KC x NC panel under
// L3.
func candidateSpace(cache CacheSizes) []TunerConfig {
	const floatSize = 4
	var candidates []TunerConfig
	for _, mc := range TuneCandidatesMC {
		for _, kc := range TuneCandidatesKC {
			for _, nc := range TuneCandidatesNC {
				aBlock := mc * kc * floatSize
				workingSet := kc * kc * floatSize
				bBlock := kc * nc * floatSize
				if aBlock < cache.L2 && workingSet < cache.L1 && bBlock < cache.L3 {
					candidates = append(candidates, TunerConfig{MC: mc, KC: kc, NC: nc})
				}
			}
		}
	}
	return candidates
}

func runTuningSweep() (TunerConfig, error) {
	cache := ProbeTopology().Cache
	candidates := candidateSpace(cache)
	if len(candidates) == 0 {
		return TunerConfig{MC: DefaultTileMC, KC: DefaultTileKC, NC: DefaultTileNC}, nil
	}

	best := candidates[0]
	bestGFLOPS := 0.0
	for _, cfg := range candidates {
		gflops, err := probeTileConfig(cfg, TuneProbeSize)
		if err != nil {
			continue
		}
		if gflops > bestGFLOPS {
			bestGFLOPS = gflops
			best = cfg
		}
	}
	return best, nil
}

// probeTileConfig times one warm-up plus one timed run of the blocked
// GEMM driver at the fixed probe size and returns the achieved GFLOPS.
func probeTileConfig(cfg TunerConfig, size int) (float64, error) {
	a := randomMatrix(size * size)
	b := randomMatrix(size * size)
	c := make([]float32, size*size)

	compute.Blocked(size, size, size, a, size, b, size, c, size, cfg.tiles())

	start := time.Now()
	compute.Blocked(size, size, size, a, size, b, size, c, size, cfg.tiles())
	elapsed := time.Since(start).Seconds()

	if elapsed <= 0 {
		return 0, NewProbeFailed("probeTileConfig", fmt.Sprintf("implausible timing for MC=%d KC=%d NC=%d", cfg.MC, cfg.KC, cfg.NC))
	}

	flops := 2.0 * float64(size) * float64(size) * float64(size)
	return flops / elapsed / 1e9, nil
}

func randomMatrix(n int) []float32 {
	m := make([]float32, n)
	for i := range m {
		m[i] = rand.Float32()
	}
	return m
}
