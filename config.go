// Package vgpu configuration constants
package vgpu

// Cache sizes for different levels (in bytes). Used when the
// cache-topology probe cannot read real values from the operating system.
const (
	DefaultL1CacheSize = 32 * 1024       // 32 KiB
	DefaultL2CacheSize = 256 * 1024      // 256 KiB
	DefaultL3CacheSize = 8 * 1024 * 1024 // 8 MiB
)

// SIMD vector sizes.
const (
	// SIMDWidth is the number of float32 lanes the vectorised GEMM
	// micro-kernel path operates on.
	SIMDWidth = 8

	// SIMDAlignment is the byte alignment preferred for SIMD-friendly
	// buffers.
	SIMDAlignment = 64
)

// Tiered allocator tuning.
const (
	// DefaultPressureThreshold is the used/limit ratio in the Fast tier
	// above which the pressure check evicts the LRU unpinned record.
	DefaultPressureThreshold = 0.8

	// PromotionThreshold is the access_count above which a record
	// resident in Medium or Slow becomes eligible for promotion to
	// Fast on its next access.
	PromotionThreshold = 10
)

// Backing-store pool defaults. Only the Medium and Slow tiers have a
// backing pool and directory; Fast-tier allocations live in plain Go
// heap memory.
const (
	// DefaultFastPoolLimit bounds how much plain heap memory the Fast
	// tier may use.
	DefaultFastPoolLimit = 16 * 1024 * 1024 * 1024 // 16 GiB

	// DefaultMediumPoolLimit bounds the Medium tier's backing pool. It
	// is an independent ceiling, not derived from the Fast-tier limit a
	// caller happens to pass to NewAllocator.
	DefaultMediumPoolLimit = 16 * 1024 * 1024 * 1024 // 16 GiB

	// DefaultSlowPoolLimit of 0 means "bounded only by free disk space".
	DefaultSlowPoolLimit = 0

	// DefaultMediumPoolDir and DefaultSlowPoolDir are the pool
	// directories named in the external interface contract.
	DefaultMediumPoolDir = "/tmp/vgpu_vram"
	DefaultSlowPoolDir   = "/tmp/vgpu_vssd"
)

// Spill executor defaults.
const (
	DefaultSpillWorkers  = 2
	DefaultSpillMaxDepth = 64

	// DefaultAsyncSpill routes demotion copies through the spill
	// executor instead of copying inline while the handle table lock is
	// released for the migration's I/O-bound steps. Promotion copies are
	// always inline.
	DefaultAsyncSpill = true
)

// Work-stealing executor defaults.
const (
	// DefaultStealAttemptsPerWorker bounds how many victim queues a
	// thief probes before giving up on one scheduling round.
	DefaultStealAttemptsPerWorker = 2
)

// GEMM autotuner candidate generation and probe parameters.
var (
	// TuneCandidatesMC, TuneCandidatesKC, TuneCandidatesNC are the
	// Cartesian-product axes the autotuner searches.
	TuneCandidatesMC = []int{128, 192, 256, 384, 512}
	TuneCandidatesKC = []int{64, 96, 128, 192, 256}
	TuneCandidatesNC = []int{2048, 4096, 8192}
)

// DefaultTileMC, DefaultTileKC, DefaultTileNC are the documented fallback
// tile triple used when no candidate survives the cache-hierarchy filter
// or the tuner has no cached configuration.
const (
	DefaultTileMC = 256
	DefaultTileKC = 128
	DefaultTileNC = 4096
)

// TuneProbeSize is N_probe, the dimension of the fixed probe problem the
// autotuner times each surviving candidate against.
const TuneProbeSize = 512

// TunerConfigFileName is the base name of the persisted tuner file,
// looked up under $HOME (or the working directory if HOME is unset).
const TunerConfigFileName = ".vgpu_tuner.json"
