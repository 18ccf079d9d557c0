// Package vgpu implements a CPU-resident virtual GPU runtime: a
// compute-and-memory substrate for workloads that would normally target a
// discrete accelerator but must run on a host with none.
//
// Two subsystems carry the weight of the runtime. The tiered allocator
// (see Allocator) manages a three-level fast/medium/slow memory hierarchy
// with handle-indirected allocations, LRU eviction under pressure, and
// hot-data promotion. The blocked GEMM pipeline (see Matmul and package
// vgpu/compute) is a cache-blocked matrix-multiply core whose tile sizes
// are chosen by an online autotuner and cached across runs.
//
// Everything else — the cache-topology probe, the backing-store pools, the
// spill executor, and the general work-stealing executor — exists to keep
// those two subsystems fed.
package vgpu
