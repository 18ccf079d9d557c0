// Package vgpu's embedded API surface: dense matrix multiplication plus
// the allocator and tuner controls external callers drive directly.
package vgpu

import (
	"sync"

	"github.com/spacewink/vgpu/compute"
)

// Matmul computes C = A*B for two contiguous, row-major dense matrices
// and returns the result. a is m x k, b is k x n; the result is m x n.
// Tile sizes are the process-wide tuner's current configuration
// (Tuner.Config): the persisted or last tuned triple if there is one,
// otherwise the default triple. Matmul never runs the probe sweep itself.
func Matmul(m, n, k int, a, b []float32) ([]float32, error) {
	if m < 0 || n < 0 || k < 0 {
		return nil, NewInvalidArgument("Matmul", "m, n, k must not be negative")
	}
	if m == 0 || n == 0 || k == 0 {
		return make([]float32, m*n), nil
	}
	if len(a) < m*k {
		return nil, NewInvalidArgument("Matmul", "a shorter than m*k")
	}
	if len(b) < k*n {
		return nil, NewInvalidArgument("Matmul", "b shorter than k*n")
	}

	cfg := GetTuner().Config()
	c := make([]float32, m*n)
	compute.Blocked(m, n, k, a, k, b, n, c, n, cfg.tiles())
	return c, nil
}

// defaultAllocator is lazily constructed on first use by Allocate et al.
// so a program that never touches the tiered allocator never creates its
// pool directories.
var (
	defaultAllocator     *Allocator
	defaultAllocatorOnce sync.Once
	defaultAllocatorErr  error
)

func defaultAlloc() (*Allocator, error) {
	defaultAllocatorOnce.Do(func() {
		defaultAllocator, defaultAllocatorErr = NewAllocator(DefaultFastPoolLimit)
	})
	return defaultAllocator, defaultAllocatorErr
}

// Allocate reserves size bytes in the given tier using the process-wide
// default allocator.
func Allocate(size int, preferred Tier) (Handle, error) {
	a, err := defaultAlloc()
	if err != nil {
		return 0, err
	}
	return a.Allocate(size, preferred)
}

// Deallocate releases a handle allocated by Allocate.
func Deallocate(h Handle) {
	if a, err := defaultAlloc(); err == nil {
		a.Deallocate(h)
	}
}

// GetBytes returns the live bytes behind a handle allocated by Allocate.
func GetBytes(h Handle) ([]byte, error) {
	a, err := defaultAlloc()
	if err != nil {
		return nil, err
	}
	return a.Get(h)
}

// Stats reports the process-wide default allocator's tier usage.
func Stats() (AllocatorStats, error) {
	a, err := defaultAlloc()
	if err != nil {
		return AllocatorStats{}, err
	}
	return a.Stats(), nil
}
