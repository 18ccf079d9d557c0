// Package compute implements the cache-blocked GEMM micro-kernel and its
// blocked driver.
package compute

import "golang.org/x/sys/cpu"

// hasVectorPath is probed once at process start; the blocked driver reads
// it on every micro-kernel dispatch decision instead of re-probing.
var hasVectorPath = cpu.X86.HasAVX2 && cpu.X86.HasFMA

// HasVectorPath reports whether the vectorised width-8 slab micro-kernel
// path is available on this CPU.
func HasVectorPath() bool {
	return hasVectorPath
}
