package vgpu

import (
	"golang.org/x/sys/cpu"
)

// cpuFeatureSet tracks the CPU instruction-set extensions this process cares
// about for dispatching the GEMM micro-kernel.
type cpuFeatureSet struct {
	HasAVX  bool
	HasAVX2 bool
	HasFMA  bool
	HasSSE4 bool
}

// features is detected once at process start and never re-probed; the
// micro-kernel dispatch decision is a single branch on a frozen value
// rather than a per-call syscall or cpuid.
var features cpuFeatureSet

func init() {
	detectCPUFeatures()
}

func detectCPUFeatures() {
	features = cpuFeatureSet{
		HasSSE4: cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:  cpu.X86.HasAVX,
		HasAVX2: cpu.X86.HasAVX2,
		HasFMA:  cpu.X86.HasFMA,
	}
}

// HasVectorPath reports whether the runtime should dispatch the GEMM
// micro-kernel's width-8 slab path instead of falling back to the scalar
// triple loop.
func HasVectorPath() bool {
	return features.HasAVX2 && features.HasFMA
}

// CPUInfo returns a human-readable summary of the detected CPU features,
// used by cmd/vgputool's config report.
func CPUInfo() string {
	var detected []string
	if features.HasSSE4 {
		detected = append(detected, "SSE4")
	}
	if features.HasAVX {
		detected = append(detected, "AVX")
	}
	if features.HasAVX2 {
		detected = append(detected, "AVX2")
	}
	if features.HasFMA {
		detected = append(detected, "FMA")
	}
	if len(detected) == 0 {
		return "no SIMD extensions detected"
	}
	result := "CPU features:"
	for _, f := range detected {
		result += " " + f
	}
	return result
}
