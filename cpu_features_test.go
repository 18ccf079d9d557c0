package vgpu

import "testing"

func TestCPUInfoNeverEmpty(t *testing.T) {
	if s := CPUInfo(); s == "" {
		t.Fatalf("CPUInfo() returned empty string")
	}
}

func TestHasVectorPathConsistentWithFMA(t *testing.T) {
	if HasVectorPath() && !(features.HasAVX2 && features.HasFMA) {
		t.Fatalf("HasVectorPath() true but underlying features disagree")
	}
}
