package vgpu

import "testing"

func TestPoolAllocateDeallocate(t *testing.T) {
	dir := t.TempDir()
	p, err := newPool(dir, "test", 1024)
	if err != nil {
		t.Fatalf("newPool: %v", err)
	}

	r, err := p.allocate(256)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(r.Bytes) != 256 {
		t.Fatalf("len(r.Bytes) = %d, want 256", len(r.Bytes))
	}
	if p.usedBytes() != 256 {
		t.Fatalf("usedBytes = %d, want 256", p.usedBytes())
	}

	r.Bytes[0] = 0x42
	if r.Bytes[0] != 0x42 {
		t.Fatalf("mmap region not writable")
	}

	p.deallocate(r)
	if p.usedBytes() != 0 {
		t.Fatalf("usedBytes after deallocate = %d, want 0", p.usedBytes())
	}
}

func TestPoolRejectsOverLimit(t *testing.T) {
	dir := t.TempDir()
	p, err := newPool(dir, "test", 128)
	if err != nil {
		t.Fatalf("newPool: %v", err)
	}
	if _, err := p.allocate(256); !IsKind(err, ErrKindOutOfMemory) {
		t.Fatalf("allocate over limit = %v, want OutOfMemory", err)
	}
}

func TestPoolUnboundedUsesFilesystemFree(t *testing.T) {
	dir := t.TempDir()
	p, err := newPool(dir, "test", 0)
	if err != nil {
		t.Fatalf("newPool: %v", err)
	}
	if p.totalBytes() <= 0 {
		t.Fatalf("totalBytes() = %d, want positive (derived from statfs)", p.totalBytes())
	}
}
