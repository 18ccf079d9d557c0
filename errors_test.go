package vgpu

import "testing"

func TestStructuredErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantOp   string
	}{
		{"OutOfMemory", ErrOutOfMemory, ErrKindOutOfMemory, "Allocator.Allocate"},
		{"InvalidSize", ErrInvalidSize, ErrKindInvalidArgument, "Allocator.Allocate"},
		{"SpillFailed", NewSpillFailed("pool.allocate", "boom", nil), ErrKindSpillFailed, "pool.allocate"},
		{"ProbeFailed", NewProbeFailed("probe", "timing"), ErrKindProbeFailed, "probe"},
		{"PersistenceFailed", NewPersistenceFailed("Tuner.Tune", "save", nil), ErrKindPersistenceFailed, "Tuner.Tune"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, ok := tc.err.(*Error)
			if !ok {
				t.Fatalf("expected *Error, got %T", tc.err)
			}
			if e.Kind != tc.wantKind {
				t.Errorf("Kind = %v, want %v", e.Kind, tc.wantKind)
			}
			if e.Op != tc.wantOp {
				t.Errorf("Op = %q, want %q", e.Op, tc.wantOp)
			}
			if !IsKind(tc.err, tc.wantKind) {
				t.Errorf("IsKind(%v) = false, want true", tc.wantKind)
			}
		})
	}
}

func TestUnknownHandleError(t *testing.T) {
	err := NewUnknownHandle("Allocator.Get", Handle(42))
	if !IsKind(err, ErrKindUnknownHandle) {
		t.Fatalf("expected UnknownHandle kind")
	}
	e := err.(*Error)
	if e.Context.(Handle) != 42 {
		t.Errorf("Context = %v, want handle 42", e.Context)
	}
}
