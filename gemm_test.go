package vgpu

import (
	"math/rand"
	"testing"
)

func TestMatmulMatchesReference(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	sizes := []struct{ m, n, k int }{
		{1, 1, 1},
		{13, 9, 21},
		{64, 64, 64},
	}

	for _, sz := range sizes {
		a := make([]float32, sz.m*sz.k)
		b := make([]float32, sz.k*sz.n)
		for i := range a {
			a[i] = r.Float32()*2 - 1
		}
		for i := range b {
			b[i] = r.Float32()*2 - 1
		}

		want := make([]float32, sz.m*sz.n)
		referenceGEMM(sz.m, sz.n, sz.k, a, sz.k, b, sz.n, want, sz.n)

		got, err := Matmul(sz.m, sz.n, sz.k, a, b)
		if err != nil {
			t.Fatalf("Matmul(%v): %v", sz, err)
		}

		for i := range want {
			diff := want[i] - got[i]
			if diff < 0 {
				diff = -diff
			}
			if diff > 1e-2 {
				t.Fatalf("size %v: mismatch at %d: want %v got %v", sz, i, want[i], got[i])
			}
		}
	}
}

func TestMatmulRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name    string
		m, n, k int
		a, b    []float32
	}{
		{"negative k", 2, 2, -1, make([]float32, 4), make([]float32, 4)},
		{"short a", 2, 2, 2, make([]float32, 2), make([]float32, 4)},
		{"short b", 2, 2, 2, make([]float32, 4), make([]float32, 2)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Matmul(tc.m, tc.n, tc.k, tc.a, tc.b)
			if !IsKind(err, ErrKindInvalidArgument) {
				t.Fatalf("got %v, want InvalidArgument", err)
			}
		})
	}
}

func TestMatmulZeroSizedIsNoopNotError(t *testing.T) {
	cases := []struct {
		name    string
		m, n, k int
	}{
		{"zero m", 0, 2, 2},
		{"zero n", 2, 0, 2},
		{"zero k", 2, 2, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Matmul(tc.m, tc.n, tc.k, make([]float32, tc.m*tc.k), make([]float32, tc.k*tc.n))
			if err != nil {
				t.Fatalf("Matmul: %v", err)
			}
			if len(got) != tc.m*tc.n {
				t.Fatalf("len(got) = %d, want %d", len(got), tc.m*tc.n)
			}
		})
	}
}
