package compute

// TileSizes is the MC/KC/NC triple the blocked driver is parameterized
// by. MC bounds the M-panel kept in L2, KC bounds the shared K-panel kept
// in L1, NC bounds the N-panel kept in L3.
type TileSizes struct {
	MC, KC, NC int
}

// DefaultTileSizes is the documented conservative fallback triple. It
// holds the same values as the root package's DefaultTileMC/KC/NC; Blocked
// does not read it, and callers pass their tile sizes explicitly.
var DefaultTileSizes = TileSizes{MC: 256, KC: 128, NC: 4096}

// Blocked computes C = A*B for M x K by K x N dense row-major matrices,
// overwriting C. a has stride lda, b has stride ldb, c has stride ldc.
//
// The loop nesting is fixed as j (N-panel, stride NC) outside p (K-panel,
// stride KC) outside i (M-panel, stride MC): B's column panel and A's
// K-panel are reused across the innermost M loop, which is what makes
// the blocking effective against the cache sizes tiles.MC/KC/NC were
// chosen for.
func Blocked(m, n, k int, a []float32, lda int, b []float32, ldb int, c []float32, ldc int, tiles TileSizes) {
	for i := range c[:m*ldc] {
		c[i] = 0
	}

	for j := 0; j < n; j += tiles.NC {
		jb := min(tiles.NC, n-j)
		for p := 0; p < k; p += tiles.KC {
			pb := min(tiles.KC, k-p)
			for i := 0; i < m; i += tiles.MC {
				ib := min(tiles.MC, m-i)
				microKernel(
					ib, jb, pb,
					a[i*lda+p:], lda,
					b[p*ldb+j:], ldb,
					c[i*ldc+j:], ldc,
				)
			}
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
