package compute

// microKernel computes C[0:m, 0:n] += A[0:m, 0:k] * B[0:k, 0:n] for one
// cache-resident block, using lda/ldb/ldc as the strides of the full
// matrices the block is carved from.
//
// It dispatches to the vectorised slab path when every block dimension
// is at least simdWidth and the CPU supports it, and to the scalar triple
// loop otherwise.
func microKernel(m, n, k int, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	if hasVectorPath && m >= simdWidth && n >= simdWidth && k >= simdWidth {
		vectorKernel(m, n, k, a, lda, b, ldb, c, ldc)
		return
	}
	scalarKernel(m, n, k, a, lda, b, ldb, c, ldc)
}

const simdWidth = 8

// scalarKernel is the textbook i,k,j triple loop, ordered so the inner
// loop walks B and C row-major for sequential access.
func scalarKernel(m, n, k int, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	for i := 0; i < m; i++ {
		for kk := 0; kk < k; kk++ {
			aVal := a[i*lda+kk]
			if aVal == 0 {
				continue
			}
			bRow := b[kk*ldb : kk*ldb+n]
			cRow := c[i*ldc : i*ldc+n]
			for j := 0; j < n; j++ {
				cRow[j] += aVal * bRow[j]
			}
		}
	}
}

// vectorKernel processes N in width-8 slabs: for each row of the block it
// broadcasts one A element across a lane-width accumulator and
// FMA-accumulates the matching slab of B, mirroring the broadcast/FMA
// shape a real AVX2 kernel would use without needing assembly to express.
func vectorKernel(m, n, k int, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	full := n - n%simdWidth
	for i := 0; i < m; i++ {
		cRow := c[i*ldc : i*ldc+n]
		for j := 0; j < full; j += simdWidth {
			var acc [simdWidth]float32
			copy(acc[:], cRow[j:j+simdWidth])
			for kk := 0; kk < k; kk++ {
				aVal := a[i*lda+kk]
				bSlab := b[kk*ldb+j : kk*ldb+j+simdWidth]
				for lane := 0; lane < simdWidth; lane++ {
					acc[lane] += aVal * bSlab[lane]
				}
			}
			copy(cRow[j:j+simdWidth], acc[:])
		}
		// Remainder columns that don't fill a full slab.
		for kk := 0; kk < k; kk++ {
			aVal := a[i*lda+kk]
			for j := full; j < n; j++ {
				cRow[j] += aVal * b[kk*ldb+j]
			}
		}
	}
}
