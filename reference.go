// Package vgpu reference implementations for verification
package vgpu

// referenceGEMM computes C = A*B with the textbook i,j,l triple loop. It is
// deliberately unoptimized and exists only so the blocked, vectorised path
// in package vgpu/compute can be checked against it in tests.
//
// a is m x k row-major with stride lda, b is k x n row-major with stride
// ldb, c is m x n row-major with stride ldc. c is overwritten, not
// accumulated into.
func referenceGEMM(m, n, k int, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float32
			for l := 0; l < k; l++ {
				sum += a[i*lda+l] * b[l*ldb+j]
			}
			c[i*ldc+j] = sum
		}
	}
}
