package metric

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// eigenReal computes the eigendecomposition of the dim x dim row-major
// matrix a and returns the real parts of the eigenvalues and of the right
// eigenvectors. Eigenvectors are the columns of V. On a symmetric input any
// imaginary component is numeric noise, so taking real parts is safe.
func eigenReal(dim int, a []float64) (lambda []float64, V *mat.Dense) {
	var (
		eig mat.Eigen
		M   = mat.NewDense(dim, dim, append([]float64{}, a...))
	)
	if ok := eig.Factorize(M, mat.EigenRight); !ok {
		panic("eigenvalue decomposition failed")
	}
	values := eig.Values(nil)
	lambda = make([]float64, dim)
	for i, val := range values {
		lambda[i] = real(val)
	}
	ev := mat.NewCDense(dim, dim, nil)
	eig.VectorsTo(ev)
	V = mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			V.Set(i, j, real(ev.At(i, j)))
		}
	}
	return
}

// eigenRealAbs is eigenReal with the absolute value applied to each
// eigenvalue.
func eigenRealAbs(dim int, a []float64) (lambda []float64, V *mat.Dense) {
	lambda, V = eigenReal(dim, a)
	for i := range lambda {
		lambda[i] = math.Abs(lambda[i])
	}
	return
}

// recompose writes V * diag(lambda) * Vt into the row-major buffer m,
// with eigenvectors in the columns of V.
func recompose(dim int, lambda []float64, V *mat.Dense, m []float64) {
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			var sum float64
			for k := 0; k < dim; k++ {
				sum += lambda[k] * V.At(i, k) * V.At(j, k)
			}
			m[i*dim+j] = sum
		}
	}
}

// isZero reports whether every component of m is exactly zero. The zero
// matrix is the "no metric information" state and must short-circuit the
// spectral paths, so this is an exact predicate, not an epsilon test.
func isZero(m []float64) bool {
	for _, val := range m {
		if val != 0 {
			return false
		}
	}
	return true
}

func aspectRatio(lambda []float64) float64 {
	var (
		min = math.Abs(lambda[0])
		max = math.Abs(lambda[0])
	)
	for _, val := range lambda[1:] {
		a := math.Abs(val)
		if a < min {
			min = a
		}
		if a > max {
			max = a
		}
	}
	return min / max
}
