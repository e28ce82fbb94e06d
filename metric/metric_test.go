package metric

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tol = 1.e-10

// rotated returns R(theta) * diag(l1, l2) * R(theta)' row-major.
func rotated(theta, l1, l2 float64) []float64 {
	var (
		c = math.Cos(theta)
		s = math.Sin(theta)
	)
	return []float64{
		l1*c*c + l2*s*s, (l1 - l2) * c * s,
		(l1 - l2) * c * s, l1*s*s + l2*c*c,
	}
}

func quadForm(d int, m, v []float64) (sum float64) {
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			sum += v[i] * m[i*d+j] * v[j]
		}
	}
	return
}

func TestEigenDecomp(t *testing.T) {
	// S1: axis-aligned 2D metric
	{
		mt := New(2, []float64{4, 0, 0, 1})
		D := make([]float64, 2)
		V := make([]float64, 4)
		mt.EigenDecomp(D, V)

		sorted := append([]float64{}, D...)
		sort.Float64s(sorted)
		assert.InDeltaSlice(t, []float64{1, 4}, sorted, tol)

		// Rows of V are the unit eigendirections up to sign
		for k := 0; k < 2; k++ {
			row := V[k*2 : k*2+2]
			if math.Abs(D[k]-4) < tol {
				assert.InDelta(t, 1, math.Abs(row[0]), tol)
				assert.InDelta(t, 0, row[1], tol)
			} else {
				assert.InDelta(t, 0, row[0], tol)
				assert.InDelta(t, 1, math.Abs(row[1]), tol)
			}
		}
	}
	// Zero matrix yields zeros without invoking the solver
	{
		mt := New(2, make([]float64, 4))
		D := []float64{-1, -1}
		V := []float64{-1, -1, -1, -1}
		mt.EigenDecomp(D, V)
		assert.Equal(t, []float64{0, 0}, D)
		assert.Equal(t, []float64{0, 0, 0, 0}, V)
	}
	// Unsupported dimension is a no-op
	{
		mt := &Tensor{}
		assert.NotPanics(t, func() {
			mt.EigenDecomp(nil, nil)
		})
	}
}

func TestEigenUndecomp(t *testing.T) {
	// Round-trip on a rotated anisotropic 2D metric
	{
		m := rotated(0.3, 9, 1)
		mt := New(2, m)
		D := make([]float64, 2)
		V := make([]float64, 4)
		mt.EigenDecomp(D, V)
		mt.EigenUndecomp(D, V)
		assert.InDeltaSlice(t, m, mt.Metric(), tol)
	}
	// S7: round-trip on an isotropic 3D metric with a repeated spectrum
	{
		m := []float64{
			2, 0, 0,
			0, 2, 0,
			0, 0, 2,
		}
		mt := New(3, m)
		D := make([]float64, 3)
		V := make([]float64, 9)
		mt.EigenDecomp(D, V)
		mt.EigenUndecomp(D, V)
		assert.InDeltaSlice(t, m, mt.Metric(), tol)
	}
	// Negative eigenvalue inputs are folded to their absolute values
	{
		mt := New(2, []float64{1, 0, 0, 1})
		mt.EigenUndecomp([]float64{-4, 1}, []float64{1, 0, 0, 1})
		assert.InDeltaSlice(t, []float64{4, 0, 0, 1}, mt.Metric(), tol)
	}
}

func TestPositiveDefiniteness(t *testing.T) {
	// S3: reflect the negative eigenvalue
	{
		m := []float64{1, 0, 0, -4}
		PositiveDefiniteness(2, m)
		assert.InDeltaSlice(t, []float64{1, 0, 0, 4}, m, tol)
	}
	// S4: zero matrix untouched
	{
		m := make([]float64, 4)
		PositiveDefiniteness(2, m)
		assert.Equal(t, []float64{0, 0, 0, 0}, m)
	}
	// Eigenvectors survive: reflect a rotated indefinite tensor and check
	// the spectrum is the absolute one in the same basis
	{
		m := rotated(0.7, 5, -2)
		want := rotated(0.7, 5, 2)
		PositiveDefiniteness(2, m)
		assert.InDeltaSlice(t, want, m, tol)
	}
	// Idempotence
	{
		m := rotated(1.1, 3, -7)
		PositiveDefiniteness(2, m)
		once := append([]float64{}, m...)
		PositiveDefiniteness(2, m)
		assert.InDeltaSlice(t, once, m, tol)
	}
	// 3D indefinite diagonal
	{
		m := []float64{
			1, 0, 0,
			0, -4, 0,
			0, 0, 9,
		}
		PositiveDefiniteness(3, m)
		assert.InDeltaSlice(t, []float64{
			1, 0, 0,
			0, 4, 0,
			0, 0, 9,
		}, m, tol)
	}
}

func TestPositiveDefinitenessIso(t *testing.T) {
	// 2D flattens both eigenvalues to the smaller magnitude
	{
		m := []float64{4, 0, 0, 1}
		PositiveDefinitenessIso(2, m)
		assert.InDeltaSlice(t, []float64{1, 0, 0, 1}, m, tol)
	}
	{
		m := rotated(0.4, 9, 4)
		PositiveDefinitenessIso(2, m)
		assert.InDeltaSlice(t, []float64{4, 0, 0, 4}, m, tol)
	}
	// Zero matrix untouched
	{
		m := make([]float64, 4)
		PositiveDefinitenessIso(2, m)
		assert.Equal(t, []float64{0, 0, 0, 0}, m)
	}
	// The 3D path matches the anisotropic variant
	{
		m := []float64{
			1, 0, 0,
			0, -4, 0,
			0, 0, 9,
		}
		want := append([]float64{}, m...)
		PositiveDefiniteness(3, want)
		PositiveDefinitenessIso(3, m)
		assert.InDeltaSlice(t, want, m, tol)
	}
}

func TestLengths(t *testing.T) {
	// S2
	{
		mt := New(2, []float64{4, 0, 0, 1})
		assert.InDelta(t, 0.5, mt.MinLength(), tol)
		assert.InDelta(t, 1.0, mt.MaxLength(), tol)
		assert.InDelta(t, math.Sqrt(2./5.), mt.AverageLength(), tol)
	}
	// Diagonal 3D metric
	{
		mt := New(3, []float64{
			4, 0, 0,
			0, 9, 0,
			0, 0, 1,
		})
		assert.InDelta(t, 1./3., mt.MinLength(), tol)
		assert.InDelta(t, 1.0, mt.MaxLength(), tol)
		assert.InDelta(t, math.Sqrt(3./14.), mt.AverageLength(), tol)
	}
	// Rotation does not change the lengths
	{
		mt := New(2, rotated(0.9, 4, 1))
		assert.InDelta(t, 0.5, mt.MinLength(), tol)
		assert.InDelta(t, 1.0, mt.MaxLength(), tol)
	}
}

func TestScale(t *testing.T) {
	mt := New(2, rotated(0.2, 4, 1))
	mt.Scale(3)
	D := make([]float64, 2)
	V := make([]float64, 4)
	mt.EigenDecomp(D, V)
	sort.Float64s(D)
	assert.InDeltaSlice(t, []float64{3, 12}, D, tol)

	// Zero preserved
	z := New(2, make([]float64, 4))
	z.Scale(5)
	assert.Equal(t, []float64{0, 0, 0, 0}, z.Metric())
}

func TestConstrain(t *testing.T) {
	// S5: intersection of two orthogonal anisotropic metrics
	{
		mt := New(2, []float64{4, 0, 0, 1})
		mt.Constrain([]float64{1, 0, 0, 4}, true)
		assert.InDeltaSlice(t, []float64{4, 0, 0, 4}, mt.Metric(), tol)
	}
	// S6: union
	{
		mt := New(2, []float64{4, 0, 0, 1})
		mt.Constrain([]float64{1, 0, 0, 4}, false)
		assert.InDeltaSlice(t, []float64{1, 0, 0, 1}, mt.Metric(), tol)
	}
	// S8: self-constrain is the identity in either mode
	{
		A := rotated(0.5, 6, 2)
		mt := New(2, A)
		mt.Constrain(A, true)
		assert.InDeltaSlice(t, A, mt.Metric(), tol)
		mt.Constrain(A, false)
		assert.InDeltaSlice(t, A, mt.Metric(), tol)
	}
	// Zero other leaves self unchanged
	{
		A := rotated(0.5, 6, 2)
		mt := New(2, A)
		mt.Constrain(make([]float64, 4), true)
		assert.Equal(t, A, mt.Metric())
	}
	// Zero self stays zero
	{
		mt := New(2, make([]float64, 4))
		mt.Constrain([]float64{4, 0, 0, 1}, true)
		assert.Equal(t, []float64{0, 0, 0, 0}, mt.Metric())
	}
	// NaN short-circuit is bit-identical
	{
		A := rotated(0.3, 4, 1)
		mt := New(2, A)
		mt.Constrain([]float64{1, math.NaN(), math.NaN(), 2}, true)
		assert.Equal(t, A, mt.Metric())
	}
	// 3D intersection of axis-aligned metrics
	{
		mt := New(3, []float64{
			4, 0, 0,
			0, 1, 0,
			0, 0, 2,
		})
		mt.Constrain([]float64{
			1, 0, 0,
			0, 9, 0,
			0, 0, 2,
		}, true)
		assert.InDeltaSlice(t, []float64{
			4, 0, 0,
			0, 9, 0,
			0, 0, 2,
		}, mt.Metric(), tol)
	}
}

func TestConstrainMonotone(t *testing.T) {
	var (
		A = rotated(0.4, 9, 1)
		B = rotated(1.3, 5, 2)
	)
	// Preserving small edges dominates both inputs in every direction;
	// preserving long edges is dominated by both.
	{
		mt := New(2, A)
		mt.Constrain(B, true)
		C := mt.Metric()
		for k := 0; k < 16; k++ {
			theta := float64(k) * math.Pi / 16
			v := []float64{math.Cos(theta), math.Sin(theta)}
			lower := math.Max(quadForm(2, A, v), quadForm(2, B, v))
			assert.GreaterOrEqual(t, quadForm(2, C, v)+tol, lower)
		}
	}
	{
		mt := New(2, A)
		mt.Constrain(B, false)
		C := mt.Metric()
		for k := 0; k < 16; k++ {
			theta := float64(k) * math.Pi / 16
			v := []float64{math.Cos(theta), math.Sin(theta)}
			upper := math.Min(quadForm(2, A, v), quadForm(2, B, v))
			assert.LessOrEqual(t, quadForm(2, C, v)-tol, upper)
		}
	}
	// Commutes when the reference choice is forced the same way
	{
		m1 := New(2, A)
		m1.Constrain(B, true)
		m2 := New(2, B)
		m2.Constrain(A, true)
		assert.InDeltaSlice(t, m1.Metric(), m2.Metric(), 1.e-8)
	}
}

func TestTensorLifecycle(t *testing.T) {
	// Dimension is locked by the first set
	{
		mt := New(2, []float64{4, 0, 0, 1})
		assert.Panics(t, func() {
			mt.SetMetric(3, make([]float64, 9))
		})
	}
	// SetMetric enforces positive definiteness, repeated same-dimension
	// sets are fine
	{
		mt := &Tensor{}
		mt.SetMetric(2, []float64{1, 0, 0, -4})
		assert.InDeltaSlice(t, []float64{1, 0, 0, 4}, mt.Metric(), tol)
		mt.SetMetric(2, []float64{2, 0, 0, 2})
		assert.InDeltaSlice(t, []float64{2, 0, 0, 2}, mt.Metric(), tol)
		assert.Equal(t, 2, mt.Dim())
	}
	// Buffer length mismatch
	{
		mt := &Tensor{}
		assert.Panics(t, func() {
			mt.Set(2, []float64{1, 2, 3})
		})
	}
	// Deep copy
	{
		mt := New(2, []float64{4, 0, 0, 1})
		cp := mt.Copy()
		cp.Scale(2)
		assert.Equal(t, []float64{4, 0, 0, 1}, mt.Metric())
		assert.Equal(t, []float64{8, 0, 0, 2}, cp.Metric())
	}
	// CopyMetric
	{
		mt := New(2, []float64{4, 0, 0, 1})
		buf := make([]float64, 4)
		mt.CopyMetric(buf)
		assert.Equal(t, []float64{4, 0, 0, 1}, buf)
	}
}

func TestString(t *testing.T) {
	mt := New(2, []float64{4, 0, 0, 1})
	assert.Equal(t, "4 0 \n0 1 \n", mt.String())
}
