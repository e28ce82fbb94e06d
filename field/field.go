package field

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/anisomesh/adapt/metric"
	"github.com/anisomesh/adapt/utils"
)

// Field holds one metric tensor per mesh vertex. Per-vertex setters take the
// upper triangle of the symmetric tensor, the layout solution-derived
// Hessian metrics arrive in: 3 components for 2D (m00 m01 m11), 6 for 3D
// (m00 m01 m02 m11 m12 m22).
//
// Field-wide sweeps run in parallel over disjoint vertex ranges; individual
// tensors are not safe for concurrent mutation.
type Field struct {
	Dim     int
	Tensors []metric.Tensor
	NP      int // parallel degree for field sweeps
}

func New(dim, nVerts int) (f *Field) {
	if dim != 2 && dim != 3 {
		panic(fmt.Errorf("unsupported dimension: %d (must be 2 or 3)", dim))
	}
	f = &Field{
		Dim:     dim,
		Tensors: make([]metric.Tensor, nVerts),
		NP:      runtime.NumCPU(),
	}
	return
}

// NVerts returns the number of vertices in the field.
func (f *Field) NVerts() int { return len(f.Tensors) }

// expand builds the full row-major dim*dim matrix from the upper triangle.
func (f *Field) expand(upper []float64) (m []float64) {
	var (
		d = f.Dim
	)
	if len(upper) != d*(d+1)/2 {
		panic(fmt.Errorf("mismatch in allocation: dim = %d wants %d upper-triangle components, got %d",
			d, d*(d+1)/2, len(upper)))
	}
	m = make([]float64, d*d)
	n := 0
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			m[i*d+j] = upper[n]
			m[j*d+i] = upper[n]
			n++
		}
	}
	return
}

// SetMetric assigns the tensor at vertex i from upper-triangle components,
// enforcing positive definiteness.
func (f *Field) SetMetric(i int, upper []float64) {
	f.Tensors[i].SetMetric(f.Dim, f.expand(upper))
}

// UpdateMetric superimposes the tensor at vertex i with a new one, keeping
// the tighter of the two in every direction. An unset vertex just takes the
// new tensor.
func (f *Field) UpdateMetric(i int, upper []float64) {
	if f.Tensors[i].Dim() == 0 {
		f.SetMetric(i, upper)
		return
	}
	m := f.expand(upper)
	metric.PositiveDefiniteness(f.Dim, m)
	f.Tensors[i].Constrain(m, true)
}

// Metric returns the full dim*dim components at vertex i.
func (f *Field) Metric(i int) []float64 {
	return f.Tensors[i].Metric()
}

// Scale multiplies every tensor by s. Scaling the metric by 1/eta^2
// multiplies the target edge lengths by eta.
func (f *Field) Scale(s float64) {
	f.forEach(func(i int) {
		f.Tensors[i].Scale(s)
	})
}

// ConstrainAll superimposes every tensor with the given upper-triangle
// tensor, typically a uniform geometry metric bounding the mesh resolution.
func (f *Field) ConstrainAll(upper []float64, preserveSmallEdges bool) {
	m := f.expand(upper)
	f.forEach(func(i int) {
		if f.Tensors[i].Dim() != 0 {
			f.Tensors[i].Constrain(m, preserveSmallEdges)
		}
	})
}

// ApplyEdgeLengthBounds clamps the spectrum of every tensor so local edge
// lengths stay within [lMin, lMax]. Zero tensors carry no metric
// information and are left alone.
func (f *Field) ApplyEdgeLengthBounds(lMin, lMax float64) {
	var (
		d     = f.Dim
		evMin = 1. / (lMax * lMax)
		evMax = 1. / (lMin * lMin)
	)
	f.forEach(func(i int) {
		mt := &f.Tensors[i]
		if mt.Dim() == 0 || isZero(mt.Metric()) {
			return
		}
		D := make([]float64, d)
		V := make([]float64, d*d)
		mt.EigenDecomp(D, V)
		for k := 0; k < d; k++ {
			D[k] = math.Min(math.Max(D[k], evMin), evMax)
		}
		mt.EigenUndecomp(D, V)
	})
}

// ApplyMaxAspectRatio raises the small eigenvalues of every tensor so the
// ratio of largest to smallest eigenvalue never exceeds r*r, capping the
// anisotropy at r.
func (f *Field) ApplyMaxAspectRatio(r float64) {
	var (
		d = f.Dim
	)
	f.forEach(func(i int) {
		mt := &f.Tensors[i]
		if mt.Dim() == 0 || isZero(mt.Metric()) {
			return
		}
		D := make([]float64, d)
		V := make([]float64, d*d)
		mt.EigenDecomp(D, V)
		max := D[0]
		for _, val := range D[1:] {
			max = math.Max(max, val)
		}
		floor := max / (r * r)
		for k := 0; k < d; k++ {
			D[k] = math.Max(D[k], floor)
		}
		mt.EigenUndecomp(D, V)
	})
}

func (f *Field) forEach(op func(i int)) {
	var (
		np = f.NP
		wg sync.WaitGroup
	)
	if np < 1 {
		np = 1
	}
	if np > len(f.Tensors) {
		np = len(f.Tensors)
	}
	if np <= 1 {
		for i := range f.Tensors {
			op(i)
		}
		return
	}
	pm := utils.NewPartition(np, len(f.Tensors))
	for n := 0; n < np; n++ {
		min, max := pm.Bounds(n)
		wg.Add(1)
		go func(min, max int) {
			defer wg.Done()
			for i := min; i < max; i++ {
				op(i)
			}
		}(min, max)
	}
	wg.Wait()
}

func isZero(m []float64) bool {
	for _, val := range m {
		if val != 0 {
			return false
		}
	}
	return true
}
