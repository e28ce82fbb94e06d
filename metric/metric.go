package metric

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Tensor is a symmetric positive-semidefinite metric tensor attached to a
// mesh vertex. Edge lengths under the metric are sqrt(e' * M * e), so large
// eigenvalues request short edges in the corresponding eigendirection. The
// dimension is 2 or 3 and is fixed by the first Set/SetMetric call; the full
// dim x dim matrix is stored row-major.
type Tensor struct {
	dim int
	m   []float64
}

// New builds a Tensor from a raw dim*dim component buffer. Like Set, it does
// not enforce positive definiteness.
func New(dim int, m []float64) (mt *Tensor) {
	mt = &Tensor{}
	mt.Set(dim, m)
	return
}

// Set assigns dimension and components without enforcing positive
// definiteness. The first call fixes the dimension for the life of the
// tensor.
func (mt *Tensor) Set(dim int, m []float64) {
	if mt.m == nil {
		mt.dim = dim
		mt.m = make([]float64, dim*dim)
	} else if mt.dim != dim {
		panic(fmt.Errorf("metric tensor resized: dimension is %d, got %d", mt.dim, dim))
	}
	if len(m) != dim*dim {
		panic(fmt.Errorf("mismatch in allocation: dim = %d, len(m) = %d", dim, len(m)))
	}
	copy(mt.m, m)
}

// SetMetric assigns components and then enforces positive definiteness.
func (mt *Tensor) SetMetric(dim int, m []float64) {
	mt.Set(dim, m)
	PositiveDefiniteness(mt.dim, mt.m)
}

// Dim returns the tensor dimension, 0 if unset.
func (mt *Tensor) Dim() int { return mt.dim }

// Metric returns the live component buffer, row-major dim*dim.
func (mt *Tensor) Metric() []float64 { return mt.m }

// CopyMetric copies the components into the caller's buffer.
func (mt *Tensor) CopyMetric(buf []float64) {
	copy(buf, mt.m)
}

// Copy returns a deep copy.
func (mt *Tensor) Copy() (R *Tensor) {
	R = &Tensor{
		dim: mt.dim,
		m:   append([]float64{}, mt.m...),
	}
	return
}

// Scale multiplies every component by s. A positive s preserves positive
// definiteness, so no re-enforcement happens here.
func (mt *Tensor) Scale(s float64) {
	for i := range mt.m {
		mt.m[i] *= s
	}
}

// PositiveDefiniteness reflects negative eigenvalues of the row-major
// dim x dim matrix m to their absolute values in the same eigenbasis,
// in place. The zero matrix is left untouched.
func PositiveDefiniteness(dim int, m []float64) {
	if isZero(m) {
		return
	}
	lambda, V := eigenRealAbs(dim, m)
	recompose(dim, lambda, V, m)
}

// PositiveDefinitenessIso is PositiveDefiniteness with the 2D eigenvalues
// additionally flattened to the smaller of the two, producing an isotropic
// tensor sized by the tighter direction. The 3D path matches
// PositiveDefiniteness.
func PositiveDefinitenessIso(dim int, m []float64) {
	if isZero(m) {
		return
	}
	lambda, V := eigenRealAbs(dim, m)
	if dim == 2 {
		lambda[0] = math.Min(lambda[0], lambda[1])
		lambda[1] = lambda[0]
	}
	recompose(dim, lambda, V, m)
}

// EigenDecomp fills D (length dim) with the absolute real eigenvalues in the
// solver's native order and V (length dim*dim) with the corresponding
// eigenvectors as rows. A zero matrix yields all zeros without invoking the
// solver.
func (mt *Tensor) EigenDecomp(D, V []float64) {
	if mt.dim != 2 && mt.dim != 3 {
		fmt.Fprintf(os.Stderr, "ERROR: unsupported dimension: %d (must be 2 or 3)\n", mt.dim)
		return
	}
	if isZero(mt.m) {
		for i := range D[:mt.dim] {
			D[i] = 0
		}
		for i := range V[:mt.dim*mt.dim] {
			V[i] = 0
		}
		return
	}
	lambda, evec := eigenRealAbs(mt.dim, mt.m)
	for i := 0; i < mt.dim; i++ {
		D[i] = lambda[i]
		for j := 0; j < mt.dim; j++ {
			// Row i of V is eigenvector i.
			V[i*mt.dim+j] = evec.At(j, i)
		}
	}
}

// EigenUndecomp reconstructs the components from eigenvalues D and
// rows-as-eigenvectors V, the layout EigenDecomp produces. Negative entries
// of D are folded to their absolute values.
func (mt *Tensor) EigenUndecomp(D, V []float64) {
	var (
		d      = mt.dim
		lambda = make([]float64, d)
	)
	for i := 0; i < d; i++ {
		lambda[i] = math.Abs(D[i])
	}
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			var sum float64
			for k := 0; k < d; k++ {
				sum += lambda[k] * V[k*d+i] * V[k*d+j]
			}
			mt.m[i*d+j] = sum
		}
	}
}

// AverageLength is the characteristic edge length under the metric,
// sqrt(dim / sum of eigenvalues).
func (mt *Tensor) AverageLength() float64 {
	var (
		D = make([]float64, mt.dim)
		V = make([]float64, mt.dim*mt.dim)
	)
	mt.EigenDecomp(D, V)
	var sum float64
	for _, val := range D {
		sum += val
	}
	return math.Sqrt(1. / (sum / float64(mt.dim)))
}

// MaxLength is the longest edge length supported locally, 1/sqrt(min
// eigenvalue).
func (mt *Tensor) MaxLength() float64 {
	var (
		D = make([]float64, mt.dim)
		V = make([]float64, mt.dim*mt.dim)
	)
	mt.EigenDecomp(D, V)
	min := D[0]
	for _, val := range D[1:] {
		min = math.Min(min, val)
	}
	return math.Sqrt(1. / min)
}

// MinLength is the shortest edge length supported locally, 1/sqrt(max
// eigenvalue).
func (mt *Tensor) MinLength() float64 {
	var (
		D = make([]float64, mt.dim)
		V = make([]float64, mt.dim*mt.dim)
	)
	mt.EigenDecomp(D, V)
	max := D[0]
	for _, val := range D[1:] {
		max = math.Max(max, val)
	}
	return math.Sqrt(1. / max)
}

// Constrain superimposes the tensor with other. With preserveSmallEdges true
// small edge lengths are preserved: the result dominates both inputs along
// every direction, the intersection of the two metric ellipsoids. With preserveSmallEdges false
// long edges are preserved instead and the result is dominated by both
// inputs. other is a row-major dim*dim buffer.
//
// A NaN anywhere in the upper triangle of other, or a zero other (zero
// curvature in the local solution), leaves the tensor unchanged.
func (mt *Tensor) Constrain(other []float64, preserveSmallEdges bool) {
	var (
		d = mt.dim
	)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			if math.IsNaN(other[i*d+j]) {
				return
			}
		}
	}
	if isZero(other) || isZero(mt.m) {
		return
	}

	// Whiten in the space of the tensor with the largest aspect ratio
	// min|lambda|/max|lambda|: the more isotropic tensor gives the more
	// stable reduction.
	Mr, Mi := mt.m, other
	lambdaR, _ := eigenReal(d, mt.m)
	lambdaI, _ := eigenReal(d, other)
	if aspectRatio(lambdaI) > aspectRatio(lambdaR) {
		Mr, Mi = other, mt.m
	}

	// F maps the reference metric to the identity: F' * F == Mr.
	lambda, V := eigenRealAbs(d, Mr)
	F := mat.NewDense(d, d, nil)
	for i := 0; i < d; i++ {
		root := math.Sqrt(lambda[i])
		for j := 0; j < d; j++ {
			F.Set(i, j, root*V.At(j, i))
		}
	}
	Finv := mat.NewDense(d, d, nil)
	if err := Finv.Inverse(F); err != nil {
		panic(fmt.Errorf("singular whitening factor in metric constrain: %v", err))
	}

	// Push Mi forward into the whitened coordinates.
	var M mat.Dense
	M.Mul(Finv.T(), mat.NewDense(d, d, append([]float64{}, Mi...)))
	M.Mul(&M, Finv)
	// M is symmetric in exact arithmetic; drop the round-off asymmetry so
	// the general eigensolver returns real, orthogonal eigenvectors.
	for i := 0; i < d; i++ {
		for j := i + 1; j < d; j++ {
			avg := 0.5 * (M.At(i, j) + M.At(j, i))
			M.Set(i, j, avg)
			M.Set(j, i, avg)
		}
	}

	// Eigenvalue 1 is unit length under Mr. Clamping against 1 keeps
	// whichever metric is tighter (or looser) in each direction.
	mu, W := eigenRealAbs(d, M.RawMatrix().Data)
	for i := range mu {
		if preserveSmallEdges {
			mu[i] = math.Max(1., mu[i])
		} else {
			mu[i] = math.Min(1., mu[i])
		}
	}

	// Pull back: Mc = F' * W * diag(mu) * W' * F.
	clamped := make([]float64, d*d)
	recompose(d, mu, W, clamped)
	var Mc mat.Dense
	Mc.Mul(F.T(), mat.NewDense(d, d, clamped))
	Mc.Mul(&Mc, F)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			mt.m[i*d+j] = Mc.At(i, j)
		}
	}
}

// String dumps the components row by row for diagnostics.
func (mt *Tensor) String() string {
	var sb strings.Builder
	for i := 0; i < mt.dim; i++ {
		for j := 0; j < mt.dim; j++ {
			fmt.Fprintf(&sb, "%v ", mt.m[i*mt.dim+j])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
