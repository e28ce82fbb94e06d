package field

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"

	"github.com/anisomesh/adapt/utils"
)

// Graph is the edge connectivity of a mesh vertex set, stored as a sparse
// upper-triangular adjacency: one nonzero per edge (i,j) with i < j. Built
// as DOK for random insertion, converted to CSR for iteration.
type Graph struct {
	NVerts int
	adj    *sparse.CSR
	nEdges int
}

// NewGraph builds the adjacency from an edge list. Duplicate and reversed
// edges collapse onto the same entry.
func NewGraph(nVerts int, edges [][2]int) (g *Graph) {
	dok := sparse.NewDOK(nVerts, nVerts)
	for _, e := range edges {
		i, j := e[0], e[1]
		if i > j {
			i, j = j, i
		}
		if i == j || i < 0 || j >= nVerts {
			panic(fmt.Errorf("illegal edge: (%d,%d) with %d vertices", e[0], e[1], nVerts))
		}
		dok.Set(i, j, 1)
	}
	g = &Graph{
		NVerts: nVerts,
		adj:    dok.ToCSR(),
		nEdges: dok.NNZ(),
	}
	return
}

// NEdges returns the number of distinct edges.
func (g *Graph) NEdges() int { return g.nEdges }

// Edges visits every edge (i,j), i < j, once.
func (g *Graph) Edges(visit func(i, j int)) {
	g.adj.DoNonZero(func(i, j int, v float64) {
		visit(i, j)
	})
}

// EdgeLengths computes the metric length of every edge of g under the
// field: sqrt(e' * M * e) with e the coordinate vector of the edge and M
// the average of the endpoint tensors. coords is row-major nVerts*dim.
// Edges touching a zero tensor, or whose squared coordinate length is below
// the node tolerance, report their metric-free status as zero length.
func (f *Field) EdgeLengths(g *Graph, coords []float64) (lengths []float64) {
	var (
		d = f.Dim
	)
	if len(coords) != g.NVerts*d {
		panic(fmt.Errorf("mismatch in allocation: %d vertices in dimension %d, len(coords) = %d",
			g.NVerts, d, len(coords)))
	}
	lengths = make([]float64, 0, g.NEdges())
	e := make([]float64, d)
	avg := make([]float64, d*d)
	g.Edges(func(i, j int) {
		var coordLen float64
		for a := 0; a < d; a++ {
			e[a] = coords[j*d+a] - coords[i*d+a]
			coordLen += e[a] * e[a]
		}
		mi, mj := f.Metric(i), f.Metric(j)
		if coordLen < utils.NODETOL || isZero(mi) || isZero(mj) {
			lengths = append(lengths, 0)
			return
		}
		for n := range avg {
			avg[n] = 0.5 * (mi[n] + mj[n])
		}
		var sum float64
		for a := 0; a < d; a++ {
			for b := 0; b < d; b++ {
				sum += e[a] * avg[a*d+b] * e[b]
			}
		}
		lengths = append(lengths, math.Sqrt(sum))
	})
	return
}

// LengthStats summarises the metric edge lengths of g under the field.
// Zero-length (metric-free) edges are excluded.
func (f *Field) LengthStats(g *Graph, coords []float64) (min, max, mean float64) {
	var (
		count int
		sum   float64
	)
	min = math.Inf(1)
	for _, l := range f.EdgeLengths(g, coords) {
		if l == 0 {
			continue
		}
		min = math.Min(min, l)
		max = math.Max(max, l)
		sum += l
		count++
	}
	if count == 0 {
		min = 0
		return
	}
	mean = sum / float64(count)
	return
}
