package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoxGrid(t *testing.T) {
	// 2D: gridN^2 vertices, 2*gridN*(gridN-1) axis edges
	{
		coords, edges := boxGrid(2, 3)
		assert.Equal(t, 9, len(coords)/2)
		assert.Equal(t, 12, len(edges))
		// Corners of the unit box
		assert.Equal(t, []float64{0, 0}, coords[:2])
		assert.Equal(t, []float64{1, 1}, coords[len(coords)-2:])
	}
	// 3D: gridN^3 vertices, 3*gridN^2*(gridN-1) axis edges
	{
		coords, edges := boxGrid(3, 2)
		assert.Equal(t, 8, len(coords)/3)
		assert.Equal(t, 12, len(edges))
	}
}

func TestShockMetric(t *testing.T) {
	// The 3D Hessian carries no curvature in z
	upper := make([]float64, 6)
	shockMetric(3, []float64{0.3, 0.7, 0.5}, upper)
	assert.Equal(t, 0., upper[2])
	assert.Equal(t, 0., upper[4])
	assert.Equal(t, 0., upper[5])

	// The 2D restriction matches the xy block
	upper2 := make([]float64, 3)
	shockMetric(2, []float64{0.3, 0.7}, upper2)
	assert.Equal(t, upper[0], upper2[0])
	assert.Equal(t, upper[1], upper2[1])
	assert.Equal(t, upper[3], upper2[2])
}
