package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartition(t *testing.T) {
	// Even split
	{
		p := NewPartition(4, 8)
		assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 6}, {6, 8}}, p.Buckets)
	}
	// Remainder spread over the first buckets, ranges cover [0,MaxIndex)
	// exactly once
	{
		p := NewPartition(3, 10)
		total := 0
		next := 0
		for n := 0; n < 3; n++ {
			min, max := p.Bounds(n)
			assert.Equal(t, next, min)
			assert.LessOrEqual(t, max-min, 4)
			assert.GreaterOrEqual(t, max-min, 3)
			total += max - min
			next = max
		}
		assert.Equal(t, 10, total)
	}
	// More buckets than items
	{
		p := NewPartition(4, 2)
		total := 0
		for n := 0; n < 4; n++ {
			min, max := p.Bounds(n)
			total += max - min
		}
		assert.Equal(t, 2, total)
	}
}
