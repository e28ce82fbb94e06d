package utils

// Partition splits the index range [0,MaxIndex) into ParallelDegree
// contiguous buckets with a maximum imbalance of one item. Field sweeps run
// one goroutine per bucket so no two goroutines ever touch the same vertex.
type Partition struct {
	MaxIndex       int
	ParallelDegree int
	Buckets        [][2]int // Beginning and end index of each bucket
}

func NewPartition(parallelDegree, maxIndex int) (p *Partition) {
	p = &Partition{
		MaxIndex:       maxIndex,
		ParallelDegree: parallelDegree,
		Buckets:        make([][2]int, parallelDegree),
	}
	for n := 0; n < parallelDegree; n++ {
		p.Buckets[n] = p.split1D(n)
	}
	return
}

// Bounds returns the half-open index range of bucket n.
func (p *Partition) Bounds(n int) (min, max int) {
	min, max = p.Buckets[n][0], p.Buckets[n][1]
	return
}

func (p *Partition) split1D(bucketNum int) (bucket [2]int) {
	var (
		nPart            = p.MaxIndex / p.ParallelDegree
		startAdd, endAdd int
		remainder        = p.MaxIndex % p.ParallelDegree
	)
	if remainder != 0 { // spread the remainder over the first buckets evenly
		if bucketNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = bucketNum
			endAdd = 1
		}
	}
	bucket[0] = bucketNum*nPart + startAdd
	bucket[1] = bucket[0] + nPart + endAdd
	return
}
