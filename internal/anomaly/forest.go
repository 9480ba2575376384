// Package anomaly holds the two KPI anomaly detectors and their merger.
package anomaly

import (
	"math"

	"golang.org/x/exp/rand"
)

const (
	forestTrees     = 100
	forestSubsample = 256
)

// isolationForest is a seeded 1-D isolation forest. Outliers sit in sparse
// regions of the series and are isolated by random splits in fewer steps, so
// their expected path length is shorter and their anomaly score higher.
type isolationForest struct {
	trees      []*isoNode
	sampleSize int
}

type isoNode struct {
	split       float64
	left, right *isoNode
	size        int
}

func (n *isoNode) leaf() bool { return n.left == nil }

// newIsolationForest fits a forest over the values with a fixed seed so
// repeated runs over the same series score identically.
func newIsolationForest(values []float64, seed uint64) *isolationForest {
	rng := rand.New(rand.NewSource(seed))

	sampleSize := len(values)
	if sampleSize > forestSubsample {
		sampleSize = forestSubsample
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sampleSize)))) + 1

	f := &isolationForest{
		trees:      make([]*isoNode, 0, forestTrees),
		sampleSize: sampleSize,
	}
	for t := 0; t < forestTrees; t++ {
		sample := subsample(values, sampleSize, rng)
		f.trees = append(f.trees, buildTree(sample, 0, maxDepth, rng))
	}
	return f
}

func subsample(values []float64, n int, rng *rand.Rand) []float64 {
	if n >= len(values) {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	idx := rng.Perm(len(values))[:n]
	out := make([]float64, n)
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

func buildTree(values []float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if depth >= maxDepth || len(values) <= 1 {
		return &isoNode{size: len(values)}
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return &isoNode{size: len(values)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range values {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}

	return &isoNode{
		split: split,
		left:  buildTree(left, depth+1, maxDepth, rng),
		right: buildTree(right, depth+1, maxDepth, rng),
		size:  len(values),
	}
}

// scores returns per-point anomaly scores in (0,1]; higher is more anomalous.
func (f *isolationForest) scores(values []float64) []float64 {
	out := make([]float64, len(values))
	norm := avgPathLength(f.sampleSize)
	for i, v := range values {
		var total float64
		for _, tree := range f.trees {
			total += pathLength(tree, v, 0)
		}
		mean := total / float64(len(f.trees))
		out[i] = math.Pow(2, -mean/norm)
	}
	return out
}

func pathLength(node *isoNode, v float64, depth int) float64 {
	if node.leaf() {
		return float64(depth) + avgPathLength(node.size)
	}
	if v < node.split {
		return pathLength(node.left, v, depth+1)
	}
	return pathLength(node.right, v, depth+1)
}

// avgPathLength is c(n), the average unsuccessful-search path length of a
// binary search tree of n nodes. Used both to terminate scoring at leaves and
// to normalise scores.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	const eulerMascheroni = 0.5772156649
	harmonic := math.Log(float64(n-1)) + eulerMascheroni
	return 2*harmonic - 2*float64(n-1)/float64(n)
}
