package prediction

import (
	"math"
	"math/rand"
	"sort"
)

// ForestConfig holds the fit hyperparameters. A high tree count with a
// bounded depth keeps the ensemble from memorizing noisy operational data;
// the fixed seed makes fits reproducible.
type ForestConfig struct {
	Trees       int
	MaxDepth    int
	MinLeafSize int
	Seed        int64
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:       200,
		MaxDepth:    10,
		MinLeafSize: 2,
		Seed:        42,
	}
}

// Forest is a bagged ensemble of regression trees. Prediction is the mean
// of the per-tree predictions.
type Forest struct {
	trees []*treeNode
}

type treeNode struct {
	// Internal nodes route on feature <= threshold; leaves carry value.
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// FitForest trains cfg.Trees regression trees, each on a bootstrap sample
// drawn from (x, y). The RNG is seeded from cfg.Seed so two fits over the
// same data produce the same forest.
func FitForest(x [][]float64, y []float64, cfg ForestConfig) *Forest {
	rng := rand.New(rand.NewSource(cfg.Seed))
	n := len(x)

	trees := make([]*treeNode, cfg.Trees)
	for t := 0; t < cfg.Trees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		trees[t] = growTree(x, y, idx, 0, cfg)
	}
	return &Forest{trees: trees}
}

func (f *Forest) Predict(row []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees))
}

func (t *treeNode) predict(row []float64) float64 {
	node := t
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func growTree(x [][]float64, y []float64, idx []int, depth int, cfg ForestConfig) *treeNode {
	if depth >= cfg.MaxDepth || len(idx) < 2*cfg.MinLeafSize || pure(y, idx) {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	feature, threshold, ok := bestSplit(x, y, idx, cfg.MinLeafSize)
	if !ok {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      growTree(x, y, left, depth+1, cfg),
		right:     growTree(x, y, right, depth+1, cfg),
	}
}

// bestSplit scans every feature for the threshold that minimizes the summed
// squared error of the two children. Sorting plus running sums keeps each
// feature scan linear after the sort.
func bestSplit(x [][]float64, y []float64, idx []int, minLeaf int) (int, float64, bool) {
	n := len(idx)
	nFeatures := len(x[idx[0]])

	bestSSE := math.Inf(1)
	bestFeature := -1
	bestThreshold := 0.0

	order := make([]int, n)
	for f := 0; f < nFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return x[order[a]][f] < x[order[b]][f]
		})

		var totalSum, totalSq float64
		for _, i := range order {
			totalSum += y[i]
			totalSq += y[i] * y[i]
		}

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			i := order[k]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			// Only split between distinct feature values.
			if x[i][f] == x[order[k+1]][f] {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) +
				(rightSq - rightSum*rightSum/float64(nr))

			if sse < bestSSE {
				bestSSE = sse
				bestFeature = f
				bestThreshold = (x[i][f] + x[order[k+1]][f]) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func pure(y []float64, idx []int) bool {
	first := y[idx[0]]
	for _, i := range idx[1:] {
		if y[i] != first {
			return false
		}
	}
	return true
}

func meanAt(y []float64, idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}
