// Package forest implements the tree-ensemble classifier the pipeline tunes:
// bagged CART trees with Gini splits and per-split feature subsampling,
// majority vote over trees. Training is deterministic for a given seed.
package forest

import (
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"github.com/gammazero/workerpool"
)

type Config struct {
	Trees int
	// FeaturesPerSplit defaults to the square root of the feature count.
	FeaturesPerSplit int
	// MinLeafSize defaults to 1.
	MinLeafSize int
	Seed        int64
}

type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	class     int
}

func (n *node) leaf() bool {
	return n.left == nil
}

type Forest struct {
	trees      []*node
	numClasses int
}

// Train fits the ensemble on parallel workers. Each tree draws a bootstrap
// sample of the data with its own seeded generator, so results do not depend
// on worker scheduling.
func Train(vectors [][]float64, classes []int, numClasses int, cfg Config) (*Forest, error) {
	if len(vectors) == 0 {
		return nil, errors.New("no training vectors given")
	}
	if len(vectors) != len(classes) {
		return nil, errors.New("vectors and classes length mismatch")
	}
	if cfg.Trees <= 0 {
		return nil, errors.New("tree count must be positive")
	}

	numFeatures := len(vectors[0])
	featuresPerSplit := cfg.FeaturesPerSplit
	if featuresPerSplit <= 0 {
		featuresPerSplit = int(math.Sqrt(float64(numFeatures)))
		if featuresPerSplit < 1 {
			featuresPerSplit = 1
		}
	}
	minLeaf := cfg.MinLeafSize
	if minLeaf < 1 {
		minLeaf = 1
	}

	trees := make([]*node, cfg.Trees)
	wp := workerpool.New(runtime.NumCPU())
	for i := 0; i < cfg.Trees; i++ {
		treeIndex := i
		wp.Submit(func() {
			rng := rand.New(rand.NewSource(cfg.Seed + int64(treeIndex)))
			indices := make([]int, len(vectors))
			for j := range indices {
				indices[j] = rng.Intn(len(vectors))
			}
			builder := &treeBuilder{
				vectors:          vectors,
				classes:          classes,
				numClasses:       numClasses,
				featuresPerSplit: featuresPerSplit,
				minLeaf:          minLeaf,
				rng:              rng,
			}
			trees[treeIndex] = builder.build(indices)
		})
	}
	wp.StopWait()

	return &Forest{trees: trees, numClasses: numClasses}, nil
}

// Classify votes the trees on one feature vector. Ties go to the lowest
// class code.
func (f *Forest) Classify(features []float64) int {
	votes := make([]int, f.numClasses)
	for _, tree := range f.trees {
		votes[classify(tree, features)]++
	}
	best := 0
	for class, count := range votes {
		if count > votes[best] {
			best = class
		}
	}
	return best
}

func (f *Forest) Trees() int {
	return len(f.trees)
}

func classify(n *node, features []float64) int {
	for !n.leaf() {
		if features[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.class
}

type treeBuilder struct {
	vectors          [][]float64
	classes          []int
	numClasses       int
	featuresPerSplit int
	minLeaf          int
	rng              *rand.Rand
}

func (b *treeBuilder) build(indices []int) *node {
	counts := make([]int, b.numClasses)
	for _, idx := range indices {
		counts[b.classes[idx]]++
	}
	if pure(counts) || len(indices) < 2*b.minLeaf {
		return &node{class: majority(counts)}
	}

	feature, threshold, ok := b.bestSplit(indices, counts)
	if !ok {
		return &node{class: majority(counts)}
	}

	var left, right []int
	for _, idx := range indices {
		if b.vectors[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &node{class: majority(counts)}
	}
	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.build(left),
		right:     b.build(right),
		class:     -1,
	}
}

// bestSplit evaluates candidate thresholds on a random feature subset and
// returns the split with the lowest weighted Gini impurity.
func (b *treeBuilder) bestSplit(indices []int, counts []int) (int, float64, bool) {
	parentGini := gini(counts, len(indices))

	bestGini := parentGini
	bestFeature := -1
	bestThreshold := 0.0
	found := false

	for _, feature := range b.sampleFeatures() {
		sorted := make([]int, len(indices))
		copy(sorted, indices)
		sort.Slice(sorted, func(i, j int) bool {
			return b.vectors[sorted[i]][feature] < b.vectors[sorted[j]][feature]
		})

		leftCounts := make([]int, b.numClasses)
		rightCounts := make([]int, b.numClasses)
		copy(rightCounts, counts)

		for i := 0; i < len(sorted)-1; i++ {
			class := b.classes[sorted[i]]
			leftCounts[class]++
			rightCounts[class]--

			current := b.vectors[sorted[i]][feature]
			next := b.vectors[sorted[i+1]][feature]
			if current == next {
				continue
			}
			leftSize := i + 1
			rightSize := len(sorted) - leftSize
			if leftSize < b.minLeaf || rightSize < b.minLeaf {
				continue
			}

			weighted := (float64(leftSize)*gini(leftCounts, leftSize) +
				float64(rightSize)*gini(rightCounts, rightSize)) / float64(len(sorted))
			if weighted < bestGini {
				bestGini = weighted
				bestFeature = feature
				bestThreshold = (current + next) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func (b *treeBuilder) sampleFeatures() []int {
	numFeatures := len(b.vectors[0])
	perm := b.rng.Perm(numFeatures)
	if b.featuresPerSplit >= numFeatures {
		return perm
	}
	return perm[:b.featuresPerSplit]
}

func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, count := range counts {
		p := float64(count) / float64(total)
		impurity -= p * p
	}
	return impurity
}

func pure(counts []int) bool {
	seen := 0
	for _, count := range counts {
		if count > 0 {
			seen++
		}
	}
	return seen <= 1
}

func majority(counts []int) int {
	best := 0
	for class, count := range counts {
		if count > counts[best] {
			best = class
		}
	}
	return best
}
