// Package model trains and evaluates the claim classifier: a seeded random
// forest of CART trees, stratified splitting, metrics and artifact I/O.
package model

import (
	"errors"
	"math"
	"math/rand"
	"sync"
)

// Forest is a random forest classifier. Predictions average the leaf
// distributions of all trees.
type Forest struct {
	NEstimators int
	MaxDepth    int
	MaxFeatures int // 0 => floor(sqrt(p))
	Bootstrap   bool
	Seed        int64

	Classes  []int
	Trees    []*Tree
	Features int
}

// ForestOption configures a Forest.
type ForestOption func(*Forest)

func WithEstimators(n int) ForestOption  { return func(f *Forest) { f.NEstimators = n } }
func WithMaxDepth(d int) ForestOption    { return func(f *Forest) { f.MaxDepth = d } }
func WithMaxFeatures(k int) ForestOption { return func(f *Forest) { f.MaxFeatures = k } }
func WithBootstrap(b bool) ForestOption  { return func(f *Forest) { f.Bootstrap = b } }
func WithSeed(seed int64) ForestOption   { return func(f *Forest) { f.Seed = seed } }

// NewForest returns a forest of 100 bootstrapped trees seeded with 42.
func NewForest(opts ...ForestOption) *Forest {
	f := &Forest{NEstimators: 100, Bootstrap: true, Seed: 42}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fit trains every tree concurrently. Each tree draws its bootstrap sample and
// feature subsets from its own source seeded with Seed+index, so results do
// not depend on scheduling.
func (f *Forest) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("forest: empty X")
	}
	if len(y) != len(X) {
		return errors.New("forest: X and y length mismatch")
	}
	if f.NEstimators < 1 {
		return errors.New("forest: need at least one tree")
	}
	n, p := len(X), len(X[0])
	f.Features = p
	f.Classes = uniqueClasses(y)
	maxFeatures := f.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(p)))))
	}

	f.Trees = make([]*Tree, f.NEstimators)
	errs := make([]error, f.NEstimators)
	var wg sync.WaitGroup
	for i := 0; i < f.NEstimators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seed := f.Seed + int64(i)
			rnd := rand.New(rand.NewSource(seed))
			idx := make([]int, n)
			for j := range idx {
				if f.Bootstrap {
					idx[j] = rnd.Intn(n)
				} else {
					idx[j] = j
				}
			}
			tree := NewTree(WithTreeMaxDepth(f.MaxDepth), WithTreeMaxFeatures(maxFeatures), WithTreeSeed(seed))
			tree.Classes = f.Classes
			if err := tree.Fit(X, y, idx); err != nil {
				errs[i] = err
				return
			}
			f.Trees[i] = tree
		}(i)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// PredictProba returns the averaged class distribution per row, aligned with
// f.Classes.
func (f *Forest) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range out {
		out[i] = make([]float64, len(f.Classes))
	}
	for _, t := range f.Trees {
		for i, pr := range t.PredictProba(X) {
			for c, v := range pr {
				out[i][c] += v
			}
		}
	}
	if len(f.Trees) > 0 {
		for i := range out {
			for c := range out[i] {
				out[i][c] /= float64(len(f.Trees))
			}
		}
	}
	return out
}

// Predict returns the most probable class per row.
func (f *Forest) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, pr := range f.PredictProba(X) {
		out[i] = f.Classes[argmax(pr)]
	}
	return out
}

// ClassProba returns the probability of class for each row, or zeros if the
// forest never saw that class.
func (f *Forest) ClassProba(X [][]float64, class int) []float64 {
	col := -1
	for i, c := range f.Classes {
		if c == class {
			col = i
		}
	}
	out := make([]float64, len(X))
	if col < 0 {
		return out
	}
	for i, pr := range f.PredictProba(X) {
		out[i] = pr[col]
	}
	return out
}
