package model

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// Node is one node of a fitted tree. Fields are exported for gob.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64 // x <= Threshold goes left; NaN goes left
	Left      *Node
	Right     *Node
	// Probas is the class distribution at a leaf, aligned with Tree.Classes.
	Probas []float64
}

// Tree is a CART classifier using gini impurity.
type Tree struct {
	MaxDepth        int // 0 => no limit
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => all features
	Seed            int64

	Classes []int
	Root    *Node
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

func WithTreeMaxDepth(d int) TreeOption       { return func(t *Tree) { t.MaxDepth = d } }
func WithTreeMaxFeatures(k int) TreeOption    { return func(t *Tree) { t.MaxFeatures = k } }
func WithTreeSeed(seed int64) TreeOption      { return func(t *Tree) { t.Seed = seed } }
func WithTreeMinSamplesLeaf(n int) TreeOption { return func(t *Tree) { t.MinSamplesLeaf = n } }

// NewTree returns a tree with the usual CART defaults.
func NewTree(opts ...TreeOption) *Tree {
	t := &Tree{MinSamplesSplit: 2, MinSamplesLeaf: 1}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit grows the tree on the rows of X selected by idx. A nil idx uses every row.
// Classes must already be set when the tree is part of a forest so that leaf
// distributions line up across trees.
func (t *Tree) Fit(X [][]float64, y []int, idx []int) error {
	if len(X) == 0 {
		return errors.New("tree: empty X")
	}
	if len(y) != len(X) {
		return errors.New("tree: X and y length mismatch")
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return errors.New("tree: inconsistent number of features in X rows")
		}
	}
	if t.Classes == nil {
		t.Classes = uniqueClasses(y)
	}
	if idx == nil {
		idx = make([]int, len(X))
		for i := range idx {
			idx[i] = i
		}
	}
	classIdx := make(map[int]int, len(t.Classes))
	for i, c := range t.Classes {
		classIdx[c] = i
	}
	labels := make([]int, len(y))
	for i, v := range y {
		ci, ok := classIdx[v]
		if !ok {
			return errors.New("tree: label outside the class list")
		}
		labels[i] = ci
	}
	rnd := rand.New(rand.NewSource(t.Seed))
	t.Root = t.build(X, labels, idx, 0, p, rnd)
	return nil
}

// PredictProba returns per-class probabilities for each row of X.
func (t *Tree) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, x := range X {
		out[i] = t.leaf(x).Probas
	}
	return out
}

func (t *Tree) leaf(x []float64) *Node {
	n := t.Root
	for n != nil && !n.Leaf {
		v := x[n.Feature]
		if math.IsNaN(v) || v <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n
}

func (t *Tree) build(X [][]float64, y []int, idx []int, depth, p int, rnd *rand.Rand) *Node {
	k := len(t.Classes)
	counts := make([]int, k)
	for _, i := range idx {
		counts[y[i]]++
	}
	leaf := &Node{Leaf: true, Probas: probas(counts, len(idx))}
	if isPure(counts) || len(idx) < t.MinSamplesSplit || (t.MaxDepth > 0 && depth >= t.MaxDepth) {
		return leaf
	}

	feats := make([]int, p)
	for j := range feats {
		feats[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		rnd.Shuffle(p, func(i, j int) { feats[i], feats[j] = feats[j], feats[i] })
		feats = feats[:t.MaxFeatures]
		// deterministic tie-breaking regardless of shuffle order
		sort.Ints(feats)
	}

	parent := gini(counts, len(idx))
	best := split{feature: -1}
	for _, f := range feats {
		s := t.bestSplit(X, y, idx, f, parent)
		if s.gain > best.gain {
			best = s
		}
	}
	if best.feature < 0 || best.gain <= 0 {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		v := X[i][best.feature]
		if math.IsNaN(v) || v <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      t.build(X, y, left, depth+1, p, rnd),
		Right:     t.build(X, y, right, depth+1, p, rnd),
	}
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit scans sorted values of feature f keeping running class counts.
// NaN values always fall on the left side.
func (t *Tree) bestSplit(X [][]float64, y []int, idx []int, f int, parent float64) split {
	k := len(t.Classes)
	best := split{feature: -1}
	var nans []int
	valid := make([]int, 0, len(idx))
	for _, i := range idx {
		if math.IsNaN(X[i][f]) {
			nans = append(nans, i)
		} else {
			valid = append(valid, i)
		}
	}
	if len(valid) < 2 {
		return best
	}
	sort.Slice(valid, func(a, b int) bool { return X[valid[a]][f] < X[valid[b]][f] })

	left := make([]int, k)
	right := make([]int, k)
	for _, i := range nans {
		left[y[i]]++
	}
	for _, i := range valid {
		right[y[i]]++
	}
	n := len(idx)
	nl, nr := len(nans), len(valid)
	for s := 0; s < len(valid)-1; s++ {
		c := y[valid[s]]
		left[c]++
		right[c]--
		nl++
		nr--
		a, b := X[valid[s]][f], X[valid[s+1]][f]
		if a == b || nl < t.MinSamplesLeaf || nr < t.MinSamplesLeaf {
			continue
		}
		weighted := float64(nl)/float64(n)*gini(left, nl) + float64(nr)/float64(n)*gini(right, nr)
		if g := parent - weighted; g > best.gain {
			best = split{feature: f, threshold: (a + b) / 2, gain: g}
		}
	}
	return best
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

func probas(counts []int, n int) []float64 {
	out := make([]float64, len(counts))
	if n == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(n)
	}
	return out
}

func isPure(counts []int) bool {
	nz := 0
	for _, c := range counts {
		if c > 0 {
			nz++
		}
	}
	return nz <= 1
}

func uniqueClasses(y []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, v := range y {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
