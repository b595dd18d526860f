package model

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// Split holds row indices for training and testing.
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit assigns round(testRatio*count) rows of every class to the
// test set, shuffling within each class with a source seeded by seed.
func StratifiedSplit(y []int, testRatio float64, seed int64) (Split, error) {
	if testRatio <= 0 || testRatio >= 1 {
		return Split{}, errors.New("split: test ratio must be in (0,1)")
	}
	byClass := map[int][]int{}
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rnd := rand.New(rand.NewSource(seed))
	var s Split
	for _, c := range classes {
		rows := byClass[c]
		rnd.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		nTest := int(math.Round(testRatio * float64(len(rows))))
		if nTest >= len(rows) && len(rows) > 1 {
			nTest = len(rows) - 1
		}
		s.Test = append(s.Test, rows[:nTest]...)
		s.Train = append(s.Train, rows[nTest:]...)
	}
	sort.Ints(s.Train)
	sort.Ints(s.Test)
	if len(s.Train) == 0 || len(s.Test) == 0 {
		return s, errors.New("split: not enough rows for a train/test split")
	}
	return s, nil
}

// Rows selects X rows and labels by index.
func Rows(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}
