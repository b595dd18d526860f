package model

import (
	"fmt"
	"strings"
)

// ClassMetrics holds per-class precision, recall and F1.
type ClassMetrics struct {
	Class     int
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Metrics summarizes classifier performance on a held-out set.
type Metrics struct {
	Accuracy float64
	// Confusion[i][j] counts rows of true class Classes[i] predicted as Classes[j].
	Confusion [][]int
	Classes   []int
	PerClass  []ClassMetrics
	TestRows  int
}

// Evaluate compares yTrue with yPred over the given class list.
func Evaluate(yTrue, yPred []int, classes []int) Metrics {
	m := Metrics{Classes: append([]int(nil), classes...), TestRows: len(yTrue)}
	pos := make(map[int]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	m.Confusion = make([][]int, len(classes))
	for i := range m.Confusion {
		m.Confusion[i] = make([]int, len(classes))
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
		a, okA := pos[yTrue[i]]
		b, okB := pos[yPred[i]]
		if okA && okB {
			m.Confusion[a][b]++
		}
	}
	if len(yTrue) > 0 {
		m.Accuracy = float64(correct) / float64(len(yTrue))
	}
	for i, c := range classes {
		tp := m.Confusion[i][i]
		var predicted, actual int
		for j := range classes {
			predicted += m.Confusion[j][i]
			actual += m.Confusion[i][j]
		}
		cm := ClassMetrics{Class: c, Support: actual}
		if predicted > 0 {
			cm.Precision = float64(tp) / float64(predicted)
		}
		if actual > 0 {
			cm.Recall = float64(tp) / float64(actual)
		}
		if cm.Precision+cm.Recall > 0 {
			cm.F1 = 2 * cm.Precision * cm.Recall / (cm.Precision + cm.Recall)
		}
		m.PerClass = append(m.PerClass, cm)
	}
	return m
}

// Report renders the metrics as a plain-text classification report. names maps
// class codes to display labels; missing names fall back to the code.
func (m Metrics) Report(names map[int]string) string {
	label := func(c int) string {
		if n, ok := names[c]; ok {
			return n
		}
		return fmt.Sprint(c)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Accuracy: %.4f (%d test rows)\n\n", m.Accuracy, m.TestRows))
	b.WriteString(fmt.Sprintf("%-12s %9s %9s %9s %9s\n", "class", "precision", "recall", "f1", "support"))
	for _, c := range m.PerClass {
		b.WriteString(fmt.Sprintf("%-12s %9.2f %9.2f %9.2f %9d\n", label(c.Class), c.Precision, c.Recall, c.F1, c.Support))
	}
	b.WriteString("\nConfusion matrix (rows: actual, columns: predicted)\n")
	b.WriteString(fmt.Sprintf("%-12s", ""))
	for _, c := range m.Classes {
		b.WriteString(fmt.Sprintf(" %9s", label(c)))
	}
	b.WriteString("\n")
	for i, row := range m.Confusion {
		b.WriteString(fmt.Sprintf("%-12s", label(m.Classes[i])))
		for _, v := range row {
			b.WriteString(fmt.Sprintf(" %9d", v))
		}
		b.WriteString("\n")
	}
	return b.String()
}
