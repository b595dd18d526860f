// Package table holds the in-memory tabular representation shared by the
// pipeline stages, plus CSV load/save.
package table

import (
	"math"
	"strconv"
	"strings"
)

// Table is a row-major string table. Cells keep their raw text; typing is
// inferred from values on demand.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// naTokens mirrors the default missing-value markers of common CSV tooling.
var naTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"-nan": {},
	"null": {},
	"none": {},
	"<na>": {},
	"#n/a": {},
}

// IsMissing reports whether a cell should be treated as an absent value.
func IsMissing(v string) bool {
	_, ok := naTokens[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// ParseNumber parses a non-missing cell as a float.
func ParseNumber(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if IsMissing(v) {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders f with the shortest representation that round-trips.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the table carries column name.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Clone returns a deep copy so stages never share row storage.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

// Cell returns row[col] or "" when the row is short.
func (t *Table) Cell(row, col int) string {
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Missing counts missing cells in column col.
func (t *Table) Missing(col int) int {
	n := 0
	for i := range t.Rows {
		if IsMissing(t.Cell(i, col)) {
			n++
		}
	}
	return n
}

// IsNumeric reports whether column col has at least one value and every
// non-missing value parses as a number.
func (t *Table) IsNumeric(col int) bool {
	seen := false
	for i := range t.Rows {
		v := t.Cell(i, col)
		if IsMissing(v) {
			continue
		}
		if _, ok := ParseNumber(v); !ok {
			return false
		}
		seen = true
	}
	return seen
}

// IsIntegral reports whether every non-missing value of a numeric column is a
// whole number.
func (t *Table) IsIntegral(col int) bool {
	for i := range t.Rows {
		f, ok := ParseNumber(t.Cell(i, col))
		if !ok {
			continue
		}
		if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return false
		}
	}
	return true
}

// Numbers returns the parsed non-missing values of column col.
func (t *Table) Numbers(col int) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for i := range t.Rows {
		if f, ok := ParseNumber(t.Cell(i, col)); ok {
			out = append(out, f)
		}
	}
	return out
}

// Drop returns a copy of t without the columns in names. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := map[int]bool{}
	for _, n := range names {
		if i := t.Index(n); i >= 0 {
			skip[i] = true
		}
	}
	out := &Table{Name: t.Name}
	keep := make([]int, 0, len(t.Columns))
	for i, c := range t.Columns {
		if skip[i] {
			continue
		}
		keep = append(keep, i)
		out.Columns = append(out.Columns, c)
	}
	out.Rows = make([][]string, len(t.Rows))
	for r := range t.Rows {
		row := make([]string, len(keep))
		for j, i := range keep {
			row[j] = t.Cell(r, i)
		}
		out.Rows[r] = row
	}
	return out
}
