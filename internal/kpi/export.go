package kpi

import (
	"slices"
	"strconv"

	"github.com/KaramelBytes/claimvision-cli/internal/store"
	"github.com/KaramelBytes/claimvision-cli/internal/table"
)

// WriteCSV renders res and writes it atomically to path. NULL values become
// empty cells.
func WriteCSV(path string, res *Result) error {
	return ToTable(path, res).SaveCSV(path)
}

// ToTable converts a scanned result into a string table.
func ToTable(name string, res *Result) *table.Table {
	t := &table.Table{Name: name, Columns: append([]string(nil), res.Columns...), Rows: make([][]string, len(res.Rows))}
	for i, r := range res.Rows {
		row := make([]string, len(r))
		for j := range r {
			row[j] = res.Format(i, j)
		}
		t.Rows[i] = row
	}
	return t
}

// Format renders one cell. Columns listed in Fixed keep two decimals.
func (r *Result) Format(row, col int) string {
	v := r.Rows[row][col]
	if col < len(r.Columns) && slices.Contains(r.Fixed, r.Columns[col]) {
		switch x := v.(type) {
		case float64:
			return strconv.FormatFloat(x, 'f', 2, 64)
		case int64:
			return strconv.FormatFloat(float64(x), 'f', 2, 64)
		}
	}
	return store.FormatValue(v)
}
