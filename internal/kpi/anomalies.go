package kpi

import (
	"context"
	"fmt"

	"github.com/KaramelBytes/claimvision-cli/internal/schema"
)

const roundedSuffix = "_rounded"

// DetectAnomalies selects every stored row whose cost exceeds the configured
// threshold, with the cost rounded to two decimals and moved to the last
// column. When the cost column is absent the result is marked Skipped and
// nothing is written.
func (a *Analyzer) DetectAnomalies(ctx context.Context) (*Result, error) {
	cost := a.opt.CostColumn
	ok, err := a.store.HasColumn(ctx, a.opt.Table, cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Result{Name: schema.FileAnomalies, Skipped: true}, nil
	}

	q := fmt.Sprintf(`SELECT *, ROUND(%[1]s, 2) AS %[2]s FROM %[3]s WHERE %[1]s > ?`,
		ident(cost), ident(cost+roundedSuffix), ident(a.opt.Table))
	res, err := a.query(ctx, schema.FileAnomalies, q, a.opt.CostThreshold)
	if err != nil {
		return nil, err
	}
	reshapeRounded(res, cost)
	res.Fixed = []string{cost}
	if err := a.Export(res); err != nil {
		return nil, err
	}
	return res, nil
}

// reshapeRounded drops the raw cost column and renames the rounded one in its
// place. SELECT * puts the rounded column last, so it stays last.
func reshapeRounded(res *Result, cost string) {
	raw := -1
	for i, c := range res.Columns {
		if c == cost {
			raw = i
			break
		}
	}
	if raw < 0 {
		return
	}
	cols := make([]string, 0, len(res.Columns)-1)
	for i, c := range res.Columns {
		switch {
		case i == raw:
			continue
		case c == cost+roundedSuffix:
			cols = append(cols, cost)
		default:
			cols = append(cols, c)
		}
	}
	res.Columns = cols
	for r, row := range res.Rows {
		out := make([]any, 0, len(row)-1)
		out = append(out, row[:raw]...)
		out = append(out, row[raw+1:]...)
		res.Rows[r] = out
	}
}
