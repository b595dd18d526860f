// Package kpi runs the aggregate queries and the high-cost anomaly filter
// against the stored claim table and exports each result as a CSV file.
package kpi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/claimvision-cli/internal/schema"
	"github.com/KaramelBytes/claimvision-cli/internal/store"
)

// ErrEmptyTable is returned when the claim rate is requested for a table
// without rows.
var ErrEmptyTable = errors.New("claim rate undefined: stored table has no rows")

// ExportError reports a KPI or anomaly file that could not be written.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string { return fmt.Sprintf("export %s: %v", e.Path, e.Err) }

func (e *ExportError) Unwrap() error { return e.Err }

// Options names the table, columns and destination used by the Analyzer.
type Options struct {
	Table         string
	TargetColumn  string
	AgeColumn     string
	CostColumn    string
	CostThreshold float64
	// OutputDir receives the exported CSV files.
	OutputDir string
}

// DefaultOptions returns the canonical names with output under dir.
func DefaultOptions(dir string) Options {
	return Options{
		Table:         schema.TableCleaned,
		TargetColumn:  schema.ColClaim,
		AgeColumn:     schema.ColAge,
		CostColumn:    schema.ColCharges,
		CostThreshold: schema.DefaultCostThreshold,
		OutputDir:     dir,
	}
}

// Result is a small derived table. Rows hold scanned database values.
type Result struct {
	Name    string
	Columns []string
	Rows    [][]any
	// Path is set once the result has been exported.
	Path string
	// Fixed lists the rounded columns written with exactly two decimals.
	Fixed []string
	// Skipped marks a result that was not computed because an optional
	// column is absent.
	Skipped bool
}

// Analyzer runs queries against one open store.
type Analyzer struct {
	store *store.Store
	opt   Options
}

// NewAnalyzer binds an analyzer to s. The caller keeps ownership of s.
func NewAnalyzer(s *store.Store, opt Options) *Analyzer {
	return &Analyzer{store: s, opt: opt}
}

// ClaimDistribution counts rows per claim outcome.
func (a *Analyzer) ClaimDistribution(ctx context.Context) (*Result, error) {
	q := fmt.Sprintf(`SELECT %[1]s, COUNT(*) AS count FROM %[2]s GROUP BY %[1]s`,
		ident(a.opt.TargetColumn), ident(a.opt.Table))
	return a.query(ctx, schema.FileClaimDistribution, q)
}

// ClaimRate returns the single-row share of "yes" outcomes in percent, rounded
// to two decimals. An empty table yields ErrEmptyTable.
func (a *Analyzer) ClaimRate(ctx context.Context) (*Result, error) {
	n, err := a.store.Count(ctx, a.opt.Table)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmptyTable
	}
	q := fmt.Sprintf(`SELECT ROUND(100.0 * SUM(CASE WHEN %s = ? THEN 1 ELSE 0 END) / COUNT(*), 2) AS %s FROM %s`,
		ident(a.opt.TargetColumn), schema.KPIClaimRate, ident(a.opt.Table))
	res, err := a.query(ctx, schema.FileClaimRate, q, schema.ClaimYes)
	if err != nil {
		return nil, err
	}
	res.Fixed = []string{schema.KPIClaimRate}
	return res, nil
}

// AgeByOutcome averages the age column per claim outcome, with group sizes.
func (a *Analyzer) AgeByOutcome(ctx context.Context) (*Result, error) {
	q := fmt.Sprintf(`SELECT %[1]s, ROUND(AVG(%[2]s), 2) AS %[3]s, COUNT(*) AS count FROM %[4]s GROUP BY %[1]s`,
		ident(a.opt.TargetColumn), ident(a.opt.AgeColumn), schema.KPIAverageAge, ident(a.opt.Table))
	res, err := a.query(ctx, schema.FileAgeByOutcome, q)
	if err != nil {
		return nil, err
	}
	res.Fixed = []string{schema.KPIAverageAge}
	return res, nil
}

// KPIs computes and exports the three KPI results in order.
func (a *Analyzer) KPIs(ctx context.Context) ([]*Result, error) {
	steps := []func(context.Context) (*Result, error){a.ClaimDistribution, a.ClaimRate, a.AgeByOutcome}
	out := make([]*Result, 0, len(steps))
	for _, step := range steps {
		res, err := step(ctx)
		if err != nil {
			return out, err
		}
		if err := a.Export(res); err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Export writes res as <OutputDir>/<res.Name>, replacing any previous file.
func (a *Analyzer) Export(res *Result) error {
	path := filepath.Join(a.opt.OutputDir, res.Name)
	if err := WriteCSV(path, res); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	res.Path = path
	return nil
}

func (a *Analyzer) query(ctx context.Context, name, q string, args ...any) (*Result, error) {
	rows, err := a.store.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, queryError(name, err)
	}
	defer rows.Close()
	cols, vals, err := store.ScanAll(rows)
	if err != nil {
		return nil, queryError(name, err)
	}
	return &Result{Name: name, Columns: cols, Rows: vals}, nil
}

func queryError(name string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("query %s: no rows", name)
	}
	return &store.StorageError{Op: "query " + name, Err: err}
}

func ident(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
