// Package clean turns raw claim records into cleaned and labeled tables:
// target filtering, median imputation, categorical encoding and the reverse
// code→label normalization.
package clean

import (
	"math"
	"sort"

	"github.com/KaramelBytes/claimvision-cli/internal/schema"
	"github.com/KaramelBytes/claimvision-cli/internal/table"
)

// Options controls cleaning behavior.
type Options struct {
	// TargetColumn rows missing this value are dropped before imputation.
	TargetColumn string
	// Vocabularies used for encoding and normalization. Defaults to
	// schema.Vocabularies(TargetColumn) when nil.
	Vocabularies []schema.Vocabulary
	// Strict fails on out-of-vocabulary values instead of marking them missing.
	Strict bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{TargetColumn: schema.ColClaim, Strict: true}
}

func (o Options) vocabularies() []schema.Vocabulary {
	if o.Vocabularies != nil {
		return o.Vocabularies
	}
	return schema.Vocabularies(o.TargetColumn)
}

// Report summarizes what a cleaning pass changed. It is observational and
// never drives control flow.
type Report struct {
	InputRows  int
	OutputRows int
	Columns    int
	// Dropped counts rows removed for a missing target value.
	Dropped int
	// TargetPresent is false when the target column was absent and no rows were dropped.
	TargetPresent bool
	// Filled maps numeric column → imputed cell count (only columns with fills).
	Filled map[string]int
	// Medians maps numeric column → the median used for filling.
	Medians map[string]float64
	// Encoded lists vocabulary columns whose strings were mapped to codes.
	Encoded []string
	// Unmapped counts out-of-vocabulary cells turned missing: raw values in
	// permissive mode, and imputed codes in either mode.
	Unmapped map[string]int
}

// Clean drops rows with a missing target, fills missing numeric cells with
// the column median of the surviving rows and encodes categorical strings to
// vocabulary codes. The input table is left untouched.
func Clean(in *table.Table, opt Options) (*table.Table, Report, error) {
	t := in.Clone()
	rep := Report{
		InputRows: len(in.Rows),
		Columns:   len(in.Columns),
		Filled:    map[string]int{},
		Medians:   map[string]float64{},
		Unmapped:  map[string]int{},
	}

	if ti := t.Index(opt.TargetColumn); opt.TargetColumn != "" && ti >= 0 {
		rep.TargetPresent = true
		kept := t.Rows[:0]
		for i := range t.Rows {
			if table.IsMissing(t.Cell(i, ti)) {
				rep.Dropped++
				continue
			}
			kept = append(kept, t.Rows[i])
		}
		t.Rows = kept
	}

	vocab := map[string]schema.Vocabulary{}
	for _, v := range opt.vocabularies() {
		vocab[v.Column] = v
	}
	for c, name := range t.Columns {
		if !t.IsNumeric(c) {
			continue
		}
		missing := t.Missing(c)
		if missing == 0 {
			continue
		}
		med := Median(t.Numbers(c))
		fill := table.FormatNumber(med)
		// a median between two codes names no category; the cells stay missing
		if v, ok := vocab[name]; ok {
			if _, known := labelFor(v, fill); !known {
				rep.Unmapped[name] += missing
				continue
			}
		}
		for i := range t.Rows {
			if table.IsMissing(t.Cell(i, c)) {
				t.Rows[i][c] = fill
			}
		}
		rep.Filled[name] = missing
		rep.Medians[name] = med
	}

	for _, v := range opt.vocabularies() {
		ci := t.Index(v.Column)
		if ci < 0 || t.IsNumeric(ci) || t.Missing(ci) == len(t.Rows) {
			continue
		}
		n, err := encodeColumn(t, ci, v, opt.Strict)
		if err != nil {
			return nil, rep, err
		}
		if n > 0 {
			rep.Unmapped[v.Column] += n
		}
		rep.Encoded = append(rep.Encoded, v.Column)
	}

	rep.OutputRows = len(t.Rows)
	return t, rep, nil
}

// encodeColumn maps labels to codes in place and returns how many cells were
// out of vocabulary (only in permissive mode).
func encodeColumn(t *table.Table, ci int, v schema.Vocabulary, strict bool) (int, error) {
	unmapped := 0
	for i := range t.Rows {
		raw := t.Cell(i, ci)
		if table.IsMissing(raw) {
			continue
		}
		code, ok := v.Code(raw)
		if !ok {
			if strict {
				return 0, &VocabularyError{Column: v.Column, Value: raw, Row: i + 1}
			}
			t.Rows[i][ci] = ""
			unmapped++
			continue
		}
		t.Rows[i][ci] = table.FormatNumber(float64(code))
	}
	return unmapped, nil
}

// Median returns the middle value of vals, averaging the two central values
// for even counts. It returns NaN for an empty slice.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	return quantile(cp, 0.5)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
