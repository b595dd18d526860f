package clean

import (
	"math"

	"github.com/KaramelBytes/claimvision-cli/internal/schema"
	"github.com/KaramelBytes/claimvision-cli/internal/table"
)

// NormalizeReport lists which vocabulary columns were relabeled.
type NormalizeReport struct {
	Labeled  []string
	Skipped  []string
	Unmapped map[string]int
}

// Normalize maps integer codes of the vocabulary columns back to their
// human-readable labels. Columns absent from the table are skipped. The input
// table is left untouched.
func Normalize(in *table.Table, opt Options) (*table.Table, NormalizeReport, error) {
	t := in.Clone()
	rep := NormalizeReport{Unmapped: map[string]int{}}
	for _, v := range opt.vocabularies() {
		ci := t.Index(v.Column)
		if ci < 0 {
			rep.Skipped = append(rep.Skipped, v.Column)
			continue
		}
		for i := range t.Rows {
			raw := t.Cell(i, ci)
			if table.IsMissing(raw) {
				continue
			}
			label, ok := labelFor(v, raw)
			if !ok {
				if opt.Strict {
					return nil, rep, &VocabularyError{Column: v.Column, Value: raw, Row: i + 1}
				}
				t.Rows[i][ci] = ""
				rep.Unmapped[v.Column]++
				continue
			}
			t.Rows[i][ci] = label
		}
		rep.Labeled = append(rep.Labeled, v.Column)
	}
	return t, rep, nil
}

func labelFor(v schema.Vocabulary, raw string) (string, bool) {
	f, ok := table.ParseNumber(raw)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return "", false
	}
	return v.Label(int(f))
}

// Encode maps labels (or aliases) of the vocabulary columns to codes. It is
// the inverse of Normalize and is used to build model features from a
// labeled table. Columns that are already numeric are left as they are.
func Encode(in *table.Table, opt Options) (*table.Table, error) {
	t := in.Clone()
	for _, v := range opt.vocabularies() {
		ci := t.Index(v.Column)
		if ci < 0 || t.IsNumeric(ci) {
			continue
		}
		if _, err := encodeColumn(t, ci, v, opt.Strict); err != nil {
			return nil, err
		}
	}
	return t, nil
}
