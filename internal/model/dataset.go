package model

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/claimvision-cli/internal/clean"
	"github.com/KaramelBytes/claimvision-cli/internal/table"
)

// Dataset is a numeric design matrix built from a labeled table.
type Dataset struct {
	Features []string
	X        [][]float64
	Y        []int
	// Skipped counts rows dropped for a missing target.
	Skipped int
}

// BuildDataset encodes the vocabulary columns of a labeled table back to codes
// and extracts features in the given order. Missing feature cells become NaN.
// Rows without a target are skipped.
func BuildDataset(t *table.Table, features []string, opt clean.Options) (*Dataset, error) {
	enc, err := clean.Encode(t, opt)
	if err != nil {
		return nil, err
	}
	ti := enc.Index(opt.TargetColumn)
	if ti < 0 {
		return nil, fmt.Errorf("target column %q not found", opt.TargetColumn)
	}
	fi := make([]int, len(features))
	for i, f := range features {
		if fi[i] = enc.Index(f); fi[i] < 0 {
			return nil, fmt.Errorf("feature column %q not found", f)
		}
	}
	ds := &Dataset{Features: append([]string(nil), features...)}
	for r := range enc.Rows {
		yv, ok := table.ParseNumber(enc.Cell(r, ti))
		if !ok {
			ds.Skipped++
			continue
		}
		x := make([]float64, len(fi))
		for j, ci := range fi {
			v, ok := table.ParseNumber(enc.Cell(r, ci))
			if !ok {
				v = math.NaN()
			}
			x[j] = v
		}
		ds.X = append(ds.X, x)
		ds.Y = append(ds.Y, int(yv))
	}
	if len(ds.X) == 0 {
		return nil, fmt.Errorf("no rows with a %s value", opt.TargetColumn)
	}
	return ds, nil
}
