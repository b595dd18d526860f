package clean

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/claimvision-cli/internal/table"
)

func mustRead(t *testing.T, content string) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(content), ',')
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return tbl
}

func TestCleanDropsMissingTargetBeforeImputing(t *testing.T) {
	in := mustRead(t, "age,bmi,insuranceclaim\n"+
		"1,20.5,1\n"+
		"2,,0\n"+
		",30,1\n"+
		"4,25,1\n"+
		"1000,,\n")

	out, rep, err := Clean(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if rep.Dropped != 1 {
		t.Fatalf("dropped = %d, want 1", rep.Dropped)
	}
	if len(out.Rows) != 4 || rep.OutputRows != 4 {
		t.Fatalf("rows = %d, want 4", len(out.Rows))
	}
	// median of {1,2,4}; the dropped 1000 must not contribute
	if got := out.Rows[2][0]; got != "2" {
		t.Fatalf("imputed age = %q, want 2", got)
	}
	if got := out.Rows[1][1]; got != "25" {
		t.Fatalf("imputed bmi = %q, want 25", got)
	}
	if rep.Filled["age"] != 1 || rep.Filled["bmi"] != 1 {
		t.Fatalf("filled = %#v", rep.Filled)
	}
	for i := range out.Rows {
		for c := range out.Columns {
			if table.IsMissing(out.Rows[i][c]) {
				t.Fatalf("row %d col %s still missing", i, out.Columns[c])
			}
		}
	}
	// input is not mutated
	if in.Rows[1][1] != "" || len(in.Rows) != 5 {
		t.Fatalf("input table was modified")
	}
}

func TestCleanDroppedCountMatchesMissingTargets(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    int
	}{
		{"none", "age,insuranceclaim\n1,0\n2,1\n", 0},
		{"all", "age,insuranceclaim\n1,\n2,NA\n", 2},
		{"tokens", "age,insuranceclaim\n1,nan\n2,null\n3,1\n4,None\n", 3},
		{"no target column", "age,sex\n1,\n", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, rep, err := Clean(mustRead(t, tc.content), DefaultOptions())
			if err != nil {
				t.Fatalf("Clean: %v", err)
			}
			if rep.Dropped != tc.want {
				t.Fatalf("dropped = %d, want %d", rep.Dropped, tc.want)
			}
		})
	}
}

func TestCleanEncodesGenderStrings(t *testing.T) {
	in := mustRead(t, "age,sex,insuranceclaim\n30,male,1\n40,Female,0\n50,,1\n")
	out, rep, err := Clean(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	col := out.Index("sex")
	got := []string{out.Rows[0][col], out.Rows[1][col], out.Rows[2][col]}
	want := []string{"1", "0", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sex codes = %#v, want %#v", got, want)
		}
	}
	if len(rep.Encoded) != 1 || rep.Encoded[0] != "sex" {
		t.Fatalf("encoded = %#v", rep.Encoded)
	}
}

func TestCleanUnknownCategoryPolicy(t *testing.T) {
	content := "sex,insuranceclaim\nmale,1\nother,0\n"

	_, _, err := Clean(mustRead(t, content), DefaultOptions())
	var verr *VocabularyError
	if !errors.As(err, &verr) {
		t.Fatalf("expected VocabularyError, got %v", err)
	}
	if verr.Column != "sex" || verr.Value != "other" || verr.Row != 2 {
		t.Fatalf("error = %+v", verr)
	}

	opt := DefaultOptions()
	opt.Strict = false
	out, rep, err := Clean(mustRead(t, content), opt)
	if err != nil {
		t.Fatalf("permissive Clean: %v", err)
	}
	if out.Rows[1][0] != "" || rep.Unmapped["sex"] != 1 {
		t.Fatalf("permissive result = %#v, unmapped = %#v", out.Rows, rep.Unmapped)
	}
}

func TestCleanImputedCodeOutsideVocabulary(t *testing.T) {
	// median of {0,1} is 0.5, which is no sex code
	in := mustRead(t, "sex,insuranceclaim\n0,1\n1,0\n,1\n")
	out, rep, err := Clean(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if out.Rows[2][0] != "" {
		t.Fatalf("imputed sex = %q, want missing", out.Rows[2][0])
	}
	if rep.Unmapped["sex"] != 1 || rep.Filled["sex"] != 0 {
		t.Fatalf("unmapped = %#v, filled = %#v", rep.Unmapped, rep.Filled)
	}
	labeled, _, err := Normalize(out, DefaultOptions())
	if err != nil {
		t.Fatalf("strict Normalize after Clean: %v", err)
	}
	if labeled.Rows[2][0] != "" || labeled.Rows[0][0] != "female" {
		t.Fatalf("labeled rows = %#v", labeled.Rows)
	}

	// a median that is itself a code is filled and labeled normally
	out, rep, err = Clean(mustRead(t, "sex,insuranceclaim\n0,1\n0,0\n1,1\n,0\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if out.Rows[3][0] != "0" || rep.Filled["sex"] != 1 || rep.Unmapped["sex"] != 0 {
		t.Fatalf("rows = %#v, report = %+v", out.Rows, rep)
	}
	labeled, _, err = Normalize(out, DefaultOptions())
	if err != nil || labeled.Rows[3][0] != "female" {
		t.Fatalf("labeled = %#v, err = %v", labeled.Rows, err)
	}
}

func TestMedian(t *testing.T) {
	cases := []struct {
		in   []float64
		want float64
	}{
		{[]float64{1, 2, 4}, 2},
		{[]float64{4, 1, 3, 2}, 2.5},
		{[]float64{7}, 7},
	}
	for _, tc := range cases {
		if got := Median(tc.in); got != tc.want {
			t.Fatalf("Median(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if !math.IsNaN(Median(nil)) {
		t.Fatalf("Median(nil) should be NaN")
	}
}
