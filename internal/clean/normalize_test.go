package clean

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/claimvision-cli/internal/schema"
)

func TestNormalizeMapsCodesToLabels(t *testing.T) {
	in := mustRead(t, "age,sex,smoker,region,insuranceclaim\n"+
		"19,0,1,3,1\n"+
		"33,1.0,0,2,0\n")
	out, rep, err := Normalize(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := [][]string{
		{"19", "female", "smoker", "southwest", "yes"},
		{"33", "male", "non-smoker", "southeast", "no"},
	}
	for i := range want {
		for j := range want[i] {
			if out.Rows[i][j] != want[i][j] {
				t.Fatalf("row %d = %#v, want %#v", i, out.Rows[i], want[i])
			}
		}
	}
	if len(rep.Labeled) != 4 || len(rep.Skipped) != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestNormalizeSkipsAbsentColumns(t *testing.T) {
	in := mustRead(t, "age,sex,insuranceclaim\n40,1,0\n")
	out, rep, err := Normalize(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if out.Has(schema.ColRegion) {
		t.Fatalf("region column should not be created")
	}
	if len(out.Columns) != 3 {
		t.Fatalf("columns = %#v", out.Columns)
	}
	skipped := map[string]bool{}
	for _, c := range rep.Skipped {
		skipped[c] = true
	}
	if !skipped[schema.ColRegion] || !skipped[schema.ColSmoker] {
		t.Fatalf("skipped = %#v", rep.Skipped)
	}
}

func TestNormalizeOutOfVocabulary(t *testing.T) {
	for _, raw := range []string{"2", "0.5", "abc"} {
		in := mustRead(t, "sex\n"+raw+"\n")
		_, _, err := Normalize(in, DefaultOptions())
		var verr *VocabularyError
		if !errors.As(err, &verr) {
			t.Fatalf("code %q: expected VocabularyError, got %v", raw, err)
		}
	}

	opt := DefaultOptions()
	opt.Strict = false
	out, rep, err := Normalize(mustRead(t, "sex\n2\n1\n"), opt)
	if err != nil {
		t.Fatalf("permissive Normalize: %v", err)
	}
	if out.Rows[0][0] != "" || out.Rows[1][0] != "male" {
		t.Fatalf("rows = %#v", out.Rows)
	}
	if rep.Unmapped["sex"] != 1 {
		t.Fatalf("unmapped = %#v", rep.Unmapped)
	}
}

func TestLabelRoundTrip(t *testing.T) {
	for _, v := range schema.Vocabularies(schema.ColClaim) {
		for _, code := range v.Codes() {
			label, ok := v.Label(code)
			if !ok {
				t.Fatalf("%s: no label for %d", v.Column, code)
			}
			back, ok := v.Code(label)
			if !ok || back != code {
				t.Fatalf("%s: %d -> %q -> %d", v.Column, code, label, back)
			}
		}
	}

	in := mustRead(t, "sex,smoker,region,insuranceclaim\n1,0,2,1\n0,1,0,0\n")
	labeled, _, err := Normalize(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	back, err := Encode(labeled, DefaultOptions())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for i := range in.Rows {
		for j := range in.Rows[i] {
			if back.Rows[i][j] != in.Rows[i][j] {
				t.Fatalf("round trip row %d = %#v, want %#v", i, back.Rows[i], in.Rows[i])
			}
		}
	}
}
