package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/claimvision-cli/internal/table"
)

var claimRows = []string{
	"age,sex,bmi,smoker,charges,insuranceclaim",
	"19,female,27.9,yes,16884.92,yes",
	"18,male,33.77,no,1725.55,yes",
	"28,male,33,no,4449.46,no",
	"33,male,22.7,no,21984.47,no",
	"32,male,,no,3866.86,yes",
	"31,female,25.74,no,3756.62,no",
	"46,female,33.44,no,8240.59,yes",
	"37,female,27.74,no,7281.51,no",
	"60,female,25.84,no,28923.14,yes",
	"62,female,26.29,yes,90000,yes",
}

func claimTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(strings.Join(claimRows, "\n")), ',')
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	tbl.Name = "insurance.csv"
	return tbl
}

func column(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	for _, c := range rep.Cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %s not in report", name)
	return ColumnSummary{}
}

func TestInspectKindsAndStats(t *testing.T) {
	rep := Inspect(claimTable(t), DefaultOptions())
	if rep.Rows != 10 || len(rep.Cols) != 6 {
		t.Fatalf("rows = %d cols = %d", rep.Rows, len(rep.Cols))
	}
	age := column(t, rep, "age")
	if age.Kind != KindNumeric || age.Min != 18 || age.Max != 62 {
		t.Fatalf("age = %+v", age)
	}
	if math.Abs(age.Median-32.5) > 1e-9 || math.Abs(age.Mean-36.6) > 1e-9 {
		t.Fatalf("age median = %v mean = %v", age.Median, age.Mean)
	}
	bmi := column(t, rep, "bmi")
	if bmi.Missing != 1 || bmi.NonNull != 9 {
		t.Fatalf("bmi = %+v", bmi)
	}
	sex := column(t, rep, "sex")
	if sex.Kind != KindCategorical || sex.Top[0].Value != "female" || sex.Top[0].N != 6 {
		t.Fatalf("sex = %+v", sex)
	}
	if len(rep.Notes) != 1 || rep.Notes[0] != "bmi: 1 missing" {
		t.Fatalf("notes = %#v", rep.Notes)
	}
}

func TestInspectTextColumn(t *testing.T) {
	opt := DefaultOptions()
	opt.MaxCategories = 1
	rep := Inspect(claimTable(t), opt)
	if c := column(t, rep, "sex"); c.Kind != KindText || len(c.Top) != 1 {
		t.Fatalf("sex = %+v", c)
	}
}

func TestInspectGroupsByOutcome(t *testing.T) {
	rep := Inspect(claimTable(t), DefaultOptions())
	if rep.GroupBy != "insuranceclaim" || len(rep.Groups) != 2 {
		t.Fatalf("groups = %+v", rep.Groups)
	}
	no, yes := rep.Groups[0], rep.Groups[1]
	if no.Key != "no" || no.Size != 4 || yes.Key != "yes" || yes.Size != 6 {
		t.Fatalf("groups = %+v", rep.Groups)
	}
	// (28+33+31+37)/4
	if math.Abs(no.Means["age"]-32.25) > 1e-9 {
		t.Fatalf("mean age for no = %v", no.Means["age"])
	}
	// the missing bmi is left out of the mean, not counted as zero
	if _, ok := yes.Means["bmi"]; !ok {
		t.Fatalf("bmi mean missing: %+v", yes.Means)
	}
}

func TestInspectMarkdown(t *testing.T) {
	opt := DefaultOptions()
	opt.SampleRows = 2
	rep := Inspect(claimTable(t), opt)
	md := rep.Markdown()
	for _, want := range []string{
		"# Dataset: insurance.csv",
		"Rows: 10, columns: 6",
		"| age | numeric | 10 | 0 | min 18, max 62, mean 36.6, median 32.5 |",
		"| sex | categorical | 10 | 0 | female 6, male 4 |",
		"## By insuranceclaim",
		"| no | 4 | 32.25 |",
		"## Head",
		"| 19 | female | 27.9 | yes | 16884.92 | yes |",
		"- bmi: 1 missing",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if len(rep.Samples) != 2 {
		t.Fatalf("samples = %d", len(rep.Samples))
	}
}

func TestInspectMissingGroupColumn(t *testing.T) {
	opt := DefaultOptions()
	opt.GroupBy = "region"
	rep := Inspect(claimTable(t), opt)
	if len(rep.Groups) != 0 || rep.GroupBy != "" {
		t.Fatalf("groups = %+v", rep.Groups)
	}
	found := false
	for _, n := range rep.Notes {
		if strings.Contains(n, "region not found") {
			found = true
		}
	}
	if !found {
		t.Fatalf("notes = %#v", rep.Notes)
	}
	if strings.Contains(rep.Markdown(), "## By") {
		t.Fatal("markdown should have no group section")
	}
}
