package kpi

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/claimvision-cli/internal/schema"
	"github.com/KaramelBytes/claimvision-cli/internal/store"
	"github.com/KaramelBytes/claimvision-cli/internal/table"
)

func seed(t *testing.T, csv string) (*Analyzer, string) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	s, err := store.Open(ctx, store.DriverCgo, filepath.Join(dir, "database", schema.FileDatabase))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	tbl, err := table.ReadCSV(strings.NewReader(csv), ',')
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if err := s.Replace(ctx, schema.TableCleaned, tbl); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	return NewAnalyzer(s, DefaultOptions(dir)), dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestClaimRate(t *testing.T) {
	a, dir := seed(t, "age,insuranceclaim\n20,yes\n30,yes\n40,yes\n50,no\n")
	res, err := a.ClaimRate(context.Background())
	if err != nil {
		t.Fatalf("ClaimRate: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0][0] != 75.0 {
		t.Fatalf("rows = %#v", res.Rows)
	}
	if res.Columns[0] != schema.KPIClaimRate {
		t.Fatalf("columns = %#v", res.Columns)
	}
	if err := a.Export(res); err != nil {
		t.Fatalf("Export: %v", err)
	}
	got := readFile(t, filepath.Join(dir, schema.FileClaimRate))
	if got != "claim_rate_percent\n75.00\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestClaimRateEmptyTable(t *testing.T) {
	a, dir := seed(t, "age,insuranceclaim\n")
	_, err := a.ClaimRate(context.Background())
	if !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("expected ErrEmptyTable, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, schema.FileClaimRate)); !os.IsNotExist(err) {
		t.Fatalf("rate file should not exist")
	}
}

func TestKPIsExportAllFiles(t *testing.T) {
	a, dir := seed(t, "age,insuranceclaim\n20,yes\n30,no\n40,yes\n")
	results, err := a.KPIs(context.Background())
	if err != nil {
		t.Fatalf("KPIs: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	dist := readFile(t, filepath.Join(dir, schema.FileClaimDistribution))
	if !strings.HasPrefix(dist, "insuranceclaim,count\n") || !strings.Contains(dist, "yes,2\n") || !strings.Contains(dist, "no,1\n") {
		t.Fatalf("distribution = %q", dist)
	}
	age := readFile(t, filepath.Join(dir, schema.FileAgeByOutcome))
	if !strings.HasPrefix(age, "insuranceclaim,average_age,count\n") || !strings.Contains(age, "yes,30.00,2\n") {
		t.Fatalf("age by outcome = %q", age)
	}
}

func TestDetectAnomalies(t *testing.T) {
	a, dir := seed(t, "age,charges,insuranceclaim\n20,10000,no\n30,51234.567,yes\n40,49999.99,no\n50,60000,yes\n")
	res, err := a.DetectAnomalies(context.Background())
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}
	if res.Skipped {
		t.Fatalf("unexpected skip")
	}
	if strings.Join(res.Columns, ",") != "age,insuranceclaim,charges" {
		t.Fatalf("columns = %#v", res.Columns)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %#v", res.Rows)
	}
	got := readFile(t, filepath.Join(dir, schema.FileAnomalies))
	if got != "age,insuranceclaim,charges\n30,yes,51234.57\n50,yes,60000.00\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestDetectAnomaliesSkipsWithoutCostColumn(t *testing.T) {
	a, dir := seed(t, "age,insuranceclaim\n20,no\n")
	res, err := a.DetectAnomalies(context.Background())
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}
	if !res.Skipped {
		t.Fatalf("expected skip")
	}
	if _, err := os.Stat(filepath.Join(dir, schema.FileAnomalies)); !os.IsNotExist(err) {
		t.Fatalf("anomaly file should not exist")
	}
}
