package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/claimvision-cli/internal/table"
)

func labeledTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(
		"age,sex,bmi,insuranceclaim,charges\n"+
			"19,female,27.9,yes,16884.924\n"+
			"33,male,22.705,no,21984.47061\n"+
			"28,male,,yes,4449.462\n"), ',')
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return tbl
}

func openTemp(t *testing.T, driver string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "db", "insurance.db")
	s, err := Open(context.Background(), driver, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDirectory(t *testing.T) {
	s := openTemp(t, DriverCgo)
	if _, err := os.Stat(filepath.Dir(s.Path())); err != nil {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "postgres", filepath.Join(t.TempDir(), "x.db"))
	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func TestReplaceIsIdempotent(t *testing.T) {
	for _, driver := range []string{DriverCgo, DriverPure} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			s := openTemp(t, driver)
			tbl := labeledTable(t)

			if err := s.Replace(ctx, "cleaned_data", tbl); err != nil {
				t.Fatalf("first Replace: %v", err)
			}
			once, err := s.ReadTable(ctx, "cleaned_data")
			if err != nil {
				t.Fatalf("ReadTable: %v", err)
			}
			if err := s.Replace(ctx, "cleaned_data", tbl); err != nil {
				t.Fatalf("second Replace: %v", err)
			}
			twice, err := s.ReadTable(ctx, "cleaned_data")
			if err != nil {
				t.Fatalf("ReadTable: %v", err)
			}
			if len(twice.Rows) != 3 {
				t.Fatalf("rows after second write = %d, want 3", len(twice.Rows))
			}
			for i := range once.Rows {
				for j := range once.Rows[i] {
					if once.Rows[i][j] != twice.Rows[i][j] {
						t.Fatalf("row %d differs: %#v vs %#v", i, once.Rows[i], twice.Rows[i])
					}
				}
			}
			if twice.Rows[2][2] != "" {
				t.Fatalf("missing bmi should be NULL, got %q", twice.Rows[2][2])
			}
			tables, err := s.Tables(ctx)
			if err != nil {
				t.Fatalf("Tables: %v", err)
			}
			if len(tables) != 1 || tables[0] != "cleaned_data" {
				t.Fatalf("tables = %#v, want only cleaned_data", tables)
			}
		})
	}
}

func TestReplaceSwapsSchema(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t, DriverCgo)
	if err := s.Replace(ctx, "cleaned_data", labeledTable(t)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	smaller, _ := table.ReadCSV(strings.NewReader("age,insuranceclaim\n40,no\n"), ',')
	if err := s.Replace(ctx, "cleaned_data", smaller); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	cols, err := s.Columns(ctx, "cleaned_data")
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	if strings.Join(cols, ",") != "age,insuranceclaim" {
		t.Fatalf("columns = %#v", cols)
	}
	n, err := s.Count(ctx, "cleaned_data")
	if err != nil || n != 1 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

func TestReplaceFailureKeepsPreviousTable(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t, DriverCgo)
	if err := s.Replace(ctx, "cleaned_data", labeledTable(t)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	// duplicate column names make CREATE TABLE fail inside the transaction
	bad := &table.Table{Columns: []string{"age", "age"}, Rows: [][]string{{"1", "2"}}}
	err := s.Replace(ctx, "cleaned_data", bad)
	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	n, err := s.Count(ctx, "cleaned_data")
	if err != nil || n != 3 {
		t.Fatalf("previous table lost: count = %d, %v", n, err)
	}
}

func TestColumnTypes(t *testing.T) {
	types := columnTypes(labeledTable(t))
	want := []string{"INTEGER", "TEXT", "REAL", "TEXT", "REAL"}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("types = %#v, want %#v", types, want)
		}
	}
}
