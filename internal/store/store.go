// Package store persists labeled claim tables in a local SQLite database.
// Writes replace the named table in a single transaction so readers observe
// either the previous snapshot or the new one, never a partial table.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/claimvision-cli/internal/table"
	"github.com/KaramelBytes/claimvision-cli/internal/utils"
)

// Supported database/sql driver names.
const (
	DriverCgo  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

// StorageError reports a store that cannot be created, opened or written.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("storage %s (%s): %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store wraps a database handle. Callers must Close it on every path.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the parent directory of path if needed and opens the database.
func Open(ctx context.Context, driver, path string) (*Store, error) {
	if driver == "" {
		driver = DriverCgo
	}
	if driver != DriverCgo && driver != DriverPure {
		return nil, &StorageError{Op: "open", Path: path, Err: fmt.Errorf("unsupported driver %q (use %s or %s)", driver, DriverCgo, DriverPure)}
	}
	if err := utils.EnsureParentDir(path); err != nil {
		return nil, &StorageError{Op: "create directory", Path: path, Err: err}
	}
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}
	// one connection keeps the swap transaction and follow-up reads on the same handle
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the handle for read-only query helpers.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Replace writes tbl as table name, replacing any previous table of that name.
// The rows go into a uniquely named staging table which is swapped in with a
// drop+rename inside one transaction. On failure the previous table survives.
func (s *Store) Replace(ctx context.Context, name string, tbl *table.Table) (err error) {
	if len(tbl.Columns) == 0 {
		return &StorageError{Op: "replace " + name, Path: s.path, Err: fmt.Errorf("table has no columns")}
	}
	staging := fmt.Sprintf("%s__staging_%s", name, strings.ReplaceAll(uuid.NewString(), "-", ""))
	types := columnTypes(tbl)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "begin", Path: s.path, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	defs := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		defs[i] = quoteIdent(c) + " " + types[i]
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(staging), strings.Join(defs, ", "))); err != nil {
		return &StorageError{Op: "create staging table", Path: s.path, Err: err}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(tbl.Columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(staging), placeholders))
	if err != nil {
		return &StorageError{Op: "prepare insert", Path: s.path, Err: err}
	}
	defer stmt.Close()

	args := make([]any, len(tbl.Columns))
	for r := range tbl.Rows {
		for c := range tbl.Columns {
			args[c] = cellValue(tbl.Cell(r, c), types[c])
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return &StorageError{Op: fmt.Sprintf("insert row %d", r+1), Path: s.path, Err: err}
		}
	}
	if err = stmt.Close(); err != nil {
		return &StorageError{Op: "prepare insert", Path: s.path, Err: err}
	}

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return &StorageError{Op: "drop " + name, Path: s.path, Err: err}
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(staging), quoteIdent(name))); err != nil {
		return &StorageError{Op: "swap " + name, Path: s.path, Err: err}
	}
	if err = tx.Commit(); err != nil {
		return &StorageError{Op: "commit", Path: s.path, Err: err}
	}
	return nil
}

// Columns returns the column names of table name in declaration order. A
// missing table yields an empty slice.
func (s *Store) Columns(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, name)
	if err != nil {
		return nil, &StorageError{Op: "table info " + name, Path: s.path, Err: err}
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, &StorageError{Op: "table info " + name, Path: s.path, Err: err}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// HasColumn reports whether table name carries column col.
func (s *Store) HasColumn(ctx context.Context, name, col string) (bool, error) {
	cols, err := s.Columns(ctx, name)
	if err != nil {
		return false, err
	}
	for _, c := range cols {
		if c == col {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of rows in table name.
func (s *Store) Count(ctx context.Context, name string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&n); err != nil {
		return 0, &StorageError{Op: "count " + name, Path: s.path, Err: err}
	}
	return n, nil
}

// Tables lists user tables, used to assert no staging table is left behind.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, &StorageError{Op: "list tables", Path: s.path, Err: err}
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ReadTable loads every row of table name back into a string table.
func (s *Store) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name))
	if err != nil {
		return nil, &StorageError{Op: "read " + name, Path: s.path, Err: err}
	}
	defer rows.Close()
	cols, vals, err := ScanAll(rows)
	if err != nil {
		return nil, &StorageError{Op: "read " + name, Path: s.path, Err: err}
	}
	out := &table.Table{Name: name, Columns: cols, Rows: make([][]string, len(vals))}
	for i, r := range vals {
		row := make([]string, len(r))
		for j, v := range r {
			row[j] = FormatValue(v)
		}
		out.Rows[i] = row
	}
	return out, nil
}

func columnTypes(tbl *table.Table) []string {
	out := make([]string, len(tbl.Columns))
	for i := range tbl.Columns {
		switch {
		case tbl.IsNumeric(i) && tbl.IsIntegral(i):
			out[i] = "INTEGER"
		case tbl.IsNumeric(i):
			out[i] = "REAL"
		default:
			out[i] = "TEXT"
		}
	}
	return out
}

func cellValue(raw, typ string) any {
	if table.IsMissing(raw) {
		return nil
	}
	switch typ {
	case "INTEGER":
		f, _ := table.ParseNumber(raw)
		return int64(f)
	case "REAL":
		f, _ := table.ParseNumber(raw)
		return f
	default:
		return raw
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
