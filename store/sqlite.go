package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const defaultSQLiteTable = "survey"

// SQLiteTable appends survey rows to a table of a sqlite database. The
// table is created from the first header it receives.
type SQLiteTable struct {
	sync.Mutex
	db    *sql.DB
	path  string
	table string
}

func NewSQLiteTable(path, table string) (*SQLiteTable, error) {
	if table == "" {
		table = defaultSQLiteTable
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	log.WithFields(log.Fields{
		"prefix": tableLogPrefix,
		"path":   path,
		"table":  table,
	}).Info("sqlite table opened")

	return &SQLiteTable{db: db, path: path, table: table}, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (t *SQLiteTable) columns(ctx context.Context) ([]string, error) {
	rows, err := t.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", t.table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// Append inserts one row, creating the table when it does not exist yet
func (t *SQLiteTable) Append(ctx context.Context, header, row []string) (string, error) {
	if len(header) != len(row) {
		return "", fmt.Errorf("row has %d values for %d columns", len(row), len(header))
	}

	t.Lock()
	defer t.Unlock()

	existing, err := t.columns(ctx)
	if err != nil {
		return "", err
	}

	quoted := make([]string, len(header))
	for i, h := range header {
		quoted[i] = quoteIdent(h)
	}

	if len(existing) == 0 {
		defs := make([]string, len(quoted))
		for i, q := range quoted {
			defs[i] = q + " TEXT"
		}
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(t.table), strings.Join(defs, ", "))
		if _, err := t.db.ExecContext(ctx, stmt); err != nil {
			return "", err
		}
	} else if !slices.Equal(existing, header) {
		return "", fmt.Errorf("%w: table %s has columns %q", ErrHeaderMismatch, t.table, existing)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(row)), ", ")
	args := make([]interface{}, len(row))
	for i, v := range row {
		args[i] = v
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(t.table), strings.Join(quoted, ", "), placeholders)
	if _, err := t.db.ExecContext(ctx, stmt, args...); err != nil {
		return "", err
	}

	return t.path + "#" + t.table, nil
}

// Rows returns every stored row in insertion order
func (t *SQLiteTable) Rows(ctx context.Context) ([][]string, error) {
	t.Lock()
	defer t.Unlock()

	existing, err := t.columns(ctx)
	if err != nil || len(existing) == 0 {
		return nil, err
	}

	rows, err := t.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", quoteIdent(t.table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		values := make([]sql.NullString, len(existing))
		dest := make([]interface{}, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = v.String
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (t *SQLiteTable) Close() error {
	return t.db.Close()
}
