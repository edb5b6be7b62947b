package results

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// parquetTable is an in-memory DuckDB table exported to a single parquet
// file on every flush.
type parquetTable struct {
	db         *sql.DB
	outputPath string
	name       string
	orderBy    string
	mu         sync.Mutex
}

func newParquetTable(outputPath, name, orderBy string) *parquetTable {
	return &parquetTable{
		db:         nil,
		outputPath: outputPath,
		name:       name,
		orderBy:    orderBy,
		mu:         sync.Mutex{},
	}
}

// initialize creates the output directory and the table.
func (t *parquetTable) initialize(schema string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.outputPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create output directory", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to open DuckDB connection", err)
	}

	t.db = db

	_, err = t.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s)`, t.name, schema))
	if err != nil {
		t.db.Close()
		t.db = nil

		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create %s table", t.name)
	}

	return nil
}

// insert adds rows inside one transaction.
func (t *parquetTable) insert(columns []string, rows [][]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db == nil {
		return errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, t.name, strings.Join(columns, ", "), placeholders)

	tx, err := t.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()

		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to prepare insert into %s", t.name)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row...); err != nil {
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to insert into %s", t.name)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit", err)
	}

	return nil
}

// flush exports the table to the parquet file.
func (t *parquetTable) flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db == nil {
		return errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	_, err := t.db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM %s ORDER BY %s ASC)
		TO '%s' (FORMAT PARQUET)
	`, t.name, t.orderBy, escapePath(t.outputPath)))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to export %s to parquet", t.name)
	}

	return nil
}

func (t *parquetTable) count() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db == nil {
		return 0, errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	var count int

	err := t.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t.name)).Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to count %s", t.name)
	}

	return count, nil
}

func (t *parquetTable) close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db != nil {
		if err := t.db.Close(); err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to close database", err)
		}

		t.db = nil
	}

	return nil
}

func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
