package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/marcboeker/go-duckdb"
	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/logger"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
	"go.uber.org/zap"
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource opens a DuckDB database used as a query engine over parquet
// files. path is the database location; ":memory:" keeps nothing on disk.
func NewDataSource(path string, logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(`SET threads=4;`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to set DuckDB options", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// ReadSchema implements DataSource.
func (d *DuckDBDataSource) ReadSchema(ctx context.Context, path string) ([]string, error) {
	query := fmt.Sprintf(`DESCRIBE SELECT * FROM read_parquet('%s')`, escapePath(path))

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read schema of %s", path)
	}
	defer rows.Close()

	fields, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read schema of %s", path)
	}

	nameIdx := -1

	for i, f := range fields {
		if f == "column_name" {
			nameIdx = i
		}
	}

	if nameIdx < 0 {
		return nil, errors.Newf(errors.ErrCodeQueryFailed, "unexpected DESCRIBE output for %s", path)
	}

	var columns []string

	for rows.Next() {
		values := make([]any, len(fields))
		pointers := make([]any, len(fields))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to scan schema of %s", path)
		}

		columns = append(columns, fmt.Sprint(values[nameIdx]))
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read schema of %s", path)
	}

	return columns, nil
}

// LoadColumns implements DataSource.
func (d *DuckDBDataSource) LoadColumns(ctx context.Context, path string, columns []string) (*frame.Frame, error) {
	available, err := d.ReadSchema(ctx, path)
	if err != nil {
		return nil, err
	}

	selected := selectColumns(columns)

	for _, column := range selected {
		if !contains(available, column) {
			return nil, errors.Newf(errors.ErrCodeMissingColumn, "column %q not found in %s", column, path)
		}
	}

	quoted := make([]string, len(selected))
	for i, c := range selected {
		quoted[i] = quoteIdent(c)
	}

	query, args, err := d.sq.
		Select(quoted...).
		From(fmt.Sprintf("read_parquet('%s')", escapePath(path))).
		OrderBy(quoteIdent(frame.TimeColumn) + " ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	d.logger.Debug("Loading columns", zap.String("path", path), zap.Strings("columns", selected))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read %s", path)
	}
	defer rows.Close()

	var (
		times []time.Time
		cells = make([][]frame.Value, len(selected)-1)
	)

	for rows.Next() {
		values := make([]any, len(selected))
		pointers := make([]any, len(selected))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to scan %s", path)
		}

		t, err := toTime(values[0])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "invalid time in %s", path)
		}

		times = append(times, t)

		for i, v := range values[1:] {
			cells[i] = append(cells[i], frame.Coerce(normalize(v)))
		}
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read %s", path)
	}

	f, err := frame.New(path, times)
	if err != nil {
		return nil, err
	}

	for i, column := range selected[1:] {
		values := cells[i]
		if values == nil {
			values = []frame.Value{}
		}

		if err := f.AddColumn(column, values); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

// selectColumns puts the base columns first and drops duplicates.
func selectColumns(columns []string) []string {
	selected := append([]string(nil), BaseColumns...)

	for _, c := range columns {
		if !contains(selected, c) {
			selected = append(selected, c)
		}
	}

	return selected
}

func toTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006.01.02 15:04"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}

		return time.Time{}, fmt.Errorf("unparseable timestamp %q", v)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", raw)
	}
}

// normalize converts driver types frame.Coerce does not know about.
func normalize(raw any) any {
	switch v := raw.(type) {
	case duckdb.Decimal:
		if v.Value == nil {
			return nil
		}

		scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(v.Scale)), nil))
		f, _ := new(big.Float).Quo(new(big.Float).SetInt(v.Value), scale).Float64()

		return f
	case *big.Int:
		if v == nil {
			return nil
		}

		f, _ := new(big.Float).SetInt(v).Float64()

		return f
	case []byte:
		return string(v)
	default:
		return raw
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
