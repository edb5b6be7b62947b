package resample

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/zakaria-lahyani/backtester/internal/logger"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
	"go.uber.org/zap"
)

// Rule derives one timeframe. Name is used in the output file name.
type Rule struct {
	Minutes int
	Name    string
}

// DefaultRules are the timeframes derived from minute bars. Weekly buckets
// start on Monday.
var DefaultRules = []Rule{
	{Minutes: 5, Name: "5"},
	{Minutes: 15, Name: "15"},
	{Minutes: 30, Name: "30"},
	{Minutes: 60, Name: "60"},
	{Minutes: 240, Name: "240"},
	{Minutes: 1440, Name: "DAILY"},
	{Minutes: 10080, Name: "WEEKLY"},
}

// ParseRules parses a comma separated list of minute counts. 1440 and 10080
// are named DAILY and WEEKLY.
func ParseRules(list string) ([]Rule, error) {
	var rules []Rule

	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		minutes, err := strconv.Atoi(part)
		if err != nil || minutes <= 1 {
			return nil, errors.Newf(errors.ErrCodeInvalidTimeframe, "invalid target timeframe %q", part)
		}

		rules = append(rules, Rule{Minutes: minutes, Name: RuleName(minutes)})
	}

	if len(rules) == 0 {
		return nil, errors.New(errors.ErrCodeMissingParameter, "no target timeframes")
	}

	return rules, nil
}

// RuleName is the file name part of a timeframe in minutes.
func RuleName(minutes int) string {
	switch minutes {
	case 1440:
		return "DAILY"
	case 10080:
		return "WEEKLY"
	}

	return strconv.Itoa(minutes)
}

// Resampler writes bar files through DuckDB.
type Resampler struct {
	db     *sql.DB
	logger *logger.Logger
}

func NewResampler(logger *logger.Logger) (*Resampler, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &Resampler{
		db:     db,
		logger: logger,
	}, nil
}

// Close releases database resources.
func (r *Resampler) Close() error {
	return r.db.Close()
}

// BaseFile is the minute bar file of a symbol in dir.
func BaseFile(dir, symbol string) string {
	return TimeframeFile(dir, symbol, "1")
}

// TimeframeFile is the bar file of a symbol and timeframe name in dir.
func TimeframeFile(dir, symbol, name string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.parquet", strings.ToUpper(symbol), name))
}

// WriteBars writes bars to a parquet file ordered by time.
func (r *Resampler) WriteBars(ctx context.Context, path string, bars []types.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create output directory", err)
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to acquire connection", err)
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, `
		CREATE OR REPLACE TEMP TABLE bars (
			time TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			tick_volume DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create bars table", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO bars VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, b.Time, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert bar", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit bars", err)
	}

	_, err = conn.ExecContext(ctx, fmt.Sprintf(`
		COPY (SELECT * FROM bars ORDER BY time ASC)
		TO '%s' (FORMAT PARQUET)
	`, escapePath(path)))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to write %s", path)
	}

	r.logger.Info("Saved bars", zap.Int("rows", len(bars)), zap.String("path", path))

	return nil
}

// Resample aggregates the bar file at input into buckets of the given
// minutes: first open, highest high, lowest low, last close and summed
// volume. Buckets without bars are not emitted.
func (r *Resampler) Resample(ctx context.Context, input, output string, minutes int) (int, error) {
	if minutes <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "invalid bucket size %d", minutes)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return 0, errors.Wrap(errors.ErrCodeWriteFailed, "failed to create output directory", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT bucket AS time, open, high, low, close, tick_volume
		FROM (
			SELECT
				time_bucket(INTERVAL '%d minutes', time) AS bucket,
				arg_min(open, time) AS open,
				max(high) AS high,
				min(low) AS low,
				arg_max(close, time) AS close,
				sum(tick_volume) AS tick_volume
			FROM read_parquet('%s')
			GROUP BY bucket
		)
		ORDER BY time
	`, minutes, escapePath(input))

	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`COPY (%s) TO '%s' (FORMAT PARQUET)`, selectQuery, escapePath(output))); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to resample %s", input)
	}

	var rows int

	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM read_parquet('%s')`, escapePath(output))).Scan(&rows)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to count %s", output)
	}

	r.logger.Info("Saved resampled bars",
		zap.Int("minutes", minutes), zap.Int("rows", rows), zap.String("path", output))

	return rows, nil
}

// Import reads raw bar files, drops duplicate timestamps and writes the
// minute bar file of the symbol into dir.
func (r *Resampler) Import(ctx context.Context, dir, symbol string, files []string) (string, error) {
	if len(files) == 0 {
		return "", errors.New(errors.ErrCodeNoDataFound, "no input files")
	}

	bars, err := ReadFiles(files)
	if err != nil {
		return "", err
	}

	if len(bars) == 0 {
		return "", errors.New(errors.ErrCodeNoDataFound, "no bars parsed from input files")
	}

	output := BaseFile(dir, symbol)
	if err := r.WriteBars(ctx, output, bars); err != nil {
		return "", err
	}

	return output, nil
}

// DeriveAll writes one file per rule from the minute bar file of the symbol.
func (r *Resampler) DeriveAll(ctx context.Context, dir, symbol string, rules []Rule) ([]string, error) {
	input := BaseFile(dir, symbol)
	outputs := make([]string, 0, len(rules))

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}

		output := TimeframeFile(dir, symbol, rule.Name)
		if _, err := r.Resample(ctx, input, output, rule.Minutes); err != nil {
			return outputs, err
		}

		outputs = append(outputs, output)
	}

	return outputs, nil
}

func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
