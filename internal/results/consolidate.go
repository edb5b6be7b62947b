package results

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/zakaria-lahyani/backtester/internal/logger"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
	"go.uber.org/zap"
)

// ConsolidateSummaries unions every per-strategy summary file of the sweep
// into the consolidated summary file and returns its path. Unreadable files
// are skipped with a warning.
func ConsolidateSummaries(ctx context.Context, log *logger.Logger, layout Layout) (string, error) {
	entries, err := os.ReadDir(layout.SummaryDir())
	if err != nil && !os.IsNotExist(err) {
		return "", errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to list %s", layout.SummaryDir())
	}

	var files []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".parquet") {
			continue
		}

		files = append(files, filepath.Join(layout.SummaryDir(), entry.Name()))
	}

	if len(files) == 0 {
		return "", errors.Newf(errors.ErrCodeNoDataFound, "no parquet files found in %s", layout.SummaryDir())
	}

	sort.Strings(files)

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to open DuckDB connection", err)
	}
	defer db.Close()

	readable := make([]string, 0, len(files))

	for _, file := range files {
		query := fmt.Sprintf(`SELECT COUNT(*) FROM read_parquet('%s')`, escapePath(file))

		var n int
		if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}

			log.Warn("Skipping unreadable summary file", zap.String("path", file), zap.Error(err))

			continue
		}

		readable = append(readable, "'"+escapePath(file)+"'")
	}

	if len(readable) == 0 {
		return "", errors.Newf(errors.ErrCodeNoDataFound, "no readable parquet files in %s", layout.SummaryDir())
	}

	output := layout.ConsolidatedPath()

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		COPY (SELECT * FROM read_parquet([%s], union_by_name = true))
		TO '%s' (FORMAT PARQUET)
	`, strings.Join(readable, ", "), escapePath(output)))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to write consolidated summary", err)
	}

	log.Info("Consolidated summaries", zap.Int("files", len(readable)), zap.String("path", output))

	return output, nil
}
