package resolver

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zakaria-lahyani/backtester/internal/logger"
	"go.uber.org/zap"
)

// DefaultTimeframes are the timeframes indicator files are produced for.
var DefaultTimeframes = []string{"1", "5", "15", "30", "60", "240"}

// SchemaReader reads the column names of a columnar file without loading it.
type SchemaReader interface {
	ReadSchema(ctx context.Context, path string) ([]string, error)
}

// BuildFileReference scans dataPath/<indicator folder>/<symbol>_<tf>_*.parquet
// and records the schema of every matching file. Timeframes absent from the
// data still appear with an empty file map. Unreadable files are skipped.
func BuildFileReference(
	ctx context.Context,
	reader SchemaReader,
	log *logger.Logger,
	symbol string,
	dataPath string,
	timeframes []string,
) (FileReference, error) {
	if len(timeframes) == 0 {
		timeframes = DefaultTimeframes
	}

	ref := make(FileReference, len(timeframes))
	for _, tf := range timeframes {
		ref[tf] = make(map[string][]string)
	}

	folders, err := os.ReadDir(dataPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Data path does not exist", zap.String("path", dataPath))

			return ref, nil
		}

		return nil, err
	}

	for _, folder := range folders {
		if !folder.IsDir() {
			continue
		}

		folderPath := filepath.Join(dataPath, folder.Name())

		files, err := os.ReadDir(folderPath)
		if err != nil {
			log.Warn("Could not list indicator folder", zap.String("path", folderPath), zap.Error(err))

			continue
		}

		for _, file := range files {
			tf, ok := matchTimeframe(file.Name(), symbol, timeframes)
			if !ok {
				continue
			}

			if err := ctx.Err(); err != nil {
				return nil, err
			}

			path := filepath.Join(folderPath, file.Name())

			columns, err := reader.ReadSchema(ctx, path)
			if err != nil {
				log.Warn("Could not read schema", zap.String("path", path), zap.Error(err))

				continue
			}

			ref[tf][path] = columns
		}
	}

	total := 0
	for _, files := range ref {
		total += len(files)
	}

	log.Info("Built file reference", zap.String("symbol", symbol), zap.Int("files", total))

	return ref, nil
}

// matchTimeframe returns the timeframe a file name belongs to.
func matchTimeframe(name, symbol string, timeframes []string) (string, bool) {
	if !strings.HasSuffix(name, ".parquet") {
		return "", false
	}

	for _, tf := range timeframes {
		if strings.HasPrefix(name, symbol+"_"+tf+"_") {
			return tf, true
		}
	}

	return "", false
}

// Timeframes returns the timeframes of the reference that hold files, sorted
// lexically.
func (r FileReference) Timeframes() []string {
	tfs := make([]string, 0, len(r))

	for tf, files := range r {
		if len(files) > 0 {
			tfs = append(tfs, tf)
		}
	}

	sort.Strings(tfs)

	return tfs
}
