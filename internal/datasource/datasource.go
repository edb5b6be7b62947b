// Package datasource loads indicator tables from columnar files into frames.
package datasource

import (
	"context"

	"github.com/zakaria-lahyani/backtester/internal/frame"
)

// BaseColumns are loaded from every file alongside the requested columns.
var BaseColumns = []string{frame.TimeColumn, "open", "high", "low", "close"}

type DataSource interface {
	// LoadColumns reads the base columns plus the given columns of one file,
	// ordered by time.
	LoadColumns(ctx context.Context, path string, columns []string) (*frame.Frame, error)
	// ReadSchema returns the column names of a file without reading its rows.
	ReadSchema(ctx context.Context, path string) ([]string, error)
	// Close closes the data source and releases any resources
	Close() error
}
