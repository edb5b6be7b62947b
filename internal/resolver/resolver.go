// Package resolver works out which indicator files a strategy needs. It
// only ever looks at file schemas, never at file contents.
package resolver

import (
	"sort"
	"strings"

	"github.com/zakaria-lahyani/backtester/internal/strategy"
)

// FileReference maps timeframe -> file path -> columns present in the file.
type FileReference map[string]map[string][]string

// FilesNeeded maps timeframe -> file path -> columns to load from the file.
type FilesNeeded map[string]map[string][]string

// Requirement is a column a strategy reads, tagged with the timeframe it is
// read from. Timeframe is empty when the condition carries none.
type Requirement struct {
	Column    string
	Timeframe string
}

// HasTimeframe reports whether the requirement is tagged with a timeframe.
func (r Requirement) HasTimeframe() bool {
	return r.Timeframe != ""
}

// RequiredColumns lists every signal column and every string value across
// the entry and exit sides of a document, deduplicated and sorted. String
// values are included because they may name threshold columns.
func RequiredColumns(doc *strategy.Document) []Requirement {
	seen := make(map[Requirement]struct{})

	for _, group := range doc.Groups() {
		for _, c := range group.Conditions {
			tf := ""
			if c.Timeframe.IsSome() {
				tf = c.Timeframe.Unwrap()
			}

			if c.Signal != "" {
				seen[Requirement{Column: c.Signal, Timeframe: tf}] = struct{}{}
			}

			if name, ok := c.ValueName(); ok && name != "" {
				seen[Requirement{Column: name, Timeframe: tf}] = struct{}{}
			}
		}
	}

	reqs := make([]Requirement, 0, len(seen))
	for r := range seen {
		reqs = append(reqs, r)
	}

	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Column != reqs[j].Column {
			return reqs[i].Column < reqs[j].Column
		}

		return reqs[i].Timeframe < reqs[j].Timeframe
	})

	return reqs
}

// FindFiles selects, for every requirement whose timeframe is present in
// the reference, each file of that timeframe containing the column. Columns
// written with their aligned "_<tf>" suffix match the raw file column.
// Requirements without a timeframe are ignored.
func FindFiles(reqs []Requirement, ref FileReference) FilesNeeded {
	sets := make(map[string]map[string]map[string]struct{})

	for _, req := range reqs {
		if !req.HasTimeframe() {
			continue
		}

		files, ok := ref[req.Timeframe]
		if !ok {
			continue
		}

		candidates := []string{req.Column}
		if trimmed := TrimTimeframeSuffix(req.Column, req.Timeframe); trimmed != req.Column {
			candidates = append(candidates, trimmed)
		}

		for path, columns := range files {
			for _, candidate := range candidates {
				if !contains(columns, candidate) {
					continue
				}

				if sets[req.Timeframe] == nil {
					sets[req.Timeframe] = make(map[string]map[string]struct{})
				}

				if sets[req.Timeframe][path] == nil {
					sets[req.Timeframe][path] = make(map[string]struct{})
				}

				sets[req.Timeframe][path][candidate] = struct{}{}

				break
			}
		}
	}

	needed := make(FilesNeeded, len(sets))

	for tf, files := range sets {
		needed[tf] = make(map[string][]string, len(files))

		for path, columns := range files {
			list := make([]string, 0, len(columns))
			for c := range columns {
				list = append(list, c)
			}

			sort.Strings(list)
			needed[tf][path] = list
		}
	}

	return needed
}

// TrimTimeframeSuffix strips a trailing "_<tf>" from a column name.
// "rsi_14_60" with timeframe "60" becomes "rsi_14"; other names are
// returned unchanged.
func TrimTimeframeSuffix(column, timeframe string) string {
	suffix := "_" + timeframe
	if timeframe == "" || !strings.HasSuffix(column, suffix) || len(column) == len(suffix) {
		return column
	}

	return strings.TrimSuffix(column, suffix)
}

// Files returns the sorted file paths of one timeframe.
func (f FilesNeeded) Files(timeframe string) []string {
	paths := make([]string, 0, len(f[timeframe]))
	for path := range f[timeframe] {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	return paths
}

func contains(columns []string, column string) bool {
	for _, c := range columns {
		if c == column {
			return true
		}
	}

	return false
}
