package results

import (
	"fmt"
	"strings"

	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// WriteFrame writes a frame to a parquet file ordered by time. Columns
// holding any text are stored as VARCHAR, the rest as DOUBLE. Absent cells
// are written as NULL.
func WriteFrame(path string, f *frame.Frame) error {
	columns := append([]string{frame.TimeColumn}, f.Columns()...)
	definitions := []string{fmt.Sprintf(`"%s" TIMESTAMP`, frame.TimeColumn)}

	data := make([][]frame.Value, 0, len(columns)-1)

	for _, name := range f.Columns() {
		values, _ := f.Column(name)
		data = append(data, values)
		definitions = append(definitions, fmt.Sprintf(`"%s" %s`, name, columnType(values)))
	}

	table := newParquetTable(path, "frame", quoteAll([]string{frame.TimeColumn})[0])
	if err := table.initialize(strings.Join(definitions, ", ")); err != nil {
		return err
	}
	defer table.close()

	rows := make([][]any, f.Len())
	for i := range rows {
		row := make([]any, len(columns))
		row[0] = f.Time(i)

		for j, values := range data {
			row[j+1] = cell(values[i])
		}

		rows[i] = row
	}

	if err := table.insert(quoteAll(columns), rows); err != nil {
		return err
	}

	if err := table.flush(); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to write frame %s", f.Name())
	}

	return nil
}

func columnType(values []frame.Value) string {
	for _, v := range values {
		if v.Kind() == frame.KindText {
			return "VARCHAR"
		}
	}

	return "DOUBLE"
}

func cell(v frame.Value) any {
	if n, ok := v.Float(); ok {
		return n
	}

	if s, ok := v.Str(); ok {
		return s
	}

	return nil
}
