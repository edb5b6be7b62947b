// Package frame holds the time-indexed tables the signal engine works on.
//
// A Frame is a strictly increasing timestamp index plus an ordered set of
// named columns of Values. Frames are treated as immutable once built:
// every transform in this module returns a new Frame and never writes into
// the column slices of its inputs, so one loaded Frame can be shared across
// concurrently evaluated strategies.
package frame

import (
	"math"
	"time"

	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// TimeColumn is the name of the timestamp index in source tables.
const TimeColumn = "time"

// OHLC lists the price columns every source table carries.
var OHLC = []string{"open", "high", "low", "close"}

// IsOHLC reports whether a column is one of the base price columns.
func IsOHLC(name string) bool {
	for _, c := range OHLC {
		if c == name {
			return true
		}
	}

	return false
}

type Frame struct {
	name    string
	times   []time.Time
	columns []string
	data    map[string][]Value
}

// New creates an empty frame over the given index. The index must be
// strictly increasing; duplicates are rejected.
func New(name string, times []time.Time) (*Frame, error) {
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return nil, errors.Newf(errors.ErrCodeUnorderedIndex,
				"frame %q: timestamp %s at row %d is not after %s",
				name, times[i].Format(time.RFC3339), i, times[i-1].Format(time.RFC3339))
		}
	}

	index := make([]time.Time, len(times))
	copy(index, times)

	return &Frame{
		name:    name,
		times:   index,
		columns: nil,
		data:    make(map[string][]Value),
	}, nil
}

// Name returns the frame name. For aligned frames it is the multi-timeframe key.
func (f *Frame) Name() string {
	return f.name
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.times)
}

// Times returns the timestamp index. Callers must not modify it.
func (f *Frame) Times() []time.Time {
	return f.times
}

// Time returns the timestamp of row i.
func (f *Frame) Time(i int) time.Time {
	return f.times[i]
}

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)

	return out
}

// HasColumn reports whether the frame carries the named column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.data[name]

	return ok
}

// Column returns the values of the named column. Callers must not modify them.
func (f *Frame) Column(name string) ([]Value, bool) {
	values, ok := f.data[name]

	return values, ok
}

// Floats returns a numeric copy of a column with absent or text cells as NaN.
func (f *Frame) Floats(name string) ([]float64, error) {
	values, ok := f.data[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeMissingColumn, "column %q not found in frame %q", name, f.name)
	}

	out := make([]float64, len(values))

	for i, v := range values {
		n, ok := v.Float()
		if !ok {
			n = math.NaN()
		}

		out[i] = n
	}

	return out, nil
}

// AddColumn attaches a column while the frame is being built.
func (f *Frame) AddColumn(name string, values []Value) error {
	if name == "" || name == TimeColumn {
		return errors.Newf(errors.ErrCodeInvalidParameter, "frame %q: invalid column name %q", f.name, name)
	}

	if len(values) != len(f.times) {
		return errors.Newf(errors.ErrCodeLengthMismatch,
			"frame %q: column %q has %d values for %d rows", f.name, name, len(values), len(f.times))
	}

	if _, exists := f.data[name]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "frame %q: column %q already exists", f.name, name)
	}

	f.columns = append(f.columns, name)
	f.data[name] = values

	return nil
}

// AddFloats attaches a numeric column. NaN entries become absent.
func (f *Frame) AddFloats(name string, values []float64) error {
	converted := make([]Value, len(values))
	for i, v := range values {
		converted[i] = Number(v)
	}

	return f.AddColumn(name, converted)
}

// AddTexts attaches a categorical column.
func (f *Frame) AddTexts(name string, values []string) error {
	converted := make([]Value, len(values))
	for i, v := range values {
		converted[i] = Text(v)
	}

	return f.AddColumn(name, converted)
}

// WithName returns a frame sharing this frame's data under another name.
func (f *Frame) WithName(name string) *Frame {
	return &Frame{
		name:    name,
		times:   f.times,
		columns: f.Columns(),
		data:    f.shareData(),
	}
}

// Between returns the rows whose timestamps fall inside [start, end]. A zero
// bound is open.
func (f *Frame) Between(start, end time.Time) *Frame {
	lo, hi := 0, len(f.times)

	for lo < hi && !start.IsZero() && f.times[lo].Before(start) {
		lo++
	}

	for hi > lo && !end.IsZero() && f.times[hi-1].After(end) {
		hi--
	}

	out := &Frame{
		name:    f.name,
		times:   f.times[lo:hi],
		columns: f.Columns(),
		data:    make(map[string][]Value, len(f.data)),
	}

	for name, values := range f.data {
		out.data[name] = values[lo:hi]
	}

	return out
}

func (f *Frame) shareData() map[string][]Value {
	data := make(map[string][]Value, len(f.data))
	for name, values := range f.data {
		data[name] = values
	}

	return data
}
