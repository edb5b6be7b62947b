// Package alignment merges indicator tables computed on several timeframes
// onto the timeline of the smallest one without leaking future data.
//
// A higher timeframe bar opened at T with duration D is only known at T+D.
// Each base row at t receives the most recent higher bar whose close time is
// <= t (a backward as-of join on close time). Early base rows with no closed
// higher bar yet get absent values.
package alignment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// Align merges tables keyed by timeframe in minutes. The result is keyed on
// the smallest timeframe and named after all timeframes in ascending order.
func Align(tables map[int]*frame.Frame) (*frame.Frame, error) {
	if len(tables) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "no timeframe data supplied")
	}

	timeframes := make([]int, 0, len(tables))

	for tf, table := range tables {
		if tf <= 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidTimeframe, "timeframe must be a positive number of minutes, got %d", tf)
		}

		if table == nil {
			return nil, errors.Newf(errors.ErrCodeEmptyInput, "timeframe %d has no table", tf)
		}

		timeframes = append(timeframes, tf)
	}

	sort.Ints(timeframes)

	name := Key(timeframes)
	base := tables[timeframes[0]]

	if len(timeframes) == 1 {
		return base.WithName(name), nil
	}

	aligned, err := frame.New(name, base.Times())
	if err != nil {
		return nil, err
	}

	for _, column := range base.Columns() {
		values, _ := base.Column(column)

		target := column
		if !frame.IsOHLC(column) {
			target = Suffix(column, timeframes[0])
		}

		if err := aligned.AddColumn(target, values); err != nil {
			return nil, err
		}
	}

	for _, tf := range timeframes[1:] {
		if err := joinBackward(aligned, tables[tf], tf); err != nil {
			return nil, err
		}
	}

	return aligned, nil
}

// AlignByName is Align for string timeframe identifiers as they appear in
// strategy documents and file references.
func AlignByName(tables map[string]*frame.Frame) (*frame.Frame, error) {
	if len(tables) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "no timeframe data supplied")
	}

	parsed := make(map[int]*frame.Frame, len(tables))

	for name, table := range tables {
		tf, err := ParseTimeframe(name)
		if err != nil {
			return nil, err
		}

		if _, dup := parsed[tf]; dup {
			return nil, errors.Newf(errors.ErrCodeInvalidTimeframe, "timeframe %q supplied twice", name)
		}

		parsed[tf] = table
	}

	return Align(parsed)
}

// ParseTimeframe validates a timeframe identifier as a positive integer.
func ParseTimeframe(name string) (int, error) {
	tf, err := strconv.Atoi(strings.TrimSpace(name))
	if err != nil || tf <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "timeframe %q is not a positive number of minutes", name)
	}

	return tf, nil
}

// Key builds the canonical multi-timeframe name, e.g. "60_240".
func Key(timeframes []int) string {
	parts := make([]string, len(timeframes))
	for i, tf := range timeframes {
		parts[i] = strconv.Itoa(tf)
	}

	return strings.Join(parts, "_")
}

// KeyFor builds the canonical name from the identifiers of a strategy
// document. Identifiers are ordered by duration so the key matches Align.
func KeyFor(timeframes []string) (string, error) {
	parsed := make([]int, 0, len(timeframes))

	for _, name := range timeframes {
		tf, err := ParseTimeframe(name)
		if err != nil {
			return "", err
		}

		parsed = append(parsed, tf)
	}

	if len(parsed) == 0 {
		return "", errors.New(errors.ErrCodeEmptyInput, "no timeframes declared")
	}

	sort.Ints(parsed)

	return Key(parsed), nil
}

// Suffix namespaces a column by its originating timeframe.
func Suffix(column string, timeframe int) string {
	return fmt.Sprintf("%s_%d", column, timeframe)
}

// CloseTime is the instant a bar opened at openTime becomes known.
func CloseTime(openTime time.Time, timeframe int) time.Time {
	return openTime.Add(time.Duration(timeframe) * time.Minute)
}

func joinBackward(aligned *frame.Frame, higher *frame.Frame, tf int) error {
	closeTimes := make([]time.Time, higher.Len())
	for i, t := range higher.Times() {
		closeTimes[i] = CloseTime(t, tf)
	}

	matches := asofBackward(aligned.Times(), closeTimes)
	if err := verifyNoLookahead(aligned.Times(), closeTimes, matches, tf); err != nil {
		return err
	}

	for _, column := range higher.Columns() {
		if frame.IsOHLC(column) {
			continue
		}

		src, _ := higher.Column(column)
		target := Suffix(column, tf)

		values := make([]frame.Value, len(matches))

		for row, match := range matches {
			if match < 0 {
				values[row] = frame.Absent()

				continue
			}

			values[row] = src[match]
		}

		if err := aligned.AddColumn(target, values); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "timeframe %d", tf)
		}
	}

	return nil
}

// asofBackward returns, for every base timestamp, the index of the last
// close time <= that timestamp, or -1. Both inputs are ascending.
func asofBackward(base []time.Time, closeTimes []time.Time) []int {
	matches := make([]int, len(base))
	j := -1

	for i, t := range base {
		for j+1 < len(closeTimes) && !closeTimes[j+1].After(t) {
			j++
		}

		matches[i] = j
	}

	return matches
}

func verifyNoLookahead(base []time.Time, closeTimes []time.Time, matches []int, tf int) error {
	for row, match := range matches {
		if match < 0 {
			continue
		}

		if closeTimes[match].After(base[row]) {
			return errors.NewLookaheadViolationError(tf, match, base[row], closeTimes[match])
		}
	}

	return nil
}
