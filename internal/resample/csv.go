// Package resample imports raw minute bars and derives the higher timeframe
// bar files indicators are computed from.
package resample

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Columns of a raw bar file, in order. Raw files carry no header.
var Columns = []string{"time", "open", "high", "low", "close", "tick_volume"}

// Separator of raw bar files.
const Separator = ';'

var timeLayouts = []string{
	"20060102 150405",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// ReadBars parses ';'-separated bars. UTF-16 input with a byte order mark is
// decoded transparently. Rows that cannot be parsed, such as a header, are
// skipped.
func ReadBars(r io.Reader) ([]types.Bar, error) {
	br := bufio.NewReader(r)

	if b, _ := br.Peek(2); len(b) == 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		br = bufio.NewReader(transform.NewReader(br, decoder))
	}

	reader := csv.NewReader(br)
	reader.Comma = Separator
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var bars []types.Bar

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read bars", err)
		}

		bar, ok := parseBar(rec)
		if !ok {
			continue
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

// ReadFiles reads every file in order and keeps the first bar of every
// timestamp. The result is sorted by time.
func ReadFiles(paths []string) ([]types.Bar, error) {
	var all []types.Bar

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open %s", path)
		}

		bars, err := ReadBars(f)
		f.Close()

		if err != nil {
			return nil, errors.Wrapf(errors.GetCode(err), err, "file %s", path)
		}

		all = append(all, bars...)
	}

	return Dedupe(all), nil
}

// Dedupe drops bars whose timestamp was already seen, keeping the first,
// and sorts the rest by time.
func Dedupe(bars []types.Bar) []types.Bar {
	seen := make(map[int64]struct{}, len(bars))
	out := make([]types.Bar, 0, len(bars))

	for _, bar := range bars {
		key := bar.Time.UnixNano()
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, bar)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	return out
}

func parseBar(rec []string) (types.Bar, bool) {
	if len(rec) < 5 {
		return types.Bar{}, false
	}

	t, ok := parseTime(strings.TrimPrefix(strings.TrimSpace(rec[0]), "\ufeff"))
	if !ok {
		return types.Bar{}, false
	}

	values := make([]float64, 5)

	for i := 1; i < len(rec) && i <= 5; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.Trim(rec[i], `"`)), 64)
		if err != nil {
			return types.Bar{}, false
		}

		values[i-1] = v
	}

	return types.Bar{
		Time:   t,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, true
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}
