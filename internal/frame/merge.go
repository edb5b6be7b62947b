package frame

import (
	"sort"
	"time"
)

// Merge outer-joins frames of the same timeframe on their timestamp index.
// When several frames carry the same column, the first frame wins. Rows a
// frame does not cover are absent in its columns.
func Merge(name string, frames ...*Frame) (*Frame, error) {
	if len(frames) == 1 {
		return frames[0].WithName(name), nil
	}

	seen := make(map[int64]time.Time)

	for _, f := range frames {
		for _, t := range f.times {
			seen[t.UnixNano()] = t
		}
	}

	keys := make([]int64, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	times := make([]time.Time, len(keys))
	position := make(map[int64]int, len(keys))

	for i, k := range keys {
		times[i] = seen[k]
		position[k] = i
	}

	out, err := New(name, times)
	if err != nil {
		return nil, err
	}

	for _, f := range frames {
		for _, column := range f.columns {
			if out.HasColumn(column) {
				continue
			}

			values := make([]Value, len(times))
			for i := range values {
				values[i] = Absent()
			}

			src := f.data[column]
			for row, t := range f.times {
				values[position[t.UnixNano()]] = src[row]
			}

			if err := out.AddColumn(column, values); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}
