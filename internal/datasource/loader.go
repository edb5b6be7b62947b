package datasource

import (
	"context"

	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/resolver"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// LoadStrategyData loads, for each declared timeframe, every selected file
// and merges them on time. Timeframes without selected files are absent
// from the result. Frames are named after their timeframe.
func LoadStrategyData(
	ctx context.Context,
	ds DataSource,
	needed resolver.FilesNeeded,
	timeframes []string,
) (map[string]*frame.Frame, error) {
	data := make(map[string]*frame.Frame, len(timeframes))

	for _, tf := range timeframes {
		paths := needed.Files(tf)
		if len(paths) == 0 {
			continue
		}

		frames := make([]*frame.Frame, 0, len(paths))

		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			f, err := ds.LoadColumns(ctx, path, needed[tf][path])
			if err != nil {
				return nil, errors.Wrapf(errors.GetCode(err), err, "timeframe %s", tf)
			}

			frames = append(frames, f)
		}

		merged, err := frame.Merge(tf, frames...)
		if err != nil {
			return nil, errors.Wrapf(errors.GetCode(err), err, "timeframe %s", tf)
		}

		data[tf] = merged
	}

	return data, nil
}
