package indicator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/zakaria-lahyani/backtester/internal/datasource"
	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/logger"
	"github.com/zakaria-lahyani/backtester/internal/resample"
	"github.com/zakaria-lahyani/backtester/internal/results"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
	"go.uber.org/zap"
)

// Job describes the indicator files of one configured indicator.
type Job struct {
	Symbol string
	// Name prefixes the output columns and names the output folder.
	Name string
	Kind types.IndicatorType
	// Periods are underscore joined Config parameters, e.g. "12_26_9".
	Periods []string
	// Timeframes are in minutes.
	Timeframes []string
}

// Generator turns resampled bar files into indicator files.
type Generator struct {
	source   datasource.DataSource
	registry IndicatorRegistry
	logger   *logger.Logger
}

func NewGenerator(source datasource.DataSource, registry IndicatorRegistry, log *logger.Logger) *Generator {
	return &Generator{
		source:   source,
		registry: registry,
		logger:   log,
	}
}

// OutputFile is the indicator file of one job and timeframe below dataPath.
func OutputFile(dataPath string, job Job, timeframe string) string {
	return filepath.Join(dataPath, job.Name, fmt.Sprintf("%s_%s_%s.parquet", job.Symbol, timeframe, job.Name))
}

// Generate reads <rawDir>/<SYMBOL>_<timeframe>.parquet for every timeframe of
// the job and writes one indicator file per timeframe holding the bars and a
// column per period and series. Missing bar files are skipped; it fails when
// none exist.
func (g *Generator) Generate(ctx context.Context, rawDir, dataPath string, job Job) ([]string, error) {
	indicator, err := g.registry.GetIndicator(job.Kind)
	if err != nil {
		return nil, err
	}

	if len(job.Periods) == 0 {
		return nil, errors.Newf(errors.ErrCodeMissingParameter, "indicator %s has no periods", job.Name)
	}

	var outputs []string

	for _, tf := range job.Timeframes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		minutes, err := strconv.Atoi(tf)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeInvalidTimeframe, "invalid timeframe %q", tf)
		}

		input := resample.TimeframeFile(rawDir, job.Symbol, resample.RuleName(minutes))
		if _, err := os.Stat(input); err != nil {
			g.logger.Warn("Bar file not found, skipping timeframe",
				zap.String("indicator", job.Name), zap.String("path", input))

			continue
		}

		bars, err := g.source.LoadColumns(ctx, input, nil)
		if err != nil {
			return nil, err
		}

		out, err := g.compute(indicator, job, bars)
		if err != nil {
			return nil, err
		}

		output := OutputFile(dataPath, job, tf)
		if err := results.WriteFrame(output, out); err != nil {
			return nil, err
		}

		g.logger.Info("Saved indicator file",
			zap.String("indicator", job.Name),
			zap.String("timeframe", tf),
			zap.Int("rows", out.Len()),
			zap.String("path", output),
		)

		outputs = append(outputs, output)
	}

	if len(outputs) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bar files found for %s in %s", job.Symbol, rawDir)
	}

	return outputs, nil
}

// compute copies the bars and appends every period's series.
func (g *Generator) compute(indicator Indicator, job Job, bars *frame.Frame) (*frame.Frame, error) {
	out, err := frame.New(bars.Name(), bars.Times())
	if err != nil {
		return nil, err
	}

	for _, column := range datasource.BaseColumns[1:] {
		values, _ := bars.Column(column)
		if err := out.AddColumn(column, values); err != nil {
			return nil, err
		}
	}

	for _, period := range job.Periods {
		params, err := ParseParams(period)
		if err != nil {
			return nil, err
		}

		if err := indicator.Config(params...); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid period %s for %s", period, job.Name)
		}

		series, err := indicator.Compute(bars)
		if err != nil {
			return nil, err
		}

		for _, s := range series {
			if err := out.AddFloats(ColumnName(job.Name, s.Suffix, period), s.Values); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}
