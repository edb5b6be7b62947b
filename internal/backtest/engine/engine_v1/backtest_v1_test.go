package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	engine_types "github.com/zakaria-lahyani/backtester/internal/backtest/engine"
	"github.com/zakaria-lahyani/backtester/internal/datasource"
	"github.com/zakaria-lahyani/backtester/internal/logger"
	"github.com/zakaria-lahyani/backtester/internal/portfolio"
	"github.com/zakaria-lahyani/backtester/internal/resample"
	"github.com/zakaria-lahyani/backtester/internal/resolver"
	"github.com/zakaria-lahyani/backtester/internal/results"
	"github.com/zakaria-lahyani/backtester/internal/template"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/mocks"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
	"go.uber.org/mock/gomock"
)

const smaTemplate = `
name: sma_cross_{{ period }}_{{ timeframe }}
timeframes: ["{{ timeframe }}"]
entry:
  long:
    mode: all
    conditions:
      - signal: close
        operator: crosses_above
        value: sma_{{ period }}
        timeframe: "{{ timeframe }}"
exit:
  long:
    mode: all
    conditions:
      - signal: close
        operator: crosses_below
        value: sma_{{ period }}
        timeframe: "{{ timeframe }}"
`

type BacktestEngineV1TestSuite struct {
	suite.Suite
	tempDir    string
	log        *logger.Logger
	datasource datasource.DataSource
	start      time.Time
}

func TestBacktestEngineV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestEngineV1TestSuite))
}

func (suite *BacktestEngineV1TestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "backtest_engine_test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
	suite.log = logger.NewNopLogger()
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ds, err := datasource.NewDataSource(":memory:", suite.log)
	suite.Require().NoError(err)
	suite.datasource = datasource.NewCachedDataSource(ds)

	suite.writeIndicatorFile(400)
	suite.writeTemplate("sma_cross.yaml", smaTemplate)
}

func (suite *BacktestEngineV1TestSuite) TearDownTest() {
	suite.datasource.Close()
	os.RemoveAll(suite.tempDir)
}

// writeIndicatorFile writes hourly xauusd bars with a 5 bar moving average
// of the close as an indicator file.
func (suite *BacktestEngineV1TestSuite) writeIndicatorFile(count int) {
	config := mocks.DefaultConfig()
	config.StartTime = suite.start
	config.Interval = time.Hour
	config.Count = count
	config.Volatility = 0.005
	bars := mocks.NewDataGenerator(42).Generate(config)

	resampler, err := resample.NewResampler(suite.log)
	suite.Require().NoError(err)
	defer resampler.Close()

	ctx := context.Background()
	basePath := filepath.Join(suite.tempDir, "raw", "XAUUSD_60.parquet")
	suite.Require().NoError(resampler.WriteBars(ctx, basePath, bars))

	target := filepath.Join(suite.tempDir, "data", "xauusd", "indicators", "sma", "xauusd_60_sma.parquet")
	suite.Require().NoError(os.MkdirAll(filepath.Dir(target), 0755))

	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)
	defer db.Close()

	_, err = db.Exec(fmt.Sprintf(`
		COPY (
			SELECT *, avg(close) OVER (ORDER BY time ROWS BETWEEN 4 PRECEDING AND CURRENT ROW) AS sma_5
			FROM read_parquet('%s')
			ORDER BY time
		) TO '%s' (FORMAT PARQUET)
	`, basePath, target))
	suite.Require().NoError(err)
}

func (suite *BacktestEngineV1TestSuite) writeTemplate(name, content string) {
	dir := filepath.Join(suite.tempDir, "templates", "simple", "sma")
	suite.Require().NoError(os.MkdirAll(dir, 0755))
	suite.Require().NoError(os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func (suite *BacktestEngineV1TestSuite) configYAML(extra string) string {
	return fmt.Sprintf(`
paths:
  base_data_path: %s
  base_save_path: %s
  template_dir_path: %s
backtest:
  initial_capital: 1000000
  point_value: 100
  workers: 2
%s
indicators:
  sma:
    periods: [5, 10]
    timeframes: [60]
    templates: [sma_cross.yaml]
`,
		filepath.Join(suite.tempDir, "data"),
		filepath.Join(suite.tempDir, "results"),
		filepath.Join(suite.tempDir, "templates"),
		extra,
	)
}

func (suite *BacktestEngineV1TestSuite) newEngine(extra string) *BacktestEngineV1 {
	b := NewBacktestEngineV1(suite.log).(*BacktestEngineV1)
	suite.Require().NoError(b.Initialize(suite.configYAML(extra)))
	suite.Require().NoError(b.SetSymbol("xauusd"))
	suite.Require().NoError(b.SetIndicators([]string{"sma"}))
	suite.Require().NoError(b.SetStrategyType(template.StrategyTypeSimple))
	suite.Require().NoError(b.SetDataSource(suite.datasource))

	return b
}

func (suite *BacktestEngineV1TestSuite) reference() resolver.FileReference {
	ref, err := resolver.BuildFileReference(context.Background(), suite.datasource, suite.log, "xauusd",
		filepath.Join(suite.tempDir, "data", "xauusd", "indicators"), []string{"60", "240"})
	suite.Require().NoError(err)

	return ref
}

func (suite *BacktestEngineV1TestSuite) TestRunSweep() {
	b := suite.newEngine("")

	var (
		started   []int
		progress  []int
		runEnds   []string
		endErr    = fmt.Errorf("not called")
		succeeded int
		failed    int
	)

	onStart := engine_types.OnBacktestStartCallback(func(totalIndicators, totalStrategies, totalDataFiles int) error {
		started = []int{totalIndicators, totalStrategies, totalDataFiles}
		return nil
	})
	onEnd := engine_types.OnBacktestEndCallback(func(err error) {
		endErr = err
	})
	onProgress := engine_types.OnProcessDataCallback(func(current, total int) error {
		progress = append(progress, current)
		return nil
	})
	onRunEnd := engine_types.OnRunEndCallback(func(indicator, summaryPath string, ok, ko int) {
		runEnds = append(runEnds, summaryPath)
		succeeded, failed = ok, ko
	})

	err := b.Run(context.Background(), engine_types.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnBacktestEnd:   &onEnd,
		OnProcessData:   &onProgress,
		OnRunEnd:        &onRunEnd,
	})
	suite.Require().NoError(err)
	suite.NoError(endErr)

	suite.Equal([]int{1, 2, 1}, started)
	suite.ElementsMatch([]int{1, 2}, progress)
	suite.Equal(1, succeeded)
	suite.Equal(1, failed)

	layout := results.NewLayout(filepath.Join(suite.tempDir, "results", "xauusd", "backtest"), "sma", "simple")
	suite.Equal([]string{layout.ConsolidatedPath()}, runEnds)
	suite.FileExists(layout.ConsolidatedPath())

	runResults := b.Results()
	suite.Require().Len(runResults, 2)

	var ok, ko types.RunResult

	for _, r := range runResults {
		if r.Success {
			ok = r
		} else {
			ko = r
		}
	}

	suite.Equal("sma_cross_5_60", ok.StrategyName)
	suite.Equal("60", ok.Timeframe)
	suite.Require().NotNil(ok.Summary)
	suite.NotEmpty(ok.Summary.RunID)
	suite.Equal("xauusd", ok.Summary.Symbol)
	suite.Equal("sma", ok.Summary.Indicator)
	suite.Equal("simple", ok.Summary.StrategyType)
	suite.Greater(ok.Summary.NbrTrades, 0)
	suite.Equal(layout.TradesPath("60", "sma_cross_5_60"), ok.TradesFilePath)
	suite.FileExists(ok.TradesFilePath)
	suite.FileExists(layout.SummaryPath("sma_cross_5_60"))

	// sma_10 is not in any file, so the value is read as a literal that
	// never compares against a price
	suite.Equal("sma_cross_10_60", ko.StrategyName)
	suite.Nil(ko.Summary)
	suite.Contains(ko.Error, "no closed trades")
}

func (suite *BacktestEngineV1TestSuite) TestRunStrategyMissingTimeframe() {
	b := suite.newEngine("")

	result := b.RunStrategy(context.Background(), `
name: mtf
timeframes: ["60", "240"]
entry:
  long:
    mode: all
    conditions:
      - {signal: close, operator: crosses_above, value: sma_5, timeframe: "60"}
exit:
  long:
    mode: all
    conditions:
      - {signal: close, operator: crosses_below, value: sma_5, timeframe: "60"}
`, suite.reference())

	suite.False(result.Success)
	suite.Equal("mtf", result.StrategyName)
	suite.Equal("60_240", result.Timeframe)
	suite.Contains(result.Error, "no data available for timeframe 240")
}

func (suite *BacktestEngineV1TestSuite) TestRunStrategyInvalidDocument() {
	b := suite.newEngine("")

	result := b.RunStrategy(context.Background(), "name: [broken", suite.reference())

	suite.False(result.Success)
	suite.Equal(failedStrategyName, result.StrategyName)
	suite.Equal(unknownTimeframe, result.Timeframe)
	suite.NotEmpty(result.Error)
}

func (suite *BacktestEngineV1TestSuite) TestRunStrategyWithMockPortfolio() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	entry := suite.start.Add(10 * time.Hour)
	trade := types.Trade{
		Size:           100,
		EntryTimestamp: entry,
		EntryPrice:     2000,
		ExitTimestamp:  entry.Add(3 * time.Hour),
		ExitPrice:      2010,
		PnL:            1000,
		Return:         0.005,
		Direction:      types.TradeDirectionLong,
		Status:         types.TradeStatusClosed,
		Duration:       180,
	}

	mockPortfolio := mocks.NewMockEngine(ctrl)
	mockPortfolio.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(times []time.Time, closes []float64, entries, exits []bool, cfg portfolio.Config) (*portfolio.Result, error) {
			suite.Len(closes, 400)
			suite.Len(entries, len(times))
			suite.Len(exits, len(times))
			suite.Equal(1_000_000.0, cfg.InitialCapital)
			suite.Equal(100.0, cfg.Size)

			return &portfolio.Result{
				Trades: []types.Trade{trade},
				Stats:  types.PortfolioStats{Start: times[0], End: times[len(times)-1], WinRatePct: 100},
			}, nil
		}).Times(1)

	b := suite.newEngine("")
	suite.Require().NoError(b.SetPortfolioEngine(mockPortfolio))

	rendered, err := template.Render(template.StrategyTemplate{Name: "sma_cross.yaml", Content: smaTemplate},
		template.Context{"period": "5", "timeframe": "60"})
	suite.Require().NoError(err)

	result := b.RunStrategy(context.Background(), rendered, suite.reference())
	suite.Require().True(result.Success, result.Error)
	suite.Equal(1, result.Summary.NbrTrades)
	suite.Equal(1000.0, result.Summary.NetProfit)
	suite.Equal(100.0, result.Summary.WinRate)
	suite.True(suite.start.Equal(result.Summary.Start))
}

func (suite *BacktestEngineV1TestSuite) TestRunStrategyWindow() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	mockPortfolio := mocks.NewMockEngine(ctrl)
	mockPortfolio.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(times []time.Time, closes []float64, entries, exits []bool, cfg portfolio.Config) (*portfolio.Result, error) {
			suite.Len(times, 25)
			suite.True(suite.start.Add(24 * time.Hour).Equal(times[0]))
			suite.True(suite.start.Add(48 * time.Hour).Equal(times[len(times)-1]))

			return &portfolio.Result{}, nil
		}).Times(1)

	b := suite.newEngine(`  start_time: 2024-01-02T00:00:00Z
  end_time: 2024-01-03T00:00:00Z`)
	suite.Require().NoError(b.SetPortfolioEngine(mockPortfolio))

	rendered, err := template.Render(template.StrategyTemplate{Name: "sma_cross.yaml", Content: smaTemplate},
		template.Context{"period": "5", "timeframe": "60"})
	suite.Require().NoError(err)

	result := b.RunStrategy(context.Background(), rendered, suite.reference())
	suite.False(result.Success)
	suite.Contains(result.Error, "no closed trades")
}

func (suite *BacktestEngineV1TestSuite) TestRunPublishesToSink() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	sink := mocks.NewMockSummarySink(ctrl)
	sink.EXPECT().Write(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, summaries []types.StrategySummary) error {
			suite.Require().Len(summaries, 1)
			suite.Equal("sma_cross_5_60", summaries[0].StrategyName)

			return nil
		}).Times(1)

	b := suite.newEngine("")
	suite.Require().NoError(b.SetSummarySink(sink))
	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))
}

func (suite *BacktestEngineV1TestSuite) TestStrategyStartCallbackAborts() {
	b := suite.newEngine("")
	b.config.Backtest.Workers = 1

	var endErr error

	onStrategyStart := engine_types.OnStrategyStartCallback(func(strategyIndex int, templateName string, totalStrategies int) error {
		return fmt.Errorf("stop at %d", strategyIndex)
	})
	onEnd := engine_types.OnBacktestEndCallback(func(err error) {
		endErr = err
	})

	err := b.Run(context.Background(), engine_types.LifecycleCallbacks{
		OnStrategyStart: &onStrategyStart,
		OnBacktestEnd:   &onEnd,
	})
	suite.EqualError(err, "stop at 0")
	suite.Equal(err, endErr)
	suite.Empty(b.Results())
}

func (suite *BacktestEngineV1TestSuite) TestRunCancelled() {
	b := suite.newEngine("")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Run(ctx, engine_types.LifecycleCallbacks{})
	suite.ErrorIs(err, context.Canceled)
}

func (suite *BacktestEngineV1TestSuite) TestPreRunCheck() {
	b := NewBacktestEngineV1(suite.log).(*BacktestEngineV1)
	suite.Require().NoError(b.Initialize(suite.configYAML("")))

	err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))

	suite.Require().NoError(b.SetSymbol("xauusd"))
	suite.Require().NoError(b.SetIndicators([]string{"sma"}))

	err = b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoDatasource))
}

func (suite *BacktestEngineV1TestSuite) TestSetters() {
	b := NewBacktestEngineV1(suite.log).(*BacktestEngineV1)
	suite.Require().NoError(b.Initialize(suite.configYAML("")))

	suite.True(errors.HasCode(b.SetSymbol(""), errors.ErrCodeMissingParameter))
	suite.True(errors.HasCode(b.SetIndicators([]string{"ichimoku"}), errors.ErrCodeInvalidConfiguration))
	suite.True(errors.HasCode(b.SetStrategyType("exotic"), errors.ErrCodeInvalidParameter))
	suite.True(errors.HasCode(b.SetPortfolioEngine(nil), errors.ErrCodeMissingParameter))

	schema, err := b.GetConfigSchema()
	suite.NoError(err)
	suite.Contains(schema, "backtest-engine-v1-config")
}

func (suite *BacktestEngineV1TestSuite) TestInitializeRejectsInvalidConfig() {
	b := NewBacktestEngineV1(suite.log)

	err := b.Initialize("paths: [")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	err = b.Initialize("backtest: {point_value: 1}")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}
