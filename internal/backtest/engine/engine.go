package engine

import (
	"context"

	"github.com/zakaria-lahyani/backtester/internal/datasource"
	"github.com/zakaria-lahyani/backtester/internal/portfolio"
	"github.com/zakaria-lahyani/backtester/internal/results"
	"github.com/zakaria-lahyani/backtester/internal/template"
	"github.com/zakaria-lahyani/backtester/internal/types"
)

// Lifecycle callback types for sweep phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called once every indicator has been prepared.
type OnBacktestStartCallback func(totalIndicators int, totalStrategies int, totalDataFiles int) error

// OnBacktestEndCallback is called when the entire sweep completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnStrategyStartCallback is called before a strategy is backtested.
// strategyIndex counts across all indicators of the sweep.
type OnStrategyStartCallback func(strategyIndex int, templateName string, totalStrategies int) error

// OnStrategyEndCallback is called after a strategy has been backtested and persisted,
// whether it succeeded or not.
type OnStrategyEndCallback func(strategyIndex int, result types.RunResult)

// OnRunStartCallback is called when the strategies of one indicator start.
// runID is stamped on every summary of the run.
type OnRunStartCallback func(runID string, indicator string, totalStrategies int, totalDataFiles int) error

// OnRunEndCallback is called when every strategy of one indicator is done.
// summaryPath is empty when no summary could be consolidated.
type OnRunEndCallback func(indicator string, summaryPath string, succeeded int, failed int)

// OnProcessDataCallback is called each time a strategy finishes.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
// Strategy callbacks are never invoked concurrently.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnStrategyStart *OnStrategyStartCallback
	OnStrategyEnd   *OnStrategyEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
}

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetSymbol sets the symbol whose indicator files are backtested, e.g. xauusd.
	SetSymbol(symbol string) error
	// SetIndicators sets the indicators to sweep. Every indicator must be
	// declared in the configuration.
	SetIndicators(indicators []string) error
	// SetStrategyType selects how template contexts are generated.
	SetStrategyType(strategyType template.StrategyType) error
	// SetDataSource sets the data source indicator files are read through.
	SetDataSource(dataSource datasource.DataSource) error
	// SetPortfolioEngine replaces the portfolio simulator.
	SetPortfolioEngine(engine portfolio.Engine) error
	// SetSummarySink sets an optional sink receiving every summary of the sweep.
	SetSummarySink(sink results.SummarySink) error
	// Run runs every strategy of every indicator.
	// The context can be used to cancel the sweep.
	// Use LifecycleCallbacks to receive notifications at different phases of the sweep.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// Results returns the outcome of every strategy of the last run.
	Results() []types.RunResult
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
