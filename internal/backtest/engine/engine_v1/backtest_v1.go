package engine

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/zakaria-lahyani/backtester/internal/alignment"
	"github.com/zakaria-lahyani/backtester/internal/backtest/engine"
	"github.com/zakaria-lahyani/backtester/internal/datasource"
	"github.com/zakaria-lahyani/backtester/internal/logger"
	"github.com/zakaria-lahyani/backtester/internal/portfolio"
	"github.com/zakaria-lahyani/backtester/internal/resolver"
	"github.com/zakaria-lahyani/backtester/internal/results"
	"github.com/zakaria-lahyani/backtester/internal/signal"
	"github.com/zakaria-lahyani/backtester/internal/statistics"
	"github.com/zakaria-lahyani/backtester/internal/strategy"
	"github.com/zakaria-lahyani/backtester/internal/template"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	failedStrategyName = "failed_strategy"
	unknownTimeframe   = "unknown"
)

type BacktestEngineV1 struct {
	config       BacktestEngineV1Config
	symbol       string
	indicators   []string
	strategyType template.StrategyType
	log          *logger.Logger
	datasource   datasource.DataSource
	portfolio    portfolio.Engine
	sink         results.SummarySink
	results      []types.RunResult

	// callbackMu serializes strategy callbacks and progress across workers.
	callbackMu sync.Mutex
	completed  int
}

// NewBacktestEngineV1 creates an engine logging to log. A nil log is
// replaced by a production logger on Initialize.
func NewBacktestEngineV1(log *logger.Logger) engine.Engine {
	return &BacktestEngineV1{
		config:       EmptyConfig(),
		symbol:       "",
		indicators:   nil,
		strategyType: template.StrategyTypeSimple,
		log:          log,
		datasource:   nil,
		portfolio:    portfolio.NewSignalEngine(),
		sink:         nil,
		results:      nil,
	}
}

// indicatorPlan is everything prepared for one indicator before any
// strategy runs.
type indicatorPlan struct {
	indicator  string
	layout     results.Layout
	strategies []template.Rendered
	reference  resolver.FileReference
}

func (p *indicatorPlan) dataFiles() int {
	total := 0
	for _, files := range p.reference {
		total += len(files)
	}

	return total
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	if b.log == nil {
		var loggerError error

		b.log, loggerError = logger.NewLogger()
		if loggerError != nil {
			return loggerError
		}
	}

	b.config = EmptyConfig()

	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest configuration", err)
	}

	if err := b.config.Validate(); err != nil {
		return err
	}

	b.log.Debug("Backtest engine initialized",
		zap.Int("indicators", len(b.config.Indicators)),
		zap.Float64("initial_capital", b.config.Backtest.InitialCapital),
		zap.Float64("point_value", b.config.Backtest.PointValue),
	)

	return nil
}

// SetSymbol implements engine.Engine.
func (b *BacktestEngineV1) SetSymbol(symbol string) error {
	if symbol == "" {
		return errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	}

	b.symbol = symbol

	return nil
}

// SetIndicators implements engine.Engine.
func (b *BacktestEngineV1) SetIndicators(indicators []string) error {
	for _, indicator := range indicators {
		if _, err := b.config.Indicator(indicator); err != nil {
			return err
		}
	}

	b.indicators = indicators

	return nil
}

// SetStrategyType implements engine.Engine.
func (b *BacktestEngineV1) SetStrategyType(strategyType template.StrategyType) error {
	switch strategyType {
	case template.StrategyTypeSimple, template.StrategyTypeCombined:
		b.strategyType = strategyType

		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown strategy type %q", strategyType)
	}
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(dataSource datasource.DataSource) error {
	b.datasource = dataSource

	return nil
}

// SetPortfolioEngine implements engine.Engine.
func (b *BacktestEngineV1) SetPortfolioEngine(portfolioEngine portfolio.Engine) error {
	if portfolioEngine == nil {
		return errors.New(errors.ErrCodeMissingParameter, "portfolio engine is nil")
	}

	b.portfolio = portfolioEngine

	return nil
}

// SetSummarySink implements engine.Engine.
func (b *BacktestEngineV1) SetSummarySink(sink results.SummarySink) error {
	b.sink = sink

	return nil
}

// Results implements engine.Engine.
func (b *BacktestEngineV1) Results() []types.RunResult {
	out := make([]types.RunResult, len(b.results))
	copy(out, b.results)

	return out
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to generate schema", err)
	}

	return schema, nil
}

// Run implements engine.Engine. Every indicator is prepared first, then its
// strategies run on a bounded worker pool. A failing strategy is recorded in
// its result and never stops the sweep; cancelling ctx stops scheduling new
// strategies.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (err error) {
	defer func() {
		if callbacks.OnBacktestEnd != nil {
			(*callbacks.OnBacktestEnd)(err)
		}
	}()

	if err := b.preRunCheck(); err != nil {
		return err
	}

	b.results = nil
	b.completed = 0

	plans := make([]*indicatorPlan, 0, len(b.indicators))
	totalStrategies, totalDataFiles := 0, 0

	for _, indicator := range b.indicators {
		plan, err := b.prepare(ctx, indicator)
		if err != nil {
			return err
		}

		plans = append(plans, plan)
		totalStrategies += len(plan.strategies)
		totalDataFiles += plan.dataFiles()
	}

	b.log.Info("Prepared backtests",
		zap.String("symbol", b.symbol),
		zap.Int("indicators", len(plans)),
		zap.Int("strategies", totalStrategies),
	)

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(plans), totalStrategies, totalDataFiles); err != nil {
			return err
		}
	}

	offset := 0

	for _, plan := range plans {
		runResults, err := b.runIndicator(ctx, plan, offset, totalStrategies, callbacks)
		b.results = append(b.results, runResults...)

		if err != nil {
			return err
		}

		offset += len(plan.strategies)
	}

	return b.publish(ctx)
}

// prepare renders the strategies of an indicator and indexes its files.
func (b *BacktestEngineV1) prepare(ctx context.Context, indicator string) (*indicatorPlan, error) {
	cfg, err := b.config.Indicator(indicator)
	if err != nil {
		return nil, err
	}

	templatePath := b.config.TemplatePath(b.strategyType, indicator)
	templates := template.LoadTemplates(b.log, templatePath, cfg.Templates)

	contexts, err := template.ContextsFor(b.strategyType, cfg)
	if err != nil {
		return nil, errors.Wrapf(errors.GetCode(err), err, "indicator %s", indicator)
	}

	rendered := template.RenderAll(b.log, templates, contexts)

	reference, err := resolver.BuildFileReference(ctx, b.datasource, b.log, b.symbol,
		b.config.DataPath(b.symbol), b.config.Timeframes())
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "indicator %s", indicator)
	}

	b.log.Info("Prepared indicator",
		zap.String("indicator", indicator),
		zap.String("templates", templatePath),
		zap.Int("contexts", len(contexts)),
		zap.Int("strategies", len(rendered)),
	)

	return &indicatorPlan{
		indicator:  indicator,
		layout:     results.NewLayout(b.config.SavePath(b.symbol), indicator, string(b.strategyType)),
		strategies: rendered,
		reference:  reference,
	}, nil
}

func (b *BacktestEngineV1) runIndicator(
	ctx context.Context,
	plan *indicatorPlan,
	offset int,
	totalStrategies int,
	callbacks engine.LifecycleCallbacks,
) ([]types.RunResult, error) {
	runID := uuid.NewString()

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, plan.indicator, len(plan.strategies), plan.dataFiles()); err != nil {
			return nil, err
		}
	}

	runResults := make([]types.RunResult, len(plan.strategies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())

	for i, rendered := range plan.strategies {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			index := offset + i

			if err := b.strategyStart(callbacks, index, rendered.Template, totalStrategies); err != nil {
				return err
			}

			result := b.RunStrategy(gctx, rendered.YAML, plan.reference)
			b.stamp(&result, runID, plan.indicator)
			b.persist(plan.layout, &result)
			runResults[i] = result

			return b.strategyEnd(callbacks, index, result, totalStrategies)
		})
	}

	waitErr := g.Wait()

	// strategies never started leave an empty slot
	finished := runResults[:0]
	for _, result := range runResults {
		if result.StrategyName != "" {
			finished = append(finished, result)
		}
	}

	runResults = finished

	if waitErr == nil {
		waitErr = ctx.Err()
	}

	succeeded := 0
	for _, result := range runResults {
		if result.Success {
			succeeded++
		}
	}

	summaryPath := ""

	if succeeded > 0 {
		path, err := results.ConsolidateSummaries(ctx, b.log, plan.layout)
		if err != nil {
			b.log.Warn("Failed to consolidate summaries", zap.String("indicator", plan.indicator), zap.Error(err))
		} else {
			summaryPath = path
		}
	}

	b.log.Info("Indicator completed",
		zap.String("indicator", plan.indicator),
		zap.String("run_id", runID),
		zap.Int("total", len(runResults)),
		zap.Int("successful", succeeded),
		zap.Int("failed", len(runResults)-succeeded),
	)

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(plan.indicator, summaryPath, succeeded, len(runResults)-succeeded)
	}

	return runResults, waitErr
}

// RunStrategy backtests one rendered strategy document against the files
// of ref. Failures are returned in the result, never as a panic or error.
func (b *BacktestEngineV1) RunStrategy(ctx context.Context, strategyYAML string, ref resolver.FileReference) types.RunResult {
	result := types.RunResult{
		StrategyName: failedStrategyName,
		Timeframe:    unknownTimeframe,
	}

	doc, err := strategy.Parse([]byte(strategyYAML))
	if err != nil {
		return b.fail(result, err)
	}

	result.StrategyName = doc.Name

	key, err := alignment.KeyFor(doc.Timeframes)
	if err != nil {
		return b.fail(result, err)
	}

	result.Timeframe = key

	needed := resolver.FindFiles(resolver.RequiredColumns(doc), ref)

	data, err := datasource.LoadStrategyData(ctx, b.datasource, needed, doc.Timeframes)
	if err != nil {
		return b.fail(result, err)
	}

	for _, tf := range doc.Timeframes {
		if _, ok := data[tf]; !ok {
			return b.fail(result, errors.Newf(errors.ErrCodeNoDataFound, "no data available for timeframe %s", tf))
		}
	}

	aligned, err := alignment.AlignByName(data)
	if err != nil {
		return b.fail(result, err)
	}

	aligned = aligned.Between(b.config.Window())
	if aligned.Len() == 0 {
		return b.fail(result, errors.Newf(errors.ErrCodeEmptyInput, "no bars of timeframe %s inside the backtest window", key))
	}

	signals, err := signal.BuildSignals(doc, aligned)
	if err != nil {
		return b.fail(result, err)
	}

	closes, err := aligned.Floats("close")
	if err != nil {
		return b.fail(result, err)
	}

	simulation, err := b.portfolio.Run(aligned.Times(), closes, signals.Entries, signals.Exits, portfolio.Config{
		InitialCapital: b.config.Backtest.InitialCapital,
		Size:           b.config.Backtest.PointValue,
		Fees:           portfolio.FeeModelFor(b.config.Backtest.Broker),
	})
	if err != nil {
		return b.fail(result, err)
	}

	result.Trades = simulation.Trades

	summary, err := statistics.Summarize(statistics.SummaryInput{
		StrategyName: doc.Name,
		Timeframe:    key,
		Trades:       simulation.Trades,
		Stats:        simulation.Stats,
	})
	if err != nil {
		return b.fail(result, err)
	}

	result.Summary = &summary
	result.Success = true

	return result
}

func (b *BacktestEngineV1) fail(result types.RunResult, cause error) types.RunResult {
	err := errors.Wrapf(errors.ErrCodeStrategyRuntimeError, cause, "strategy %s failed", result.StrategyName)

	b.log.Error("Backtest failed",
		zap.String("strategy", result.StrategyName),
		zap.String("timeframe", result.Timeframe),
		zap.Error(err),
	)

	result.Success = false
	result.Error = err.Error()
	result.Summary = nil

	return result
}

func (b *BacktestEngineV1) stamp(result *types.RunResult, runID string, indicator string) {
	if result.Summary == nil {
		return
	}

	result.Summary.RunID = runID
	result.Summary.Symbol = b.symbol
	result.Summary.Indicator = indicator
	result.Summary.StrategyType = string(b.strategyType)
}

// persist writes the trades and summary of a successful result. A write
// failure turns the result into a failure.
func (b *BacktestEngineV1) persist(layout results.Layout, result *types.RunResult) {
	if !result.Success {
		return
	}

	tradesPath := layout.TradesPath(result.Timeframe, result.StrategyName)
	if err := results.WriteTrades(tradesPath, result.Trades); err != nil {
		*result = b.fail(*result, err)

		return
	}

	result.TradesFilePath = tradesPath

	if err := results.WriteSummary(layout.SummaryPath(result.StrategyName), *result.Summary); err != nil {
		*result = b.fail(*result, err)

		return
	}

	b.log.Debug("Saved strategy results",
		zap.String("strategy", result.StrategyName),
		zap.String("trades", tradesPath),
	)
}

// publish sends every summary of the sweep to the sink, if one is set.
func (b *BacktestEngineV1) publish(ctx context.Context) error {
	if b.sink == nil {
		return nil
	}

	summaries := make([]types.StrategySummary, 0, len(b.results))

	for _, result := range b.results {
		if result.Summary != nil {
			summaries = append(summaries, *result.Summary)
		}
	}

	if err := b.sink.Write(ctx, summaries); err != nil {
		b.log.Error("Failed to publish summaries", zap.Error(err))

		return err
	}

	return nil
}

func (b *BacktestEngineV1) strategyStart(callbacks engine.LifecycleCallbacks, index int, name string, total int) error {
	if callbacks.OnStrategyStart == nil {
		return nil
	}

	b.callbackMu.Lock()
	defer b.callbackMu.Unlock()

	return (*callbacks.OnStrategyStart)(index, name, total)
}

func (b *BacktestEngineV1) strategyEnd(callbacks engine.LifecycleCallbacks, index int, result types.RunResult, total int) error {
	b.callbackMu.Lock()
	defer b.callbackMu.Unlock()

	b.completed++

	if callbacks.OnStrategyEnd != nil {
		(*callbacks.OnStrategyEnd)(index, result)
	}

	if callbacks.OnProcessData != nil {
		return (*callbacks.OnProcessData)(b.completed, total)
	}

	return nil
}

func (b *BacktestEngineV1) workers() int {
	if b.config.Backtest.Workers > 0 {
		return b.config.Backtest.Workers
	}

	return runtime.NumCPU()
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.log == nil {
		return errors.New(errors.ErrCodeBacktestConfigError, "engine is not initialized")
	}

	if b.symbol == "" {
		b.log.Error("No symbol set")

		return errors.New(errors.ErrCodeBacktestConfigError, "no symbol set")
	}

	if len(b.indicators) == 0 {
		b.log.Error("No indicators set")

		return errors.New(errors.ErrCodeBacktestConfigError, "no indicators set")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	if b.portfolio == nil {
		b.log.Error("No portfolio engine set")

		return errors.New(errors.ErrCodeBacktestNoPortfolio, "no portfolio engine set")
	}

	return nil
}
