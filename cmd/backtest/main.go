package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	engine_types "github.com/zakaria-lahyani/backtester/internal/backtest/engine"
	engine "github.com/zakaria-lahyani/backtester/internal/backtest/engine/engine_v1"
	"github.com/zakaria-lahyani/backtester/internal/datasource"
	"github.com/zakaria-lahyani/backtester/internal/logger"
	"github.com/zakaria-lahyani/backtester/internal/resolver"
	"github.com/zakaria-lahyani/backtester/internal/results"
	"github.com/zakaria-lahyani/backtester/internal/strategy"
	"github.com/zakaria-lahyani/backtester/internal/template"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/internal/version"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// loadConfig reads and validates a backtest configuration file.
func loadConfig(path string) (string, engine.BacktestEngineV1Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", engine.BacktestEngineV1Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	config := engine.EmptyConfig()
	if err := yaml.Unmarshal(content, &config); err != nil {
		return "", config, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return "", config, err
	}

	return string(content), config, nil
}

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	return logger.NewLoggerWithLevel(logger.ParseLevel(cmd.String("log-level")))
}

// runAction runs the configured parameter sweep for one symbol.
func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	rawConfig, config, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	indicators := cmd.StringSlice("indicators")
	if len(indicators) == 0 {
		for name := range config.Indicators {
			indicators = append(indicators, name)
		}

		sort.Strings(indicators)
	}

	ds, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return fmt.Errorf("failed to create datasource: %w", err)
	}

	cached := datasource.NewCachedDataSource(ds)
	defer cached.Close()

	backtester := engine.NewBacktestEngineV1(log)

	if err := backtester.Initialize(rawConfig); err != nil {
		return fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	if err := backtester.SetSymbol(cmd.String("symbol")); err != nil {
		return err
	}

	if err := backtester.SetIndicators(indicators); err != nil {
		return err
	}

	if err := backtester.SetStrategyType(template.StrategyType(cmd.String("type"))); err != nil {
		return err
	}

	if err := backtester.SetDataSource(cached); err != nil {
		return err
	}

	if dsn := config.Results.ClickHouse.DSN; dsn != "" {
		sink, err := results.NewClickHouseSink(ctx, dsn, config.Results.ClickHouse.Table, log)
		if err != nil {
			return err
		}
		defer sink.Close()

		if err := sink.EnsureTable(ctx); err != nil {
			return err
		}

		if err := backtester.SetSummarySink(sink); err != nil {
			return err
		}
	}

	var bar *progressbar.ProgressBar

	onStart := engine_types.OnBacktestStartCallback(func(totalIndicators, totalStrategies, totalDataFiles int) error {
		log.Info("Starting backtest",
			zap.Int("indicators", totalIndicators),
			zap.Int("strategies", totalStrategies),
			zap.Int("data_files", totalDataFiles),
		)

		bar = progressbar.NewOptions(totalStrategies,
			progressbar.OptionSetDescription(fmt.Sprintf("Backtesting %s", cmd.String("symbol"))),
			progressbar.OptionShowCount(),
		)

		return nil
	})
	onProgress := engine_types.OnProcessDataCallback(func(current, total int) error {
		if bar == nil {
			return nil
		}

		return bar.Set(current)
	})
	onRunEnd := engine_types.OnRunEndCallback(func(indicator, summaryPath string, succeeded, failed int) {
		log.Info("Indicator finished",
			zap.String("indicator", indicator),
			zap.String("summary", summaryPath),
			zap.Int("succeeded", succeeded),
			zap.Int("failed", failed),
		)
	})

	err = backtester.Run(ctx, engine_types.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnProcessData:   &onProgress,
		OnRunEnd:        &onRunEnd,
	})

	if bar != nil {
		bar.Finish()
	}

	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	report := cmd.String("report")
	if report == "" {
		return nil
	}

	var summaries []types.StrategySummary

	for _, result := range backtester.Results() {
		if result.Success && result.Summary != nil {
			summaries = append(summaries, *result.Summary)
		}
	}

	if err := types.WriteSummaries(report, summaries); err != nil {
		return err
	}

	log.Info("Report written", zap.String("path", report), zap.Int("summaries", len(summaries)))

	return nil
}

// schemaAction prints the JSON schema of the configuration or of a strategy document.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	var (
		schema string
		err    error
	)

	switch cmd.String("kind") {
	case "config":
		config := &engine.BacktestEngineV1Config{}
		schema, err = config.GenerateSchemaJSON()
	case "strategy":
		schema, err = strategy.Schema()
	default:
		return fmt.Errorf("unknown schema kind %q", cmd.String("kind"))
	}

	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

// resolveAction prints which files and columns a strategy document needs.
func resolveAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	_, config, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	content, err := os.ReadFile(cmd.String("strategy"))
	if err != nil {
		return fmt.Errorf("failed to read strategy: %w", err)
	}

	doc, err := strategy.Parse(content)
	if err != nil {
		return err
	}

	ds, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return fmt.Errorf("failed to create datasource: %w", err)
	}
	defer ds.Close()

	symbol := cmd.String("symbol")

	ref, err := resolver.BuildFileReference(ctx, ds, log, symbol, config.DataPath(symbol), config.Timeframes())
	if err != nil {
		return err
	}

	needed := resolver.FindFiles(resolver.RequiredColumns(doc), ref)

	out, err := yaml.Marshal(needed)
	if err != nil {
		return err
	}

	fmt.Print(string(out))

	return nil
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the backtest configuration file",
		Value:   "backtester_default.yaml",
	}
}

func symbolFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "symbol",
		Aliases:  []string{"s"},
		Usage:    "Symbol to backtest, e.g. xauusd",
		Required: true,
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Sweep indicator strategy templates over historical data",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the backtests of one symbol",
				Flags: []cli.Flag{
					configFlag(),
					symbolFlag(),
					&cli.StringSliceFlag{
						Name:    "indicators",
						Aliases: []string{"i"},
						Usage:   "Indicators to run. Defaults to every configured indicator",
					},
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage: fmt.Sprintf("Strategy type (%s)", strings.Join([]string{
							string(template.StrategyTypeSimple), string(template.StrategyTypeCombined),
						}, ", ")),
						Value: string(template.StrategyTypeSimple),
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Optional YAML file receiving the successful summaries",
					},
				},
				Action: runAction,
			},
			{
				Name:  "schema",
				Usage: "Print a JSON schema",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Schema to print (config, strategy)",
						Value: "config",
					},
				},
				Action: schemaAction,
			},
			{
				Name:  "resolve",
				Usage: "Show the files and columns a strategy document needs",
				Flags: []cli.Flag{
					configFlag(),
					symbolFlag(),
					&cli.StringFlag{
						Name:     "strategy",
						Usage:    "Path to a rendered strategy document",
						Required: true,
					},
				},
				Action: resolveAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
