package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	engine "github.com/zakaria-lahyani/backtester/internal/backtest/engine/engine_v1"
	"github.com/zakaria-lahyani/backtester/internal/datasource"
	"github.com/zakaria-lahyani/backtester/internal/indicator"
	"github.com/zakaria-lahyani/backtester/internal/logger"
	"github.com/zakaria-lahyani/backtester/internal/version"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func loadConfig(path string) (engine.BacktestEngineV1Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return engine.BacktestEngineV1Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	config := engine.EmptyConfig()
	if err := yaml.Unmarshal(content, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// generateAction writes the indicator files of every selected indicator.
func generateAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLoggerWithLevel(logger.ParseLevel(cmd.String("log-level")))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	config, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	symbol := cmd.String("symbol")

	rawDir := cmd.String("raw-dir")
	if rawDir == "" {
		rawDir = config.RawPath(symbol)
	}

	names := cmd.StringSlice("indicators")
	if len(names) == 0 {
		for name := range config.Indicators {
			names = append(names, name)
		}

		sort.Strings(names)
	}

	ds, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return fmt.Errorf("failed to create datasource: %w", err)
	}
	defer ds.Close()

	generator := indicator.NewGenerator(ds, indicator.NewDefaultRegistry(), log)
	bar := progressbar.NewOptions(len(names),
		progressbar.OptionSetDescription(fmt.Sprintf("Generating indicators for %s", symbol)),
		progressbar.OptionShowCount(),
	)

	failed := 0

	for _, name := range names {
		cfg, err := config.Indicator(name)
		if err != nil {
			return err
		}

		outputs, err := generator.Generate(ctx, rawDir, config.DataPath(symbol), indicator.Job{
			Symbol:     symbol,
			Name:       name,
			Kind:       cfg.Kind(),
			Periods:    cfg.Periods,
			Timeframes: cfg.Timeframes,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			failed++

			log.Error("Indicator generation failed", zap.String("indicator", name), zap.Error(err))
		} else {
			log.Debug("Indicator generated", zap.String("indicator", name), zap.Strings("outputs", outputs))
		}

		bar.Add(1)
	}

	bar.Finish()

	if failed > 0 {
		return fmt.Errorf("%d of %d indicators failed", failed, len(names))
	}

	return nil
}

// listAction prints the indicators that can be computed.
func listAction(ctx context.Context, cmd *cli.Command) error {
	for _, name := range indicator.NewDefaultRegistry().ListIndicators() {
		fmt.Println(name)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "indicators",
		Usage:   "Compute indicator files from resampled bars",
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
				Name:  "generate",
				Usage: "Write the indicator files of one symbol",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the backtest configuration file",
						Value:   "backtester_default.yaml",
					},
					&cli.StringFlag{
						Name:     "symbol",
						Aliases:  []string{"s"},
						Usage:    "Symbol to compute, e.g. xauusd",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "raw-dir",
						Usage: "Directory holding the resampled bar files. Defaults to <base_data_path>/<symbol>/brut",
					},
					&cli.StringSliceFlag{
						Name:    "indicators",
						Aliases: []string{"i"},
						Usage:   "Indicators to compute. Defaults to every configured indicator",
					},
				},
				Action: generateAction,
			},
			{
				Name:   "list",
				Usage:  "List the indicators that can be computed",
				Action: listAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
