package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"
	"github.com/zakaria-lahyani/backtester/internal/logger"
	"github.com/zakaria-lahyani/backtester/internal/resample"
	"go.uber.org/zap"
)

// inputFiles expands the input patterns into a sorted, duplicate free file list.
func inputFiles(patterns []string) ([]string, error) {
	seen := make(map[string]bool)

	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
		}

		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				files = append(files, match)
			}
		}
	}

	sort.Strings(files)

	return files, nil
}

func rules(cmd *cli.Command) ([]resample.Rule, error) {
	list := cmd.String("timeframes")
	if list == "" {
		return resample.DefaultRules, nil
	}

	return resample.ParseRules(list)
}

func withResampler(cmd *cli.Command, fn func(r *resample.Resampler, log *logger.Logger) error) error {
	log, err := logger.NewLoggerWithLevel(logger.ParseLevel(cmd.String("log-level")))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	r, err := resample.NewResampler(log)
	if err != nil {
		return err
	}
	defer r.Close()

	return fn(r, log)
}

// importAction converts raw minute CSV exports into the base parquet file.
func importAction(ctx context.Context, cmd *cli.Command) error {
	files, err := inputFiles(cmd.StringSlice("input"))
	if err != nil {
		return err
	}

	return withResampler(cmd, func(r *resample.Resampler, log *logger.Logger) error {
		output, err := r.Import(ctx, cmd.String("dir"), cmd.String("symbol"), files)
		if err != nil {
			return err
		}

		log.Info("Imported minute bars", zap.Int("files", len(files)), zap.String("output", output))

		if !cmd.Bool("derive") {
			return nil
		}

		return derive(ctx, cmd, r, log)
	})
}

// deriveAction builds the higher timeframes from an existing base file.
func deriveAction(ctx context.Context, cmd *cli.Command) error {
	return withResampler(cmd, func(r *resample.Resampler, log *logger.Logger) error {
		return derive(ctx, cmd, r, log)
	})
}

func derive(ctx context.Context, cmd *cli.Command, r *resample.Resampler, log *logger.Logger) error {
	targets, err := rules(cmd)
	if err != nil {
		return err
	}

	outputs, err := r.DeriveAll(ctx, cmd.String("dir"), cmd.String("symbol"), targets)
	if err != nil {
		return err
	}

	log.Info("Derived timeframes", zap.Strings("outputs", outputs))

	return nil
}

func main() {
	common := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Symbol the bars belong to, e.g. XAUUSD",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding the parquet bar files",
				Value:   "data",
			},
			&cli.StringFlag{
				Name:    "timeframes",
				Aliases: []string{"t"},
				Usage:   "Comma separated target timeframes in minutes. Defaults to 5,15,30,60,240,1440,10080",
			},
		}
	}

	cmd := &cli.Command{
		Name:  "resample",
		Usage: "Import minute bars and derive higher timeframes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Import semicolon separated minute CSV files",
				Flags: append(common(),
					&cli.StringSliceFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Input CSV files or glob patterns",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "derive",
						Usage: "Derive the target timeframes after importing",
						Value: true,
					},
				),
				Action: importAction,
			},
			{
				Name:   "derive",
				Usage:  "Derive higher timeframes from the imported minute bars",
				Flags:  common(),
				Action: deriveAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
