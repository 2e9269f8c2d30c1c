// Command zipdiff-fuzz runs the coverage-guided differential fuzzing loop:
// mutate ZIP archives, dispatch them to an external parser panel, and keep
// whatever samples teach the corpus something new about how the panel's
// parsers disagree.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/elliotnunn/zipdiff/internal/fuzzdriver"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		batchSize        int
		stopAfterSeconds int
		parsersDir       string
		inputDir         string
		outputDir        string
		samplesDir       string
		resultsDir       string
		statsFile        string
		argmaxUCB        bool
		byteMutationOnly bool
		seedDir          string
		seed             int64
	)

	cmd := &cobra.Command{
		Use:   "zipdiff-fuzz",
		Short: "Differentially fuzz ZIP parsers by mutating a corpus of archives",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			cfg := fuzzdriver.Config{
				BatchSize:        batchSize,
				StopAfterSeconds: stopAfterSeconds,
				ParsersDir:       parsersDir,
				InputDir:         inputDir,
				OutputDir:        outputDir,
				SamplesDir:       samplesDir,
				ResultsDir:       resultsDir,
				StatsFile:        statsFile,
				ArgmaxUCB:        argmaxUCB,
				ByteMutationOnly: byteMutationOnly,
			}
			if cfg.BatchSize <= 0 {
				cfg.BatchSize = fuzzdriver.DefaultBatchSize(logger, cfg.InputDir)
			}

			parsers, err := fuzzdriver.LoadParsers(cfg.ParsersDir)
			if err != nil {
				return err
			}

			d := fuzzdriver.New(cfg, parsers, logger, seed)

			if seedDir != "" {
				entries, err := os.ReadDir(seedDir)
				if err != nil {
					return fmt.Errorf("read seed directory: %w", err)
				}
				for _, e := range entries {
					if e.IsDir() {
						continue
					}
					if err := d.SeedFromFile(seedDir + "/" + e.Name()); err != nil {
						logger.Warn("seed file rejected", slog.String("file", e.Name()), slog.Any("err", err))
					}
				}
			}

			return d.Run(context.Background())
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&batchSize, "batch-size", 0, "samples produced per iteration (0 = auto-sized from available RAM/disk)")
	flags.IntVar(&stopAfterSeconds, "stop-after-seconds", 0, "wall-clock budget in seconds (0 = run until interrupted)")
	flags.StringVar(&parsersDir, "parsers-dir", "../parsers", "directory holding parsers.json, prepare.sh and docker-compose.yml")
	flags.StringVar(&inputDir, "input-dir", "input", "directory the driver writes each batch's samples into")
	flags.StringVar(&outputDir, "output-dir", "output", "directory the parser panel writes extraction trees into")
	flags.StringVar(&samplesDir, "samples-dir", "samples", "content-addressed store of admitted sample bytes")
	flags.StringVar(&resultsDir, "results-dir", "results", "persisted per-sample, per-parser extraction trees")
	flags.StringVar(&statsFile, "stats-file", "stats.json", "path to write run statistics after each iteration")
	flags.BoolVar(&argmaxUCB, "argmax-ucb", false, "use argmax arm selection instead of softmax")
	flags.BoolVar(&byteMutationOnly, "byte-mutation-only", false, "disable the structured ZIP-level mutator bank")
	flags.StringVar(&seedDir, "seed-dir", "", "directory of pre-built .zip files to seed the corpus from")
	flags.Int64Var(&seed, "seed", 1, "PRNG seed for reproducible runs")

	return cmd
}
