package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmharper/deskew"
	"github.com/bmharper/deskew/internal/batch"
	"github.com/bmharper/deskew/internal/config"
	"github.com/bmharper/deskew/internal/fetch"
	"github.com/bmharper/deskew/internal/metrics"
	"github.com/bmharper/deskew/internal/report"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var analyseCmd = &cobra.Command{
	Use:     "analyse [flags] <file>...",
	Aliases: []string{"analyze"},
	Short:   "Compute the skew angle of every page",
	Long: `Compute the skew angle of every page of the given images and PDFs.

Inputs may be local paths, s3://bucket/key references, or http(s) URLs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: analyse,
}

func init() {
	rootCmd.AddCommand(analyseCmd)

	analyseCmd.Flags().BoolP("verbose", "v", false, "print detailed output")
	analyseCmd.Flags().BoolP("debug", "d", false, "write debug images and log every stage (implies --verbose)")
	analyseCmd.Flags().BoolP("csv", "c", false, "save rotation results in CSV format")
	analyseCmd.Flags().String("results", "results", "results file name, without extension")
	analyseCmd.Flags().Bool("histogram", false, "display rotation angle histogram summary (implies --csv)")
	analyseCmd.Flags().String("histogram-png", "", "also render the histogram into this PNG file")
	analyseCmd.Flags().IntP("workers", "w", 0, "worker count (default: number of CPUs)")
	analyseCmd.Flags().Duration("grace", 2*time.Second, "time allowed for in-flight pages after an interrupt")
	analyseCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile")
	analyseCmd.Flags().Bool("white-lines", false, "try a brute force white line search when no line is found")
}

func analyse(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	flags := cmd.Flags()
	verbose, _ := flags.GetBool("verbose")
	debug, _ := flags.GetBool("debug")
	saveCSV, _ := flags.GetBool("csv")
	histogram, _ := flags.GetBool("histogram")
	histogramPNG, _ := flags.GetString("histogram-png")
	whiteLines, _ := flags.GetBool("white-lines")
	verbose = verbose || debug
	saveCSV = saveCSV || histogram || histogramPNG != ""

	results := cfg.Batch.Results
	if flags.Changed("results") {
		results, _ = flags.GetString("results")
	}
	workers := cfg.Batch.Workers
	if flags.Changed("workers") {
		workers, _ = flags.GetInt("workers")
	}
	grace := cfg.Batch.Grace
	if flags.Changed("grace") {
		grace, _ = flags.GetDuration("grace")
	}
	metricsFile := cfg.Batch.MetricsFile
	if flags.Changed("metrics-file") {
		metricsFile, _ = flags.GetString("metrics-file")
	}

	out, err := initLogging(cfg, verbose, debug)
	if err != nil {
		return err
	}

	params := deskew.NewParams()
	if cfg.Detect.MarginDivisor > 0 {
		params.MarginDivisor = cfg.Detect.MarginDivisor
	}
	if cfg.Detect.WindowSize > 0 {
		params.WindowSize = cfg.Detect.WindowSize
	}
	if cfg.Detect.FallbackKernel > 0 {
		params.FallbackKernel = cfg.Detect.FallbackKernel
	}
	params.WhiteLines = whiteLines || cfg.Detect.WhiteLines
	if debug {
		params.Debug = true
		params.DebugDir = filepath.Join(cfg.Batch.DebugRoot, time.Now().UTC().Format("2006-01-02T150405Z"))
		if err := os.MkdirAll(params.DebugDir, 0755); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
	}

	// Open the report before any work starts, so that a bad path fails fast
	var csvWriter *report.Writer
	if saveCSV {
		if csvWriter, err = report.Create(report.Filename(results)); err != nil {
			return err
		}
		defer csvWriter.Close()
	}

	fetcher, err := fetch.New(log.Logger)
	if err != nil {
		return err
	}
	defer fetcher.Close()
	refs := map[string]string{}
	paths := []string{}
	for _, ref := range args {
		local, err := fetcher.Local(cmd.Context(), ref)
		if err != nil {
			log.Warn().Err(err).Msg("skipping")
			continue
		}
		refs[local] = ref
		paths = append(paths, local)
	}

	recorder := metrics.NewRecorder()
	orch := batch.New(batch.Options{
		Workers:  workers,
		Grace:    grace,
		Params:   params,
		Metrics:  recorder,
		Output:   out,
		LogLevel: zerolog.DebugLevel,
		Progress: func(done, total int, r deskew.Result) {
			if verbose {
				fmt.Fprintf(os.Stderr, "[%v/%v] %v\n", done, total, filepath.Base(r.Path))
			}
		},
	})
	outcome, err := orch.Run(cmd.Context(), paths)
	if err != nil {
		return err
	}
	if metricsFile != "" {
		if err := recorder.WriteTextfile(metricsFile); err != nil {
			log.Error().Err(err).Str("file", metricsFile).Msg("writing metrics")
		}
	}
	if outcome.State == batch.Aborted {
		fmt.Fprintf(os.Stderr, "Interrupted, terminated workers. No results were written.\n")
		return errAborted
	}

	for i := range outcome.Results {
		r := &outcome.Results[i]
		r.Path = refs[r.Path]
		unit := deskew.Unit{Path: r.Path, Page: r.Page}
		fmt.Printf("%v\t%v\t%v\n", unit, r.Angle, r.Method)
	}
	if csvWriter == nil {
		return nil
	}
	if err := outcome.Persist(csvWriter); err != nil {
		return err
	}
	if histogram || histogramPNG != "" {
		// Like the report itself, the histogram covers every run appended to the file
		all, err := report.Load(report.Filename(results))
		if err != nil {
			return err
		}
		if histogram {
			if err := report.Histogram(os.Stdout, all); err != nil {
				return err
			}
		}
		if histogramPNG != "" {
			if err := writeHistogramPNG(histogramPNG, all); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeHistogramPNG(filename string, results []deskew.Result) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := report.HistogramPNG(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
