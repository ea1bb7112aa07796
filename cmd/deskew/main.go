package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/bmharper/deskew/internal/config"
	"github.com/bmharper/deskew/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var errAborted = errors.New("aborted")

var rootCmd = &cobra.Command{
	Use:   "deskew",
	Short: "Measure and correct the skew of scanned pages",
	Long: `Measure the skew of scanned pages from the ruling lines and page edges, and write
straightened copies.

Examples:
  deskew analyse -c scans/*.pdf
  deskew analyse --histogram -w 8 s3://bucket/scan.pdf
  deskew rotate -o out`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}

// initLogging sets up the console and log file for one command
func initLogging(cfg config.Config, verbose, debug bool) (zerolog.LevelWriter, error) {
	level := cfg.Logging.Level
	if level == "" {
		level = logger.ConsoleLevel(verbose, debug)
	}
	return logger.Init(logger.Options{
		Level:      level,
		Pretty:     cfg.Logging.Pretty,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
}
