// Package logger configures zerolog for the command line tools.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options defines logger initialization parameters.
type Options struct {
	Level      string // Console level. The file receives every level.
	Pretty     bool
	File       string // Empty disables the file
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Console    io.Writer // Defaults to stderr
}

var file *lumberjack.Logger

// Init builds the log outputs, installs a logger on them as log.Logger, and returns them.
// The returned writer is what a log sink should forward to.
func Init(opts Options) (zerolog.LevelWriter, error) {
	var writers []io.Writer

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create logs dir: %w", err)
		}
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		writers = append(writers, file)
	}

	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	if opts.Pretty {
		console = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	}
	writers = append(writers, &zerolog.FilteredLevelWriter{
		Writer: zerolog.LevelWriterAdapter{Writer: console},
		Level:  lvl,
	})

	zerolog.TimeFieldFormat = time.RFC3339
	out := zerolog.MultiLevelWriter(writers...)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return out, nil
}

// Close releases the log file, if any
func Close() {
	if file != nil {
		_ = file.Close()
		file = nil
	}
}

// ConsoleLevel maps the command line switches onto a console level
func ConsoleLevel(verbose, debug bool) string {
	switch {
	case debug:
		return zerolog.LevelDebugValue
	case verbose:
		return zerolog.LevelInfoValue
	}
	return zerolog.LevelWarnValue
}
