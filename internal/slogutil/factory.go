package slogutil

import (
	"io"
	"log/slog"
	"path/filepath"

	"orivus/internal/config"
)

// LoggerFactory builds the CLI logger from config and command-line flags.
// Precedence: CLI level > config logging.level > info.
type LoggerFactory struct {
	logsDir  string
	config   config.LoggingConfig
	cliLevel *slog.Level
	closers  []io.Closer
}

// NewLoggerFactory creates a factory. A relative logging.file is placed in
// logsDir. cliLevel is nil when no flag was given.
func NewLoggerFactory(logsDir string, cfg config.LoggingConfig, cliLevel *slog.Level) *LoggerFactory {
	return &LoggerFactory{logsDir: logsDir, config: cfg, cliLevel: cliLevel}
}

// Logger returns a logger writing to w, teed to logging.file when configured.
// A file that cannot be opened is skipped; the console logger still works.
func (f *LoggerFactory) Logger(w io.Writer) *slog.Logger {
	level := f.EffectiveLevel()
	console := f.handler(w, level)

	if f.config.File == "" {
		return slog.New(console)
	}

	path := f.config.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.logsDir, path)
	}
	fileLogger, file, err := NewFileLogger(path, slog.LevelDebug)
	if err != nil {
		logger := slog.New(console)
		logger.Warn("log file unavailable", "path", path, "err", err)
		return logger
	}
	f.closers = append(f.closers, file)
	return slog.New(NewTeeHandler(console, fileLogger.Handler()))
}

// EffectiveLevel resolves the console level.
func (f *LoggerFactory) EffectiveLevel() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.config.Level != "" {
		return LevelFromString(f.config.Level)
	}
	return slog.LevelInfo
}

func (f *LoggerFactory) handler(w io.Writer, level slog.Level) slog.Handler {
	if f.config.Format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return NewHandler(w, &slog.HandlerOptions{Level: level})
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
