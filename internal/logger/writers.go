package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lab007/webalert/internal/config"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

func newConsoleWriter(format logFormat) io.Writer {
	switch format {
	case formatJSON:
		return os.Stderr
	case formatText:
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339, NoColor: true}
	default:
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
}

func newFileWriter(cfg config.LogConfig, format logFormat) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return nil, err
	}

	maxSize := cfg.MaxLogSizeMB
	if maxSize <= 0 {
		maxSize = config.DefaultMaxLogSizeMB
	}
	maxBackups := cfg.MaxLogBackups
	if maxBackups <= 0 {
		maxBackups = config.DefaultMaxLogBackups
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		LocalTime:  true,
	}

	// File output never carries ANSI color codes.
	if format == formatConsole || format == formatText {
		return zerolog.ConsoleWriter{Out: rotated, TimeFormat: time.RFC3339, NoColor: true}, nil
	}
	return rotated, nil
}
