package logger

import (
	"strings"

	"github.com/lab007/webalert/internal/common"

	"github.com/rs/zerolog"
)

type logFormat int

const (
	formatConsole logFormat = iota
	formatJSON
	formatText
)

func parseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	case "panic":
		return zerolog.PanicLevel, nil
	default:
		return zerolog.NoLevel, common.NewValidationError("log_level", level, "unknown log level")
	}
}

func parseFormat(format string) (logFormat, error) {
	switch strings.ToLower(format) {
	case "", "console":
		return formatConsole, nil
	case "json":
		return formatJSON, nil
	case "text":
		return formatText, nil
	default:
		return formatConsole, common.NewValidationError("log_format", format, "unknown log format")
	}
}
