package logger

import (
	"io"
	stdlog "log"

	"github.com/lab007/webalert/internal/common"
	"github.com/lab007/webalert/internal/config"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger from the log configuration. Console output
// always goes to stderr; when a log file is configured it is rotated with
// lumberjack and written alongside the console stream.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Logger{}, err
	}
	format, err := parseFormat(cfg.LogFormat)
	if err != nil {
		return zerolog.Logger{}, err
	}

	writers := []io.Writer{newConsoleWriter(format)}
	if cfg.LogFile != "" {
		fileWriter, err := newFileWriter(cfg, format)
		if err != nil {
			return zerolog.Logger{}, common.WrapError(err, "failed to create log file writer")
		}
		writers = append(writers, fileWriter)
	}

	multiWriter := zerolog.MultiLevelWriter(writers...)
	logger := zerolog.New(multiWriter).
		Level(level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(level)
	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)

	return logger, nil
}
