package logger

import (
	"path/filepath"
	"testing"

	"github.com/lab007/webalert/internal/config"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":      zerolog.InfoLevel,
		"debug": zerolog.DebugLevel,
		"WARN":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
	}
	for input, want := range cases {
		got, err := parseLevel(input)
		if err != nil {
			t.Errorf("parseLevel(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := parseLevel("verbose"); err == nil {
		t.Error("parseLevel should reject unknown levels")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := parseFormat("json"); err != nil || f != formatJSON {
		t.Errorf("parseFormat(json) = %v, %v", f, err)
	}
	if _, err := parseFormat("xml"); err == nil {
		t.Error("parseFormat should reject unknown formats")
	}
}

func TestNewWithFileOutput(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "webalert.log")
	cfg.LogLevel = "debug"

	log, err := New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	log.Info().Msg("logger smoke test")
}

func TestNewRejectsBadLevel(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	cfg.LogLevel = "shout"
	if _, err := New(cfg); err == nil {
		t.Error("New should fail on an unknown log level")
	}
}
