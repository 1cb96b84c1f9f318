package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{"", zerolog.InfoLevel, false},
		{"trace", zerolog.TraceLevel, true},
		{" DEBUG ", zerolog.DebugLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseLevel(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %v, want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogNoColor, "true")
	t.Setenv(EnvLogTimestamp, "nonsense")

	cfg := DefaultConfig(ProfileRuntime)
	ApplyEnv(&cfg)

	if cfg.Level != zerolog.ErrorLevel {
		t.Errorf("Level = %v, want error", cfg.Level)
	}
	if !cfg.NoColor {
		t.Error("NoColor should be set from the environment")
	}
	if !cfg.Timestamp {
		t.Error("unparseable timestamp override should be ignored")
	}
}

func TestFromSettings_EnvWins(t *testing.T) {
	t.Setenv(EnvLogLevel, "trace")

	cfg := FromSettings("warn", false)
	if cfg.Level != zerolog.TraceLevel {
		t.Errorf("Level = %v, want trace", cfg.Level)
	}
}

func TestNew_WritesAtLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig(ProfileTest)
	cfg.Level = zerolog.InfoLevel
	cfg.Out = &buf

	logger := New(cfg, "typeatron-test")
	logger.Debug().Msg("hidden")
	logger.Info().Str("device", "bench").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "device=bench") {
		t.Errorf("output = %q", out)
	}
}
