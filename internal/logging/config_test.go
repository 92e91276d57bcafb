package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{raw: "", want: zerolog.NoLevel, ok: false},
		{raw: "debug", want: zerolog.DebugLevel, ok: true},
		{raw: " WARNING ", want: zerolog.WarnLevel, ok: true},
		{raw: "off", want: zerolog.Disabled, ok: true},
		{raw: "loud", want: zerolog.NoLevel, ok: false},
		{raw: "trace", want: zerolog.TraceLevel, ok: true},
	}
	for _, tc := range cases {
		got, ok := parseLevel(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("parseLevel(%q) = %v,%v want %v,%v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEnvFlag(t *testing.T) {
	t.Setenv(EnvLogTimestamp, "true")
	v := false
	envFlag(EnvLogTimestamp, &v)
	if !v {
		t.Fatalf("expected flag to be set")
	}

	t.Setenv(EnvLogTimestamp, "maybe")
	envFlag(EnvLogTimestamp, &v)
	if !v {
		t.Fatalf("expected invalid value to be ignored")
	}

	t.Setenv(EnvLogTimestamp, "")
	v = false
	envFlag(EnvLogTimestamp, &v)
	if v {
		t.Fatalf("expected empty value to be ignored")
	}
}

func TestDefaultConfigProfiles(t *testing.T) {
	if cfg := defaultConfig(ProfileRuntime); cfg.Level != zerolog.WarnLevel {
		t.Fatalf("unexpected runtime level: %v", cfg.Level)
	}
	if cfg := defaultConfig(ProfileVerbose); cfg.Level != zerolog.DebugLevel || !cfg.Timestamp {
		t.Fatalf("unexpected verbose config: %+v", cfg)
	}
	if cfg := defaultConfig(ProfileTest); cfg.Timestamp {
		t.Fatalf("expected test profile without timestamps")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogNoColor, "1")
	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel {
		t.Fatalf("unexpected level: %v", cfg.Level)
	}
	if !cfg.NoColor {
		t.Fatalf("expected no color override")
	}
}
