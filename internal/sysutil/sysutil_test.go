package sysutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	for in, want := range map[string]zerolog.Level{
		"  DeBuG  ": zerolog.DebugLevel,
		"":          zerolog.InfoLevel,
		"warning":   zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"fatal":     zerolog.FatalLevel,
		"panic":     zerolog.PanicLevel,
		"trace":     zerolog.TraceLevel,
		"verbose":   zerolog.InfoLevel,
	} {
		SetLogLevel(in)
		if got := zerolog.GlobalLevel(); got != want {
			t.Errorf("SetLogLevel(%q): level %v, want %v", in, got, want)
		}
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Run("IsTruthy", func(t *testing.T) {
		for v, want := range map[string]bool{
			"1": true, " yes ": true, "On": true, "TRUE": true,
			"": false, "off": false, "n": false, "maybe": false,
		} {
			if IsTruthy(v) != want {
				t.Errorf("IsTruthy(%q) != %v", v, want)
			}
		}
	})
	t.Run("FirstNonEmpty", func(t *testing.T) {
		cases := []struct {
			in   []string
			want string
		}{
			{nil, ""},
			{[]string{" ", "\t"}, ""},
			{[]string{"", "  warn  ", "info"}, "  warn  "},
			{[]string{"debug", "info"}, "debug"},
		}
		for _, tc := range cases {
			if got := FirstNonEmpty(tc.in...); got != tc.want {
				t.Errorf("FirstNonEmpty(%q) = %q, want %q", tc.in, got, tc.want)
			}
		}
	})
}

func TestSetupLogger_JSONAndPretty(t *testing.T) {
	origLevel, origLogger := zerolog.GlobalLevel(), log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(origLevel)
		log.Logger = origLogger
	})

	var buf bytes.Buffer
	SetupLogger(&buf, "warn", false, "searchd")
	log.Info().Msg("dropped")
	log.Warn().Int("documents", 3).Msg("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"service":"searchd"`) || !strings.Contains(out, `"documents":3`) {
		t.Fatalf("unexpected JSON log: %s", out)
	}

	buf.Reset()
	SetupLogger(&buf, "debug", true, "searchd")
	log.Debug().Msg("pretty line")
	if out := buf.String(); !strings.Contains(out, "pretty line") || strings.HasPrefix(out, "{") {
		t.Fatalf("expected console format, got %q", out)
	}
}

func TestVersion_PrefersEnv(t *testing.T) {
	t.Setenv("APP_VERSION", "1.2.3")
	if got := Version(); got != "1.2.3" {
		t.Fatalf("Version() = %q", got)
	}
	t.Setenv("APP_VERSION", "")
	if got := Version(); got == "" {
		t.Fatalf("Version() must never be empty")
	}
}
