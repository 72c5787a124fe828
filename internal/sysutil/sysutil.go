// Package sysutil holds process-level helpers shared by the binaries:
// logger setup, version lookup and small env parsing utilities.
package sysutil

import (
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel sets the global zerolog level from a case-insensitive name.
// "warning" is accepted for warn; blank or unknown names mean info.
func SetLogLevel(lvl string) {
	name := strings.ToLower(strings.TrimSpace(lvl))
	if name == "warning" {
		name = "warn"
	}
	l, err := zerolog.ParseLevel(name)
	if err != nil || l == zerolog.NoLevel {
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
}

// SetupLogger replaces the global logger with one writing to w, tagged with
// the service name. pretty selects the human readable console format.
func SetupLogger(w io.Writer, level string, pretty bool, service string) {
	SetLogLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", service).Logger()
}

// Version returns APP_VERSION, the module version recorded at build time, or
// "dev", whichever is set first.
func Version() string {
	var build string
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "(devel)" {
		build = bi.Main.Version
	}
	return FirstNonEmpty(os.Getenv("APP_VERSION"), build, "dev")
}

// IsTruthy is the env flag parser used by the binaries: 1, true, yes, y and
// on, in any case, are true.
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// FirstNonEmpty returns the first non-blank string, or "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
