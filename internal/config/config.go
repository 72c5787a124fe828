// Package config provides application configuration loaded from environment
// variables with defaults and validation. An optional YAML file (CONFIG_FILE)
// supplies values for any key the environment leaves unset, so precedence is:
// environment > file > built-in default.
//
// It centralizes settings such as server timeouts, logging, the search
// engine (stop words, result cap, seed corpus), query history storage, rate
// limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-search-server")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SearchConfig configures the in-memory engine.
type SearchConfig struct {
	StopWords       string // STOP_WORDS, space separated
	MaxResults      int    // MAX_RESULTS, ranked result cap
	MaxContentRunes int    // MAX_CONTENT_RUNES, 0 disables the limit
	SeedPath        string // SEED_PATH, optional Markdown corpus loaded at startup
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // e.g. 10s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBPath          string // SQLite path (query history, idempotency)
	QueryLogEnabled bool   // record searches in the query history

	// Engine
	Search SearchConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables (and CONFIG_FILE when
// set), applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		// Server
		Port:              src.str("PORT", "8080"),
		ReadTimeout:       src.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: src.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      src.dur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       src.dur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   src.dur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    src.int("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(src.str("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(src.str("LOG_LEVEL", "info")),
		LogPretty:      src.bool("LOG_PRETTY", false),
		SwaggerEnabled: src.bool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(src.str("API_BASE_PATH", "/api/v1")),

		// Storage
		DBPath:          src.str("DB_PATH", "search.db"),
		QueryLogEnabled: src.bool("QUERY_LOG_ENABLED", true),

		// Engine
		Search: SearchConfig{
			StopWords:       src.str("STOP_WORDS", ""),
			MaxResults:      src.int("MAX_RESULTS", 5),
			MaxContentRunes: src.int("MAX_CONTENT_RUNES", 10000),
			SeedPath:        src.str("SEED_PATH", ""),
		},

		// Rate limiting
		RateRPS:   src.float("RATE_RPS", 5.0),
		RateBurst: src.int("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(src.str("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: src.bool("ENABLE_HSTS", false),
			HSTSMaxAge: src.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: src.dur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     src.bool("OTEL_ENABLED", false),
			Endpoint:    src.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    src.bool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: src.str("OTEL_SERVICE_NAME", "go-search-server"),
			SampleRatio: src.float("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ErrInvalid wraps every validation failure returned by Load.
var ErrInvalid = errors.New("invalid configuration")

func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	// The engine splits on single spaces; collapse tabs and runs here.
	c.Search.StopWords = strings.Join(strings.Fields(c.Search.StopWords), " ")
}

// validate reports every violated rule at once, joined.
func (c Config) validate() error {
	rules := []struct {
		bad bool
		msg string
	}{
		{!validLogLevel(c.LogLevel), "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"},
		{strings.TrimSpace(c.Port) == "", "PORT must not be empty"},
		{c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 ||
			c.IdleTimeout <= 0 || c.ShutdownTimeout <= 0, "timeouts must be positive durations"},
		{c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0"},
		{strings.TrimSpace(c.DBPath) == "", "DB_PATH must not be empty"},
		{c.Search.MaxResults < 1, "MAX_RESULTS must be >= 1"},
		{c.Search.MaxContentRunes < 0, "MAX_CONTENT_RUNES must be >= 0"},
		{c.RateRPS < 0, "RATE_RPS must be >= 0"},
		{c.RateBurst < 1, "RATE_BURST must be >= 1"},
		{c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0"},
		{c.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0"},
		{c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]"},
	}
	var errs []error
	for _, r := range rules {
		if r.bad {
			errs = append(errs, errors.New(r.msg))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func validLogLevel(l string) bool {
	switch l {
	case "debug", "info", "warn", "error", "fatal", "panic":
		return true
	}
	return false
}

// ---- value sources ----

// source resolves a key from the environment first, then from the optional
// config file.
type source struct {
	file map[string]string
}

// newSource parses the YAML file at path, if any. The file is a flat mapping
// using the same keys as the environment, e.g.:
//
//	PORT: 9090
//	STOP_WORDS: "a an the"
//	READ_TIMEOUT: 5s
func newSource(path string) (source, error) {
	src := source{file: map[string]string{}}
	if strings.TrimSpace(path) == "" {
		return src, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return src, fmt.Errorf("reading config file %s: %w", path, err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return src, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	for k, v := range raw {
		if v == nil {
			continue
		}
		src.file[strings.ToUpper(strings.TrimSpace(k))] = fmt.Sprint(v)
	}
	return src, nil
}

func (s source) lookup(k string) (string, bool) {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v, true
	}
	if v, ok := s.file[k]; ok && v != "" {
		return v, true
	}
	return "", false
}

func (s source) str(k, def string) string {
	if v, ok := s.lookup(k); ok {
		return v
	}
	return def
}

func (s source) float(k string, def float64) float64 {
	if v, ok := s.lookup(k); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (s source) int(k string, def int) int {
	if v, ok := s.lookup(k); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) bool(k string, def bool) bool {
	if v, ok := s.lookup(k); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func (s source) dur(k string, def time.Duration) time.Duration {
	if v, ok := s.lookup(k); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
