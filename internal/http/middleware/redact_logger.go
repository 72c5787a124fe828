package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultMaxQueryBytes = 2048

// Search text arrives in the query string (GET /search?query=...,
// /documents/:id/match?query=...), so access logs scrub it like any other
// client-supplied value. UUIDs go first: the phone pattern would otherwise
// eat their digit groups.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// e.g. "+1 212-555-1212", "(212) 555-1212"
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// Redact replaces UUIDs, email addresses and phone numbers in s with
// placeholders.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactOptions configures RedactingLogger.
type RedactOptions struct {
	// MaskHeaders are replaced with "[REDACTED]" in addition to
	// Authorization, Cookie and Set-Cookie. Case-insensitive.
	MaskHeaders []string
	// MaxQueryBytes caps the logged query string. Defaults to 2048.
	MaxQueryBytes int
}

// RedactingLogger emits one structured access log per request and attaches a
// request-scoped logger (request_id, path) for LoggerFrom.
//
// Bodies are never logged. The query string and header values pass through
// Redact; masked headers are dropped to "[REDACTED]". Level is error for 5xx
// or when handlers recorded gin errors, warn for 4xx, info otherwise.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}
	maxQuery := opts.MaxQueryBytes
	if maxQuery <= 0 {
		maxQuery = defaultMaxQueryBytes
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		reqID := RequestIDFrom(c)

		// ClientID adds client_id once the header has been validated.
		scoped := log.With().
			Str("request_id", reqID).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &scoped)

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}

		ev.
			Str("request_id", reqID).
			Str("client_id", ClientIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", truncate(Redact(unescapeQuery(c.Request.URL.RawQuery)), maxQuery)).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Bool("replayed", c.Writer.Header().Get(HeaderIdempotencyReplayed) == "true").
			Interface("headers", scrubHeaders(c, masked)).
			Msg("http_request")
	}
}

// unescapeQuery decodes raw so percent-encoded addresses are still caught by
// Redact. Undecodable input is returned as is.
func unescapeQuery(raw string) string {
	if s, err := url.QueryUnescape(raw); err == nil {
		return s
	}
	return raw
}

func scrubHeaders(c *gin.Context, masked map[string]struct{}) map[string]string {
	out := make(map[string]string, len(c.Request.Header))
	for k, vv := range c.Request.Header {
		if _, ok := masked[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = Redact(strings.Join(vv, ", "))
	}
	return out
}
