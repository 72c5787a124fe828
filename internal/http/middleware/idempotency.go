package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderIdempotencyKey carries the client's retry key on document writes.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotencyReplayed is set to "true" on responses served from a
	// stored idempotency record instead of a fresh write.
	HeaderIdempotencyReplayed = "Idempotency-Replayed"

	defaultIdemMaxLen = 200
)

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key accepted by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// IsReplay reports whether a stored result exists for this client, route
// template and key.
func IsReplay(c *gin.Context) bool {
	return c.GetBool(ctxKeyIdemReplay)
}

// MarkReplayed tags the response as served from a stored record.
func MarkReplayed(c *gin.Context) {
	c.Header(HeaderIdempotencyReplayed, "true")
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	MaxLen  int            // defaults to 200
	Pattern *regexp.Regexp // defaults to ^[A-Za-z0-9._~\-:]+$
}

// IdempotencyLookup reports whether a live record exists for
// (clientID, scope, key) at now. scope is the matched route template, e.g.
// "/api/v1/documents". Expiry is the lookup's concern.
type IdempotencyLookup func(ctx context.Context, clientID, scope, key string, now time.Time) (bool, error)

// IdempotencyValidator checks the Idempotency-Key header on unsafe methods.
// Safe methods and requests without the header pass through untouched. A
// malformed key is rejected with 400. When lookup finds a stored record the
// request is flagged as a replay and exempted from rate limiting; handlers
// decide how to answer it. Lookup failures are logged and otherwise ignored.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemMaxLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			found, err := lookup(c.Request.Context(), ClientIDFrom(c), c.FullPath(), key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case found:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
