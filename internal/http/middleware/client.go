package middleware

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderClientID carries a caller-chosen identity. It is not authenticated;
	// it only scopes rate-limit buckets and idempotency keys.
	HeaderClientID = "X-Client-ID"

	ctxKeyClientID  = "clientID"
	anonymousClient = "anonymous"
	maxClientIDLen  = 64
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:@]+$`)

// ClientID stores a valid X-Client-ID header value in the Gin context and
// tags the request-scoped logger with it. Missing or malformed values leave
// the request anonymous.
func ClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderClientID))
		if id != "" && len(id) <= maxClientIDLen && clientIDPattern.MatchString(id) {
			c.Set(ctxKeyClientID, id)
		}
		lg := LoggerFrom(c).With().Str("client_id", ClientIDFrom(c)).Logger()
		c.Set(loggerKey, &lg)
		c.Next()
	}
}

// ClientIDFrom returns the identity stored by ClientID, or "anonymous".
func ClientIDFrom(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyClientID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return anonymousClient
}
