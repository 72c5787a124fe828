package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	visitorTTL     = 10 * time.Minute
	gcEveryLookups = 5000
)

// keyFunc maps a request to its bucket identity.
type keyFunc func(*gin.Context) string

// KeyByClientOrIP keys buckets by the X-Client-ID stored by ClientID
// ("client:<id>"), falling back to "ip:<addr>" for anonymous callers.
func KeyByClientOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get(ctxKeyClientID); ok {
			if s, ok := v.(string); ok && s != "" {
				return "client:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token bucket per key. Idle buckets are
// dropped after visitorTTL during an occasional sweep. Safe for concurrent use.
type RateLimiter struct {
	rps    rate.Limit
	burst  int
	keyFn  keyFunc
	exempt []string

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter allows rps requests per second per key with the given
// burst (coerced to at least 1). rps 0 allows only the initial burst.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      visitorTTL,
	}
}

// Exempt excludes paths starting with any of prefixes (health checks, metrics
// scrapes, docs) from limiting.
func (rl *RateLimiter) Exempt(prefixes ...string) *RateLimiter {
	rl.exempt = append(rl.exempt, prefixes...)
	return rl
}

// getVisitor sweeps idle buckets before the lookup, so a stale bucket for key
// is replaced rather than refreshed.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= gcEveryLookups {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator found a stored result for
// this request, in which case the replay costs no tokens.
func IsRateBypass(c *gin.Context) bool {
	return c.GetBool(ctxKeyRateBypass)
}

// Handler rejects requests over the key's budget with 429, a Retry-After
// header rounded up to whole seconds and the standard error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || hasAnyPrefix(c.Request.URL.Path, rl.exempt) {
			c.Next()
			return
		}

		res := rl.getVisitor(rl.keyFn(c)).Reserve()
		if res.OK() && res.Delay() == 0 {
			c.Next()
			return
		}
		// A zero rate never refills; its reservation reports InfDuration.
		wait := 1
		if res.OK() {
			if d := res.Delay(); d != rate.InfDuration {
				wait = max(1, int(math.Ceil(d.Seconds())))
			}
			res.Cancel()
		}

		c.Header("Retry-After", strconv.Itoa(wait))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}

// String describes the limiter configuration for startup logs.
func (rl *RateLimiter) String() string {
	return "rate=" + strconv.FormatFloat(float64(rl.rps), 'g', -1, 64) +
		" burst=" + strconv.Itoa(rl.burst) +
		" exempt=" + strings.Join(rl.exempt, ",")
}
