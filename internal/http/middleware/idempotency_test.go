package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// idemState is what a handler behind IdempotencyValidator observed.
type idemState struct {
	key            string
	replay, bypass bool
}

func serveIdem(t *testing.T, opts IdempotencyOptions, lookup IdempotencyLookup, method, path, route string, hdr map[string]string) (*httptest.ResponseRecorder, *idemState) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), ClientID(), IdempotencyValidator(opts, lookup))

	var seen *idemState
	r.Handle(method, route, func(c *gin.Context) {
		k, _ := GetIdempotencyKey(c)
		seen = &idemState{key: k, replay: IsReplay(c), bypass: IsRateBypass(c)}
		if seen.replay {
			MarkReplayed(c)
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestIdempotencyAccessors_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/documents", nil)

	if k, ok := GetIdempotencyKey(c); ok || k != "" {
		t.Fatalf("unexpected key %q", k)
	}
	if IsReplay(c) {
		t.Fatalf("IsReplay should default to false")
	}
	c.Set(ctxKeyIdemKey, 123)
	c.Set(ctxKeyIdemReplay, "yes")
	if _, ok := GetIdempotencyKey(c); ok || IsReplay(c) {
		t.Fatalf("wrongly typed values must read as absent")
	}
}

func TestIdempotencyValidator_PassThrough(t *testing.T) {
	calls := 0
	lookup := func(context.Context, string, string, string, time.Time) (bool, error) {
		calls++
		return true, nil
	}

	t.Run("no header", func(t *testing.T) {
		w, seen := serveIdem(t, IdempotencyOptions{}, lookup, http.MethodPost, "/documents", "/documents", nil)
		if w.Code != http.StatusOK || seen.key != "" || seen.replay {
			t.Fatalf("code=%d seen=%+v", w.Code, seen)
		}
	})
	t.Run("safe method ignores header", func(t *testing.T) {
		w, seen := serveIdem(t, IdempotencyOptions{}, lookup, http.MethodGet, "/search?query=cat", "/search",
			map[string]string{HeaderIdempotencyKey: "not a valid key!"})
		if w.Code != http.StatusOK || seen.key != "" {
			t.Fatalf("code=%d seen=%+v", w.Code, seen)
		}
	})
	if calls != 0 {
		t.Fatalf("lookup called %d times", calls)
	}
}

func TestIdempotencyValidator_RejectsMalformedKeys(t *testing.T) {
	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"default max", IdempotencyOptions{}, strings.Repeat("k", 201)},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123"},
		{"default pattern", IdempotencyOptions{}, "has space"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, seen := serveIdem(t, tc.opts, nil, http.MethodPost, "/documents", "/documents",
				map[string]string{HeaderIdempotencyKey: tc.key, "X-Request-ID": "rid-idem"})
			if w.Code != http.StatusBadRequest || seen != nil {
				t.Fatalf("code=%d handler reached=%v", w.Code, seen != nil)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("json: %v", err)
			}
			if body["code"] != "bad_idempotency_key" || body["request_id"] != "rid-idem" {
				t.Fatalf("body=%v", body)
			}
		})
	}
}

func TestIdempotencyValidator_Lookup(t *testing.T) {
	type call struct{ client, scope, key string }

	t.Run("miss stashes key only", func(t *testing.T) {
		var got call
		lookup := func(_ context.Context, client, scope, key string, now time.Time) (bool, error) {
			if now.IsZero() || now.Location() != time.UTC {
				t.Errorf("now=%v", now)
			}
			got = call{client, scope, key}
			return false, nil
		}
		w, seen := serveIdem(t, IdempotencyOptions{}, lookup, http.MethodPost, "/documents", "/documents",
			map[string]string{HeaderIdempotencyKey: "key-1"})
		if w.Code != http.StatusOK || seen.key != "key-1" || seen.replay || seen.bypass {
			t.Fatalf("code=%d seen=%+v", w.Code, seen)
		}
		if got != (call{"anonymous", "/documents", "key-1"}) {
			t.Fatalf("lookup args %+v", got)
		}
	})

	t.Run("hit flags replay and rate bypass", func(t *testing.T) {
		var got call
		lookup := func(_ context.Context, client, scope, key string, _ time.Time) (bool, error) {
			got = call{client, scope, key}
			return true, nil
		}
		w, seen := serveIdem(t, IdempotencyOptions{}, lookup, http.MethodPut, "/stop-words", "/stop-words",
			map[string]string{HeaderIdempotencyKey: "k-9", HeaderClientID: "indexer-1"})
		if !seen.replay || !seen.bypass || w.Header().Get(HeaderIdempotencyReplayed) != "true" {
			t.Fatalf("seen=%+v headers=%v", seen, w.Header())
		}
		if got != (call{"indexer-1", "/stop-words", "k-9"}) {
			t.Fatalf("lookup args %+v", got)
		}
	})

	t.Run("error is logged and ignored", func(t *testing.T) {
		buf := captureLogger(t)
		lookup := func(context.Context, string, string, string, time.Time) (bool, error) {
			return true, errors.New("database is locked")
		}
		w, seen := serveIdem(t, IdempotencyOptions{}, lookup, http.MethodPost, "/documents", "/documents",
			map[string]string{HeaderIdempotencyKey: "k-err"})
		if w.Code != http.StatusOK || seen.replay || seen.bypass {
			t.Fatalf("code=%d seen=%+v", w.Code, seen)
		}
		if !strings.Contains(buf.String(), "idempotency lookup failed") {
			t.Fatalf("missing warn log: %s", buf.String())
		}
	})
}
