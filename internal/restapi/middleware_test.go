package restapi

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marguerite.stanford.edu/internal/logging"
)

func TestCompressionMiddleware(t *testing.T) {
	api := createTestApi(t)
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	client := &http.Client{Transport: &http.Transport{DisableCompression: true}}

	t.Run("large json responses are gzipped", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/api/where/stops.json?key=TEST", nil)
		require.NoError(t, err)
		req.Header.Set("Accept-Encoding", "gzip")

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))

		gz, err := gzip.NewReader(resp.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(gz)
		require.NoError(t, err)
		assert.True(t, json.Valid(body))
		assert.Contains(t, string(body), "The Oval")
	})

	t.Run("clients without gzip get plain responses", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/api/where/stops.json?key=TEST")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Empty(t, resp.Header.Get("Content-Encoding"))
	})

	t.Run("small responses are not compressed", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/api/where/current-time.json?key=TEST", nil)
		require.NoError(t, err)
		req.Header.Set("Accept-Encoding", "gzip")

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Empty(t, resp.Header.Get("Content-Encoding"))
	})

	t.Run("event streams are excluded", func(t *testing.T) {
		handler := CompressionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = w.Write(bytes.Repeat([]byte("data: x\n\n"), 500))
		}))

		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "data: x"))
	})
}

func TestSecurityHeaders(t *testing.T) {
	handler := securityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("headers on every response", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("cors for cross-origin requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://map.example.org")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Last-Event-ID")
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://map.example.org")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	do := func(h http.Handler, key string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?key="+key, nil))
		return rec
	}

	t.Run("burst then reject", func(t *testing.T) {
		rl := NewRateLimitMiddleware(2, time.Second)
		defer rl.Stop()
		h := rl.Handler(ok)

		assert.Equal(t, http.StatusOK, do(h, "a").Code)
		assert.Equal(t, http.StatusOK, do(h, "a").Code)

		rec := do(h, "a")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "Rate limit exceeded")

		// Keys are limited independently.
		assert.Equal(t, http.StatusOK, do(h, "b").Code)
	})

	t.Run("exempt keys", func(t *testing.T) {
		rl := NewRateLimitMiddleware(1, time.Second, "kiosk")
		defer rl.Stop()
		h := rl.Handler(ok)

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, do(h, "kiosk").Code)
		}
	})

	t.Run("zero blocks everything", func(t *testing.T) {
		rl := NewRateLimitMiddleware(0, time.Second)
		defer rl.Stop()

		rec := do(rl.Handler(ok), "a")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
	})

	t.Run("negative disables limiting", func(t *testing.T) {
		rl := NewRateLimitMiddleware(-1, time.Second)
		defer rl.Stop()
		h := rl.Handler(ok)

		for i := 0; i < 20; i++ {
			assert.Equal(t, http.StatusOK, do(h, "").Code)
		}
	})

	t.Run("sweep drops refilled limiters", func(t *testing.T) {
		rl := NewRateLimitMiddleware(5, time.Minute)
		defer rl.Stop()
		h := rl.Handler(ok)

		rl.getLimiter("idle")
		for i := 0; i < 5; i++ {
			do(h, "busy")
		}

		rl.sweep()

		rl.mu.RLock()
		defer rl.mu.RUnlock()
		assert.NotContains(t, rl.limiters, "idle")
		assert.Contains(t, rl.limiters, "busy")
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		rl := NewRateLimitMiddleware(1, time.Second)
		rl.Stop()
		rl.Stop()
	})
}

func TestRequestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

	handler := NewRequestLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/where/live-map.json?key=TEST", nil)
	req.Header.Set("User-Agent", "map-client/1.0")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http_request", entry["msg"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/api/where/live-map.json", entry["path"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.Equal(t, float64(5), entry["bytes"])
	assert.Equal(t, "map-client/1.0", entry["user_agent"])
	assert.Contains(t, entry, "duration_ms")
}
