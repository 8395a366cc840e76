package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	h := rl.Middleware()(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/appointments/reservar", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		codes = append(codes, rw.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	// Different client has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/appointments/reservar", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.2, 10.0.0.1")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200 for second client, got %d", rw.Code)
	}
}

func TestRateLimiterEvictsIdle(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	now := time.Now()
	rl.allow("a", now)
	rl.evict(now.Add(10 * time.Minute))
	if len(rl.visitors) != 0 {
		t.Fatalf("expected idle visitor to be evicted, have %d", len(rl.visitors))
	}
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if seen != "abc-123" || rw.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected request id to be reused, got ctx=%q header=%q", seen, rw.Header().Get(RequestIDHeader))
	}

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "abc-123" {
		t.Fatalf("expected a fresh request id, got %q", seen)
	}
}

func TestWithRecover(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := WithRecover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rw.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Code != "INTERNAL" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := WithCORS(PublicAPIPolicy([]string{"http://localhost:4321"}))(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/appointments/reservar", nil)
	req.Header.Set("Origin", "http://localhost:4321")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rw.Code)
	}
	if rw.Header().Get("Access-Control-Allow-Origin") != "http://localhost:4321" {
		t.Fatalf("unexpected allow origin %q", rw.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unexpected CORS header for unknown origin")
	}
}

func TestDecodeJSONBodyLimit(t *testing.T) {
	var got map[string]any
	h := WithBodyLimit(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := DecodeJSON(r, &got); err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nombre":"una cadena demasiado larga"}`)))
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", rw.Code)
	}

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
}

func TestRedisLimiterFailMode(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Nothing listens on port 1; every call fails fast.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	rl := NewRedisRateLimiter(rdb, 5, time.Minute, "test")

	for failOpen, want := range map[bool]int{true: http.StatusOK, false: http.StatusServiceUnavailable} {
		rw := httptest.NewRecorder()
		rl.Middleware(logger, failOpen)(okHandler()).ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		if rw.Code != want {
			t.Fatalf("failOpen=%v: expected %d, got %d", failOpen, want, rw.Code)
		}
	}
	if err := RedisReadyCheck(rdb)(context.Background()); err == nil {
		t.Fatal("expected ready check to fail")
	}
}

func TestAccessLogLevels(t *testing.T) {
	cases := map[int]slog.Level{
		http.StatusOK:                  slog.LevelInfo,
		http.StatusBadRequest:          slog.LevelInfo,
		http.StatusTooManyRequests:     slog.LevelWarn,
		http.StatusInternalServerError: slog.LevelError,
	}
	for status, want := range cases {
		if got := accessLevel(status); got != want {
			t.Fatalf("status %d: expected %s, got %s", status, want, got)
		}
	}

	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := WithAccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hola"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/business/config?x=1", nil))

	var line map[string]any
	if err := json.Unmarshal([]byte(buf.String()), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["path"] != "/api/business/config" || line["status"] != float64(200) || line["bytes"] != float64(4) {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestCORSWildcard(t *testing.T) {
	h := WithCORS(PublicAPIPolicy([]string{"*"}))(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/servicios/activos", nil)
	req.Header.Set("Origin", "https://turnos.example")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK || rw.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected response %d %q", rw.Code, rw.Header().Get("Access-Control-Allow-Origin"))
	}
}
