package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	h := rl.Middleware(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/ai-chat", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_KeysByIPNotPort(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	assert.True(t, rl.Allow(clientIP(&http.Request{RemoteAddr: "10.0.0.2:1000"})))
	assert.False(t, rl.Allow(clientIP(&http.Request{RemoteAddr: "10.0.0.2:2000"})))
	assert.True(t, rl.Allow(clientIP(&http.Request{RemoteAddr: "10.0.0.3:1000"})))
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("a"))
}

func TestRateLimiter_ErrorEnvelope(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	defer rl.Stop()

	req := httptest.NewRequest(http.MethodPost, "/api/ai-chat", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rr := httptest.NewRecorder()
	rl.Middleware(okHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	var body struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMITED", body.Error.Code)
	assert.Equal(t, "req-1", body.Error.RequestID)
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
}

func TestRequestID_KeepsClientValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "client-id")

	rr := httptest.NewRecorder()
	RequestID(okHandler).ServeHTTP(rr, req)

	assert.Equal(t, "client-id", rr.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		rr := httptest.NewRecorder()
		CORS("*")(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rr.Header().Get("Access-Control-Expose-Headers"), "X-Calmi-Source")
	})

	t.Run("matching origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.Header.Set("Origin", "https://calmi.app")
		rr := httptest.NewRecorder()
		CORS("https://calmi.app/")(okHandler).ServeHTTP(rr, req)

		assert.Equal(t, "https://calmi.app", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.Header.Set("Origin", "https://evil.example")
		rr := httptest.NewRecorder()
		CORS("https://calmi.app")(okHandler).ServeHTTP(rr, req)

		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		rr := httptest.NewRecorder()
		CORS("*")(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/ai-chat", nil))

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}
