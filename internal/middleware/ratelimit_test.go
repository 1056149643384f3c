package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func limitedRequest(rl *RateLimiter, clientID uuid.UUID) int {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transform", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if clientID != uuid.Nil {
		req = req.WithContext(context.WithValue(req.Context(), ClientIDKey, clientID))
	}
	rr := httptest.NewRecorder()
	rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rr, req)
	return rr.Code
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	a, b := uuid.New(), uuid.New()

	assert.Equal(t, http.StatusOK, limitedRequest(rl, a))
	assert.Equal(t, http.StatusOK, limitedRequest(rl, a))
	assert.Equal(t, http.StatusTooManyRequests, limitedRequest(rl, a))

	// Same remote address, different client.
	assert.Equal(t, http.StatusOK, limitedRequest(rl, b))
}

func TestRateLimiter_FallsBackToRemoteAddr(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	assert.Equal(t, http.StatusOK, limitedRequest(rl, uuid.Nil))
	assert.Equal(t, http.StatusTooManyRequests, limitedRequest(rl, uuid.Nil))
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	id := uuid.New()

	assert.Equal(t, http.StatusOK, limitedRequest(rl, id))
	assert.Equal(t, http.StatusTooManyRequests, limitedRequest(rl, id))

	now = now.Add(61 * time.Second)
	assert.Equal(t, http.StatusOK, limitedRequest(rl, id))
}

func TestRateLimiter_CleanupDropsStaleVisitors(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	limitedRequest(rl, uuid.New())
	limitedRequest(rl, uuid.New())

	now = now.Add(2 * time.Minute)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.visitors)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Millisecond)
	rl.StartCleanup()
	rl.Stop()
	rl.Stop()
}
