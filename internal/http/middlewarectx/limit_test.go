package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/elearning-platform/internal/http/middlewarectx"
)

func TestRateLimiter_PerClient(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(0.001, 2, newNoopLogger())
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000"))
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(0.001, 1, newNoopLogger())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.SetClock(func() time.Time { return now })
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := range 50 {
		do("10.1.0." + strconv.Itoa(i) + ":1000")
	}
	assert.Equal(t, 50, limiter.Clients())

	now = now.Add(middlewarectx.DefaultIdleTTL / 2)
	assert.Equal(t, http.StatusTooManyRequests, do("10.1.0.1:1000"))

	now = now.Add(middlewarectx.DefaultIdleTTL)
	assert.Equal(t, http.StatusOK, do("10.2.0.1:1000"))
	assert.Equal(t, 1, limiter.Clients())
}
