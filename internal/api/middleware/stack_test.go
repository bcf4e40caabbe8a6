// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewRouter_CanonicalStack(t *testing.T) {
	r := NewRouter(StackConfig{EnableSecurityHeaders: true, EnableMetrics: true, EnableLogging: true})
	r.HandleFunc("/api/video", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	before := testutil.CollectAndCount(httpRequestDuration)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/video?action=status&videoId=x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assertCORS(t, rec.Header())
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/video", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assertCORS(t, rec.Header())

	assert.Greater(t, testutil.CollectAndCount(httpRequestDuration), before)
}

func TestActionLabel(t *testing.T) {
	tests := map[string]string{
		"/api/video":                         "none",
		"/api/video?action=create":           "create",
		"/api/video?action=embed-token":      "embed-token",
		"/api/video?action=%3Cscript%3E":     "invalid",
		"/api/video?action=status&videoId=1": "status",
	}
	for target, want := range tests {
		assert.Equal(t, want, actionLabel(httptest.NewRequest(http.MethodGet, target, nil)), target)
	}
}

func TestStackConfig_Order(t *testing.T) {
	assert.Len(t, StackConfig{}.Middlewares(), 3)
	all := StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableLogging:         true,
		TracingService:        "videoplane",
		EnableRateLimit:       true,
		RateLimitRPM:          1,
	}
	assert.Len(t, all.Middlewares(), 8)
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/video", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/api/video", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, hstsValue, rec.Header().Get("Strict-Transport-Security"))
}

func TestStatusRecorder_FirstStatusWins(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	_, _ = rec.Write([]byte("abc"))
	rec.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusOK, rec.status)
	assert.Equal(t, 3, rec.bytes)
}
