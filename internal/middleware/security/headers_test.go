package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serve(cfg HeadersConfig, r *http.Request) *httptest.ResponseRecorder {
	h := NewHeadersMiddleware(cfg).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

func TestDefaultHeaders(t *testing.T) {
	rr := serve(DefaultHeadersConfig(), httptest.NewRequest(http.MethodGet, "/api/alerts", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"), "no HSTS over plain HTTP")
}

func TestHSTSOverTLS(t *testing.T) {
	cfg := DefaultHeadersConfig()
	cfg.HSTSPreload = true
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}

	rr := serve(cfg, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains; preload", rr.Header().Get("Strict-Transport-Security"))
}

func TestEmptyValuesAreOmitted(t *testing.T) {
	rr := serve(HeadersConfig{XFrameOptions: "SAMEORIGIN"}, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "SAMEORIGIN", rr.Header().Get("X-Frame-Options"))
	_, ok := rr.Header()["Content-Security-Policy"]
	assert.False(t, ok)
}
