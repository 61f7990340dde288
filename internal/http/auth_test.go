package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireProxyUser(t *testing.T) {
	var seen string
	h := RequireProxyUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ProxyUser(r)
	}))

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"traefik header", "X-Auth-User", "ada", http.StatusOK},
		{"forwarded user", "X-Forwarded-User", "ada", http.StatusOK},
		{"remote user", "Remote-User", "ada", http.StatusOK},
		{"no header", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/state", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, tt.value, seen)
			}
		})
	}
}

func TestRouter_ProxyAuthLeavesOpsOpen(t *testing.T) {
	router := NewRouter(newFakeState(), WithProxyAuth())

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/state", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("X-Auth-User", "ada")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
