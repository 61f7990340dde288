package httpapi

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const proxyUserKey contextKey = "proxyUser"

// proxyUserHeaders are checked in order. Traefik BasicAuth sets the first.
var proxyUserHeaders = []string{"X-Auth-User", "X-Forwarded-User", "Remote-User"}

// RequireProxyUser rejects requests that did not pass an authenticating
// reverse proxy, identified by the user header the proxy adds.
func RequireProxyUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := ""
		for _, h := range proxyUserHeaders {
			if user = r.Header.Get(h); user != "" {
				break
			}
		}

		if user == "" {
			slog.Warn("Authentication failed: no proxy user header", "path", r.URL.Path)
			respondError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		slog.Debug("Authenticated request", "user", user)
		ctx := context.WithValue(r.Context(), proxyUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ProxyUser returns the user RequireProxyUser accepted, if any.
func ProxyUser(r *http.Request) string {
	user, _ := r.Context().Value(proxyUserKey).(string)
	return user
}
