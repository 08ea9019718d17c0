package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const (
	ClientKey    contextKey = "client"
	RequestIDKey contextKey = "request_id"
)

// openPaths never require a key.
var openPaths = map[string]bool{"/health": true, "/metrics": true}

// APIKeyAuth validates the request key against keys (client name -> key).
// The key is read from Authorization ("Bearer <key>" or "<key>"), X-API-Key
// or the password of HTTP Basic credentials, which is what browsers send for
// the web UI. An empty map disables authentication.
func APIKeyAuth(keys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if openPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			apiKey, err := requestKey(r)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}

			client := ""
			for name, key := range keys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					client = name
					break
				}
			}
			if client == "" {
				unauthorized(w, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), ClientKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var (
	errMissingAuth = errors.New("missing Authorization header")
	errAuthFormat  = errors.New("invalid Authorization header format")
)

func requestKey(r *http.Request) (string, error) {
	if _, password, ok := r.BasicAuth(); ok {
		if password == "" {
			return "", errAuthFormat
		}
		return password, nil
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		auth = r.Header.Get("X-API-Key")
	}
	if auth == "" {
		return "", errMissingAuth
	}
	key := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if key == "" {
		return "", errAuthFormat
	}
	return key, nil
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="pitch-analyzer"`)
	writeDetail(w, http.StatusUnauthorized, msg)
}

// ClientFromContext returns the authenticated client name, if any.
func ClientFromContext(ctx context.Context) string {
	if c, ok := ctx.Value(ClientKey).(string); ok {
		return c
	}
	return ""
}
