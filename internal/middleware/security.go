package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/aeturrell/deploy-api/internal/errors"
)

// ClientKey is the context key holding the name of an authenticated API client
const ClientKey contextKey = "api-client"

// APIKeyAuth admits requests whose X-API-Key header matches one of validKeys,
// which maps keys to client names. An empty map admits everything.
func APIKeyAuth(logger *slog.Logger, validKeys map[string]string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				logger.WarnContext(ctx, "missing API key",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeProblem(w, r, http.StatusUnauthorized, apierrors.TypeUnauthorized, "API key required")
				return
			}

			clientName, valid := lookupKey(validKeys, apiKey)
			if !valid {
				logger.WarnContext(ctx, "invalid API key",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeProblem(w, r, http.StatusUnauthorized, apierrors.TypeUnauthorized, "Invalid API key")
				return
			}

			ctx = context.WithValue(ctx, ClientKey, clientName)

			logger.DebugContext(ctx, "API key authentication successful",
				"client", clientName,
				"method", r.Method,
				"path", r.URL.Path,
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// lookupKey compares in constant time against every configured key
func lookupKey(validKeys map[string]string, apiKey string) (string, bool) {
	var (
		name  string
		found bool
	)
	for key, client := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			name, found = client, true
		}
	}
	return name, found
}

// AuditLog records who invoked a sensitive operation and how it ended
func AuditLog(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			client, _ := ctx.Value(ClientKey).(string)
			if client == "" {
				client = "anonymous"
			}

			logger.InfoContext(ctx, "audit log",
				"event_type", "api_access",
				"client", client,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)

			next.ServeHTTP(ww, r)

			logger.InfoContext(ctx, "audit log complete",
				"event_type", "api_response",
				"client", client,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).String(),
			)
		})
	}
}
