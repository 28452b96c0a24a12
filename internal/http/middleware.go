package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/meetingverifier/internal/application"
	"github.com/example/meetingverifier/internal/logging"
)

// RequireAdmin gates mutating Room/Participant endpoints behind the single
// shared admin bearer token. The token is
// never stored in plaintext; tokenHash is its Argon2id hash, loaded from
// SCHEDULER_ADMIN_TOKEN_HASH.
func RequireAdmin(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingBearerToken)
				return
			}

			if tokenHash == "" {
				responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, errorResponse{Message: "admin authentication is not configured"})
				return
			}

			if err := application.VerifyAdminToken(tokenHash, token); err != nil {
				responder.handleServiceError(r.Context(), w, application.ErrInvalidCredentials)
				return
			}

			ctx := ContextWithAdmin(r.Context(), true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, prefix))
	}
	return ""
}

// RequestLogger attaches a request scoped logger to the context and logs
// the start and completion of every request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
