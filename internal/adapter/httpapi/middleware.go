package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/carhive/marketplace/internal/adapter/auth"
)

// JWTAuth authenticates a Bearer token and attaches the resulting session
// to the request context, where the usecases resolve it.
func JWTAuth(sessions *auth.SessionManager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.Fields(header)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				logger.Warn("missing or malformed authorization header", zap.String("path", r.URL.Path))
				http.Error(w, `{"error":"authorization token is not provided"}`, http.StatusUnauthorized)
				return
			}

			session, err := sessions.Parse(parts[1])
			if err != nil {
				logger.Warn("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				http.Error(w, `{"error":"token is invalid"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Info("request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
			next.ServeHTTP(w, r)
		})
	}
}
