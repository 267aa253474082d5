package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// AuthMiddleware requires one of tokens as a bearer token. With no tokens
// configured every request passes.
func AuthMiddleware(tokens []string) func(http.Handler) http.Handler {
	hashes := make([][32]byte, 0, len(tokens))
	for _, t := range tokens {
		hashes = append(hashes, sha256.Sum256([]byte(t)))
	}

	return func(next http.Handler) http.Handler {
		if len(hashes) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing or invalid authorization header", "")
				return
			}

			hash := sha256.Sum256([]byte(strings.TrimPrefix(authHeader, "Bearer ")))
			allowed := false
			for _, h := range hashes {
				if subtle.ConstantTimeCompare(hash[:], h[:]) == 1 {
					allowed = true
				}
			}
			if !allowed {
				writeError(w, http.StatusUnauthorized, "invalid token", "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request and turns panics into a 500.
func LoggingMiddleware(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				if p := recover(); p != nil {
					logger.Error().Interface("panic", p).Str("path", r.URL.Path).Msg("handler panicked")
					writeError(rec, http.StatusInternalServerError, "internal server error", "")
				}

				ev := logger.Info()
				if rec.status >= http.StatusInternalServerError {
					ev = logger.Warn()
				}
				ev.Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", rec.status).
					Dur("took", time.Since(start)).
					Str("remote", r.RemoteAddr).
					Msg("request")
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
