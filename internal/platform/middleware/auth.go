package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"sigil/pkg/domain"
	"sigil/pkg/requestcontext"
)

// CallerParser validates bearer tokens and extracts the caller identity.
type CallerParser interface {
	ParseCaller(tokenString string) (domain.Caller, error)
}

// RequireAuth rejects requests without a valid bearer token and injects the
// caller into the request context. Capability callback endpoints do not use
// this middleware; they authenticate by disclosure proof instead.
func RequireAuth(parser CallerParser, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx))
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			caller, err := parser.ParseCaller(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx))
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, caller)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
