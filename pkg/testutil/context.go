package testutil

import (
	"context"
	"net/http"
	"time"

	"sigil/pkg/domain"
	"sigil/pkg/requestcontext"
)

// WithCaller injects an authenticated caller into the request context,
// simulating what the auth middleware does for a valid bearer token.
func WithCaller(req *http.Request, subject string, role domain.Role) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), domain.Caller{Subject: subject, Role: role})
	return req.WithContext(ctx)
}

// CallerContext returns a context carrying the given caller, for driving
// services directly in unit tests.
func CallerContext(subject string, role domain.Role) context.Context {
	return requestcontext.WithCaller(context.Background(), domain.Caller{Subject: subject, Role: role})
}

// WithFixedTime pins the request-scoped clock so timestamp assertions are
// deterministic.
func WithFixedTime(ctx context.Context, t time.Time) context.Context {
	return requestcontext.WithTime(ctx, t)
}
