package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// requestIDHeader carries the correlation id between the client and the
// story/social/activity/auth services. One listening action can fan out
// into several backend calls; reusing the inbound id ties them together.
const requestIDHeader = "X-Request-Id"

type ctxKeyRequestID struct{}

// RequestIDFromContext returns the id installed by RequestIDMiddleware,
// or "" outside a request. Handlers echo it in error envelopes.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return v
}

// RequestIDMiddleware adopts the caller's request id when one arrives and
// mints one otherwise. Minted ids are prefixed with the service name so a
// trace across services shows where the id originated.
func RequestIDMiddleware(service string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if rid == "" {
				rid = service + "-" + uuid.NewString()
			}
			w.Header().Set(requestIDHeader, rid)
			ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, rid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
