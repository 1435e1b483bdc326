package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fkhayef/schoolfinance/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ActorIDKey is the context key for the acting staff member or payer
	ActorIDKey ContextKey = "actor_id"

	// ActorHeader carries the actor id resolved by the identity provider in front of this service
	ActorHeader = "X-Actor-ID"
)

// ActorMiddleware puts the caller's actor id into the request context.
// Read-only requests may be anonymous; every mutating request must name its actor.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actorID == "" {
			if isMutating(r.Method) {
				response.Unauthorized(w, ActorHeader+" header required")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ActorIDKey, actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetActorID extracts the actor id from the request context
func GetActorID(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(ActorIDKey).(string)
	return actorID, ok && actorID != ""
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}
