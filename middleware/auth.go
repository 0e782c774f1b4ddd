package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/localdeck/analytics/utils"
)

// added because of type complains
type contextKey string

const ActorIDKey contextKey = "actorId"

// ResolveActor validates a bearer token when one is present and puts the
// actor id on the request context. Missing or invalid tokens just mean
// anonymous activity; track endpoints never reject on auth.
func ResolveActor(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actorID := actorFromRequest(r, secret); actorID != "" {
				ctx := context.WithValue(r.Context(), ActorIDKey, actorID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth guards the dashboard read endpoints: a valid bearer token is
// mandatory.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := actorFromRequest(r, secret)
			if actorID == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ActorIDKey, actorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromRequest(r *http.Request, secret string) string {
	tokenString := r.Header.Get("Authorization")
	if tokenString == "" {
		return ""
	}

	parts := strings.Split(tokenString, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	token, err := utils.ValidateToken(parts[1], secret)
	if err != nil {
		log.Debug().Err(err).Msg("bearer token rejected")
		return ""
	}

	return utils.ActorFromToken(token)
}

// ActorFromContext reads the actor id ResolveActor attached, if any.
func ActorFromContext(ctx context.Context) string {
	actorID, _ := ctx.Value(ActorIDKey).(string)
	return actorID
}

// ContextIdentity adapts the request context into the collector's
// IdentityProvider boundary.
type ContextIdentity struct{}

func (ContextIdentity) CurrentActor(ctx context.Context) string {
	return ActorFromContext(ctx)
}
