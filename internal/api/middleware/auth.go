package middleware

import (
	"context"
	"net/http"

	"github.com/eventpro/server/internal/api/problem"
	"github.com/eventpro/server/internal/auth"
	"github.com/rs/zerolog"
)

const userIDKey contextKey = "user_id"

// MessageUnauthorized is returned for every missing, malformed or expired token.
const MessageUnauthorized = "Missing or invalid token"

type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// RequireUser rejects requests without a valid bearer token with 401 and
// stores the token subject for UserID.
func RequireUser(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err == nil {
				var claims *auth.Claims
				claims, err = validator.Validate(token)
				if err == nil {
					ctx := WithUserID(r.Context(), claims.UserID())
					logger := zerolog.Ctx(ctx).With().Str("user_id", claims.UserID()).Logger()
					next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx)))
					return
				}
			}
			problem.Write(w, r, http.StatusUnauthorized, MessageUnauthorized, err, "production")
		})
	}
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated caller, or "" on unauthenticated routes.
func UserID(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}
	return ""
}
