// internal/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/osfield/osfield/internal/auth"
	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/model"
	"github.com/osfield/osfield/internal/repository"
)

type contextKey string

const userKey contextKey = "osfield_user"

// CurrentUser returns the authenticated user resolved by AuthMiddleware, or
// nil when the request is unauthenticated.
func CurrentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

// WithUser returns a context carrying the user; exported for tests.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// AuthMiddleware validates the bearer token (Authorization header first,
// "token" cookie as fallback) and resolves it to an active user. Signature
// and expiry are checked locally before the user lookup, so expired tokens
// never reach the database. A token whose subject no longer exists or was
// deactivated is treated as invalid.
func AuthMiddleware(tokens *auth.TokenManager, users *repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				unauthorized(w, "missing credentials")
				return
			}

			claims, err := tokens.Validate(tokenString)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				unauthorized(w, "invalid token subject")
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					unauthorized(w, "unknown token subject")
					return
				}
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "storage unavailable"})
				return
			}
			if !user.Active {
				unauthorized(w, "account deactivated")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}

	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"message": message,
		"reason":  string(domain.ReasonNotAuthenticated),
	})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
