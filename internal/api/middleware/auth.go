package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/service"
)

type contextKey string

const (
	userKey contextKey = "currentUser"
)

func failJSON(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "fail", "message": message})
}

// Auth resolves the bearer token (Authorization header, falling back to
// the jwt cookie) into the current user and threads it through the
// request context. The identity lookup happens once per request.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				failJSON(w, http.StatusUnauthorized, "you are not logged in, please log in to get access")
				return
			}

			user, err := authService.VerifySession(r.Context(), token)
			if err != nil {
				failJSON(w, http.StatusUnauthorized, service.ErrInvalidSession.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a route with an explicit role set. It runs after
// Auth and fails closed: no identity or an identity outside the set is
// forbidden.
func RequireRole(allowed ...domain.Role) func(http.Handler) http.Handler {
	allowedSet := make(map[domain.Role]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok || !allowedSet[user.Role] {
				failJSON(w, http.StatusForbidden, "you do not have permission to perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the identity resolved by Auth, if any.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie("jwt"); err == nil {
		return cookie.Value
	}
	return ""
}
