package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/mpavlovs/filestore/internal/server/auth"
)

// Context key type for storing the authenticated user id.
type contextKey string

const userIDContextKey contextKey = "user_id"

// UserIDFromContext retrieves the authenticated user id from the request
// context. It returns an empty string when called on a route that the jwtAuth
// middleware did not process.
func UserIDFromContext(ctx context.Context) string {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// extractBearerToken extracts the token from a Bearer Authorization header.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return parts[1], true
}

// jwtAuth validates Bearer tokens in the Authorization header. On success the
// token's user id is stored in the request context; otherwise the request is
// rejected with 401.
func jwtAuth(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractBearerToken(r)
			if !ok {
				unauthorized(w, "Authorization header required")
				return
			}

			userID, err := auth.GetUserIDFromToken(tokenString, secretKey)
			if err != nil {
				unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
