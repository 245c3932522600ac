package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the userID value we store.
type contextKey string

const userIDKey contextKey = "userID"

// RequireSession is the authorization gate for API routes.
//
// It reads the session cookie, validates the token, and stores the userID
// in the request context. Missing or invalid sessions get a 401 JSON
// response and the handler never runs. Every record-bearing operation sits
// behind this middleware — handlers do not re-check credentials themselves.
func RequireSession(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid session required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSessionRedirect is the page variant of the gate: browsers without
// a valid session are sent to the login form instead of receiving a 401.
// Being unauthenticated on a page route is a navigation event, not an API
// failure.
func RequireSessionRedirect(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) if the request carried no valid session.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads the session cookie and validates it.
// Shared by both middleware variants.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie — the request is simply anonymous
		return "", err
	}

	return tokens.Validate(cookie.Value)
}
