package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"yanote/internal/auth"
	"yanote/internal/user/model"
	"yanote/pkg/apperr"
	"yanote/pkg/logger"
)

type contextKey string

const UserIDKey contextKey = "userID"

// SessionCookie holds the signed session token for browser clients.
const SessionCookie = "session"

// UserID returns the authenticated user for the request context.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok && id > 0
}

// WithUserID stores userID in ctx the way Authenticate does.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// Users looks up the account a token was issued for.
type Users interface {
	Get(ctx context.Context, id int64) (*model.User, error)
}

// Authenticate resolves the acting user from the session cookie, a bearer
// token or a token query parameter. Requests without a valid token, or whose
// account no longer exists, continue anonymously.
func Authenticate(tokens *auth.TokenIssuer, users Users) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := tokens.Parse(tokenString)
			if err != nil {
				logger.Sugar.Debugf("Ignoring invalid token: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			if _, err := users.Get(r.Context(), userID); err != nil {
				if !errors.Is(err, apperr.ErrNotFound) {
					logger.Sugar.Errorf("Failed to load user %d: %v", userID, err)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				logger.Sugar.Debugf("Ignoring token for unknown user %d", userID)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	// Browsers cannot set headers on websocket handshakes.
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// RequireLogin redirects anonymous visitors to loginURL, carrying the
// requested path in the "next" parameter.
func RequireLogin(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserID(r.Context()); !ok {
				http.Redirect(w, r, LoginRedirectURL(loginURL, r.URL.RequestURI()), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginRedirectURL builds loginURL?next=target, leaving slashes unescaped.
func LoginRedirectURL(loginURL, target string) string {
	next := strings.ReplaceAll(url.QueryEscape(target), "%2F", "/")
	return loginURL + "?next=" + next
}

// RequireToken rejects anonymous API calls with 401.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserID(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="yanote"`)
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized: missing or invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
