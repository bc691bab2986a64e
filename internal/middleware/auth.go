package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
)

const sessionName = "qa-session"

type contextKey string

const identityKey contextKey = "identity"

// Auth extracts the requesting identity from the session cookie. The
// identity is treated as opaque and already validated; issuing and
// validating identities is not this service's job.
type Auth struct {
	store *sessions.CookieStore
}

func NewAuth(sessionKey []byte) *Auth {
	return &Auth{store: sessions.NewCookieStore(sessionKey)}
}

// Identity returns the identity attached to the request, if any.
func Identity(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(identityKey).(string)
	return email, ok && email != ""
}

// SetIdentity stores the identity string in the session cookie.
func (a *Auth) SetIdentity(w http.ResponseWriter, r *http.Request, email string) error {
	session, _ := a.store.Get(r, sessionName)
	session.Values["email"] = email
	return session.Save(r, w)
}

// ClearIdentity drops the session.
func (a *Auth) ClearIdentity(w http.ResponseWriter, r *http.Request) error {
	session, _ := a.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// RequireIdentity redirects to the login form unless the request carries
// an identity. Public paths pass through untouched.
func (a *Auth) RequireIdentity(next http.Handler) http.Handler {
	publicPaths := []string{
		"/login",
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		for _, publicPath := range publicPaths {
			if path == publicPath || strings.HasPrefix(path, publicPath+"/") {
				next.ServeHTTP(w, r)
				return
			}
		}

		session, _ := a.store.Get(r, sessionName)
		email, ok := session.Values["email"].(string)
		if !ok || email == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
