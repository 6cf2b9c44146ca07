package middleware

import (
	"log/slog"
	"net/http"

	"github.com/whisperly/backend/internal/auth"
	"github.com/whisperly/backend/internal/respond"
)

// identify resolves the session cookie to an identity. A missing, unknown or
// expired session is Anonymous.
func identify(sessions *auth.SessionStore, r *http.Request) (auth.Identity, error) {
	cookie, err := r.Cookie(auth.SessionCookie)
	if err != nil {
		return auth.Anonymous, nil
	}
	return sessions.Get(r.Context(), cookie.Value)
}

// RequireAuth is middleware that validates the session cookie and
// injects the caller's identity into the request context.
func RequireAuth(sessions *auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identify(sessions, r)
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			if id.IsAnonymous() {
				respond.Fail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// Identify is the optional variant of RequireAuth: anonymous requests pass
// through with the Anonymous identity.
func Identify(sessions *auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identify(sessions, r)
			if err != nil {
				slog.WarnContext(r.Context(), "session lookup failed, continuing anonymously",
					slog.Any("error", err))
				id = auth.Anonymous
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}
