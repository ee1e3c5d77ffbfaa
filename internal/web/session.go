package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/server"
	"github.com/desertthunder/cratedig/internal/shared"
)

type sessionKey struct{}

// withSession returns a context carrying session.
func withSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFrom returns the session attached by the session middleware, or nil.
func SessionFrom(ctx context.Context) *models.Session {
	session, _ := ctx.Value(sessionKey{}).(*models.Session)
	return session
}

// loadSession attaches the cookie's session to the request context when the cookie verifies and the row exists.
// Stale cookies are cleared.
func (a *App) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Codec.SessionID(r)
		if err != nil {
			if hasCookie(r, a.Codec) {
				a.Codec.ClearCookie(w)
			}
			next.ServeHTTP(w, r)
			return
		}

		session, err := a.Sessions.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, shared.ErrSessionNotFound) {
				a.Codec.ClearCookie(w)
			} else {
				a.Logger.Error("failed to load session", "session", id, "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
	})
}

func hasCookie(r *http.Request, codec *server.SessionCodec) bool {
	_, err := r.Cookie(codec.CookieName())
	return err == nil
}

// requireSession answers 401 UNAUTHORIZED when no session is attached.
func (a *App) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()) == nil {
			server.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in to continue")
			return
		}
		next(w, r)
	}
}
