package web

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/desertthunder/cratedig/internal/auth"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/server"
	"github.com/desertthunder/cratedig/internal/shared"
)

const stateCookie = "cratedig_oauth_state"

// Login serves GET /auth/login: it sets a state cookie and redirects to the provider's consent page.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		a.Logger.Error("failed to generate state", "error", err)
		server.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to start sign-in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   a.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, a.Authorizer.AuthURL(state), http.StatusFound)
}

type sessionResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
	State     string    `json:"state"`
	Error     string    `json:"error,omitempty"`
}

func newSessionResponse(session *models.Session, now time.Time) sessionResponse {
	state := auth.Valid
	switch {
	case session.Credential.Failed():
		state = auth.RefreshFailed
	case session.Credential.Expired(now):
		state = auth.ExpiredPendingRefresh
	}
	return sessionResponse{
		Username:  session.Username,
		ExpiresAt: session.Credential.Expiry().UTC(),
		State:     state.String(),
		Error:     string(session.Credential.LastError),
	}
}

// Callback serves GET /auth/callback: it checks the state, exchanges the code, looks up the user and opens a session.
func (a *App) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(query.Get("state"))) != 1 {
		server.WriteError(w, http.StatusBadRequest, "INVALID_STATE", "sign-in state mismatch, start again")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth", MaxAge: -1})

	code := query.Get("code")
	if code == "" {
		server.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization denied: "+query.Get("error"))
		return
	}

	token, err := a.Authorizer.Exchange(r.Context(), code)
	if err != nil {
		a.Logger.Warn("code exchange failed", "error", err)
		server.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "could not complete sign-in")
		return
	}

	session := &models.Session{Credential: auth.Grant(token, "", a.Now())}

	user, err := a.Profile.CurrentUser(r.Context(), token.AccessToken)
	if err != nil {
		a.Logger.Warn("profile lookup failed", "error", err)
	} else {
		session.Username = user.ID
	}

	if err := a.Sessions.Create(r.Context(), session); err != nil {
		a.Logger.Error("failed to create session", "error", err)
		server.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to create session")
		return
	}
	if err := a.Codec.SetCookie(w, session.ID); err != nil {
		a.Logger.Error("failed to set session cookie", "error", err)
		server.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to create session")
		return
	}

	a.Logger.Info("signed in", "user", session.Username, "session", session.ID)
	server.WriteJSON(w, http.StatusOK, newSessionResponse(session, a.Now()))
}

// Session serves GET /auth/session.
func (a *App) Session(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, newSessionResponse(SessionFrom(r.Context()), a.Now()))
}

// Logout serves POST /auth/logout. It succeeds without a session.
func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	if session := SessionFrom(r.Context()); session != nil {
		if err := a.Sessions.Delete(r.Context(), session.ID); err != nil {
			a.Logger.Warn("failed to delete session", "session", session.ID, "error", err)
		}
	}
	a.Codec.ClearCookie(w)
	server.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
