// Package web implements the JSON API that a browser client drives.
//
// # Routes
//
//	GET  /health                → liveness
//	GET  /genres                → genre, era and language catalog
//	GET  /recommendations       → one page of tracks for genre/era/language/offset (requires session)
//	POST /playlist/create       → save selected tracks as a private playlist (requires session)
//	GET  /auth/login            → start the authorization code flow
//	GET  /auth/callback         → finish sign-in, create the session, set the cookie
//	GET  /auth/session          → current session diagnostics
//	POST /auth/logout           → delete the session and clear the cookie
//
// # Sessions
//
// The session middleware resolves the signed cookie to a stored [models.Session] and puts it on the request context.
// Every handler that talks to the provider first runs the credential through the token lifecycle manager and writes
// it back to the store when the manager reports a change, so the next request reads the refreshed (or failed) state.
//
// # Errors
//
// Failures are JSON bodies of the form {"error": code, "message": text}. EMPTY_CRITERIA and malformed input map to
// 400, UNAUTHORIZED and REFRESH_FAILED to 401, PROVIDER_ERROR to 500.
package web

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/auth"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/recommend"
	"github.com/desertthunder/cratedig/internal/server"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/tasks"
)

// SessionStore persists sessions and their credentials.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	SaveCredential(ctx context.Context, id string, cred models.Credential) error
	Delete(ctx context.Context, id string) error
}

// Recommender runs recommendation searches.
type Recommender interface {
	Search(ctx context.Context, criteria models.SearchCriteria, cred models.Credential) (recommend.Outcome, error)
}

// PlaylistCreator saves a track selection as a provider playlist.
type PlaylistCreator interface {
	Create(ctx context.Context, progress chan<- tasks.ProgressUpdate, accessToken string, in tasks.CreatePlaylistInput) (*tasks.CreatePlaylistResult, error)
}

// Profile is the provider lookup used at sign-in and for the genre catalog.
type Profile interface {
	CurrentUser(ctx context.Context, accessToken string) (*services.SpotifyUser, error)
	GenreSeeds(ctx context.Context, accessToken string) ([]string, error)
}

// Deps are the collaborators of an [App].
type Deps struct {
	Sessions    SessionStore
	Credentials recommend.CredentialSource
	Recommender Recommender
	Playlists   PlaylistCreator
	Authorizer  services.Authorizer
	Profile     Profile
	Codec       *server.SessionCodec
	Logger      *log.Logger
	// SecureCookies marks the OAuth state cookie Secure.
	SecureCookies bool
	Now           func() time.Time
}

// App serves the JSON API.
type App struct {
	Deps
}

// NewApp creates an [App] from deps.
func NewApp(deps Deps) *App {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &App{Deps: deps}
}

// Router builds the routed handler with logging, recovery and session middleware.
func (a *App) Router() *server.BasicRouter {
	r := server.NewBasicRouter()
	r.Use(server.RequestLogger(a.Logger), server.Recoverer(a.Logger), a.loadSession)

	r.HandleFunc(http.MethodGet, "/health", a.Health)
	r.HandleFunc(http.MethodGet, "/genres", a.Genres)
	r.HandleFunc(http.MethodGet, "/recommendations", a.requireSession(a.Recommendations))
	r.HandleFunc(http.MethodPost, "/playlist/create", a.requireSession(a.CreatePlaylist))
	r.HandleFunc(http.MethodGet, "/auth/login", a.Login)
	r.HandleFunc(http.MethodGet, "/auth/callback", a.Callback)
	r.HandleFunc(http.MethodGet, "/auth/session", a.requireSession(a.Session))
	r.HandleFunc(http.MethodPost, "/auth/logout", a.Logout)

	return r
}

// Health reports liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ensure runs the session's credential through the lifecycle manager and persists any change.
func (a *App) ensure(ctx context.Context, session *models.Session) auth.Result {
	result := a.Credentials.Ensure(ctx, session.Credential)
	a.persist(ctx, session, result)
	return result
}

// persist writes result's credential back to the store when it changed.
func (a *App) persist(ctx context.Context, session *models.Session, result auth.Result) {
	if !result.Changed {
		return
	}
	if err := a.Sessions.SaveCredential(ctx, session.ID, result.Credential); err != nil {
		a.Logger.Error("failed to persist credential", "session", session.ID, "error", err)
		return
	}
	session.Credential = result.Credential
	a.Logger.Debug("credential persisted", "session", session.ID, "state", result.State)
}
