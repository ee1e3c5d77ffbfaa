package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/cratedig/internal/auth"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/server"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/desertthunder/cratedig/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Login performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server on the redirect URI, opens the browser for user authorization, exchanges the code for
// tokens and stores a new session whose id is written back to the config file.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	spotify, err := r.provider()
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, spotify, cmd.Duration("timeout"), !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	session := &models.Session{Credential: auth.Grant(token, "", r.now())}
	if user, err := spotify.CurrentUser(ctx, token.AccessToken); err != nil {
		r.logger.Warn("profile lookup failed", "error", err)
	} else {
		session.Username = user.ID
	}

	repo, err := r.sessions(ctx)
	if err != nil {
		return err
	}
	if err := repo.Create(ctx, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if previous := r.config.Credentials.Spotify.SessionID; previous != "" {
		if err := repo.Delete(ctx, previous); err != nil && !errors.Is(err, shared.ErrSessionNotFound) {
			r.logger.Warn("failed to delete previous session", "session", previous, "error", err)
		}
	}

	r.config.Credentials.Spotify.SessionID = session.ID
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlainln("%s Signed in as %s", ui.Styles.OK("✓"), session.Username)
	r.writePlain("%s Session saved to %s\n\n", ui.Styles.OK("✓"), r.configPath)
	r.writePlain("You can now use: cratedig recommend --genre \"hip hop\" --era 1990s\n")
	return nil
}

// callbackAddr returns the listen address and path for the local callback server from the configured redirect URI.
func (r *Runner) callbackAddr() (string, string) {
	addr, path := r.config.Server.Addr(), "/auth/callback"

	u, err := url.Parse(r.config.Credentials.Spotify.RedirectURI)
	if err != nil || u.Host == "" {
		return addr, path
	}
	if u.Path != "" {
		path = u.Path
	}
	return u.Host, path
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, spotify Spotify, timeout time.Duration, openBrowser bool) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	addr, path := r.callbackAddr()
	authURL := spotify.AuthURL(state)
	oauthHandler := server.NewOAuthHandler(spotify, state, path)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	if openBrowser {
		r.writePlain("→ Opening browser for Spotify sign-in...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			openBrowser = false
		}
	}
	if !openBrowser {
		r.writePlainln("%s", ui.Styles.Warn("Open this URL in your browser:"))
		r.writePlain("%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// Logout deletes the current session and clears it from the config file.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	id := r.config.Credentials.Spotify.SessionID
	if id == "" {
		return r.writePlain("Not signed in\n")
	}

	repo, err := r.sessions(ctx)
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, id); err != nil && !errors.Is(err, shared.ErrSessionNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	r.config.Credentials.Spotify.SessionID = ""
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return r.writePlain("%s Signed out\n", ui.Styles.OK("✓"))
}

type whoamiOutput struct {
	Session   string    `json:"session"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
	State     string    `json:"state"`
	Refreshed bool      `json:"refreshed"`
	Error     string    `json:"error,omitempty"`
}

// Whoami prints the session's user and credential state, refreshing an expired credential first.
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	spotify, err := r.provider()
	if err != nil {
		return err
	}

	session, repo, err := r.currentSession(ctx)
	if err != nil {
		return err
	}

	result := r.manager(spotify).Ensure(ctx, session.Credential)
	r.persist(ctx, repo, session, result)

	out := whoamiOutput{
		Session:   session.ID,
		Username:  session.Username,
		ExpiresAt: result.Credential.Expiry().UTC(),
		State:     result.State.String(),
		Refreshed: result.Refreshed,
	}
	if result.Err != nil {
		out.Error = result.Err.Error()
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	r.writePlainHeader("Session")
	r.writePlain("User:     %s\n", out.Username)
	r.writePlain("Session:  %s\n", out.Session)
	r.writePlain("Expires:  %s\n", out.ExpiresAt.Local().Format(time.RFC1123))

	state := ui.Styles.OK(out.State)
	if !result.OK() {
		state = ui.Styles.Err(out.State)
	}
	r.writePlain("State:    %s\n", state)
	if out.Refreshed {
		r.writePlain("%s\n", ui.Styles.Help("access token refreshed"))
	}
	if out.Error != "" {
		r.writePlain("Error:    %s\n", out.Error)
	}
	return nil
}
