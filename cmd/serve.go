package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cratedig/internal/server"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/desertthunder/cratedig/internal/web"
	"github.com/urfave/cli/v3"
)

// app builds the web API from the loaded config.
func (r *Runner) app(ctx context.Context) (*web.App, error) {
	spotify, err := r.provider()
	if err != nil {
		return nil, err
	}

	sessions, err := r.sessions(ctx)
	if err != nil {
		return nil, err
	}
	playlists, err := r.playlists(ctx)
	if err != nil {
		return nil, err
	}

	if r.config.Session.Secret == "change-me" {
		r.logger.Warn("session.secret is the example value; cookies can be forged")
	}
	codec, err := server.NewSessionCodec(r.config.Session)
	if err != nil {
		return nil, err
	}

	return web.NewApp(web.Deps{
		Sessions:      sessions,
		Credentials:   r.manager(spotify),
		Recommender:   r.engine(spotify),
		Playlists:     r.playlistEngine(spotify, playlists),
		Authorizer:    spotify,
		Profile:       spotify,
		Codec:         codec,
		Logger:        shared.WithLogger(r.logger, "component", "web"),
		SecureCookies: r.config.Session.Secure,
		Now:           r.now,
	}), nil
}

// Serve runs the JSON API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	app, err := r.app(ctx)
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	router := app.Router()
	for _, route := range router.Routes() {
		r.logger.Debug("route", "route", route)
	}

	if err := server.Serve(ctx, addr, router, r.logger); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
