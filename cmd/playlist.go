package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/desertthunder/cratedig/internal/tasks"
	"github.com/desertthunder/cratedig/internal/ui"
	"github.com/urfave/cli/v3"
)

// PlaylistCreate saves tracks as a private playlist. Without --uri the tracks come from the recommendation page for
// the filter flags.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	spotify, err := r.provider()
	if err != nil {
		return err
	}

	session, _, err := r.ensureSession(ctx, spotify)
	if err != nil {
		return err
	}

	uris := cmd.StringSlice("uri")
	if len(uris) == 0 {
		c, err := criteria(cmd)
		if err != nil {
			return err
		}
		outcome, err := r.search(ctx, spotify, c)
		if err != nil {
			return fmt.Errorf("recommendation failed: %w", err)
		}
		for _, track := range outcome.Page.Tracks {
			if track.URI != "" {
				uris = append(uris, track.URI)
			}
		}
		r.logger.Info("using recommendation page", "query", outcome.Query, "tracks", len(uris))
	}

	records, err := r.playlists(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("→ %s\n", update.Message)
		}
	}()

	result, err := r.playlistEngine(spotify, records).Create(ctx, progress, session.Credential.AccessToken, tasks.CreatePlaylistInput{
		SessionID:   session.ID,
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		TrackURIs:   uris,
	})
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("playlist creation failed: %w", err)
	}

	r.writePlainln("%s Created %q with %d tracks", ui.Styles.OK("✓"), result.Playlist.Name, result.Playlist.TrackCount)
	if result.Playlist.URL != "" {
		r.writePlain("%s\n", result.Playlist.URL)
	}
	if !result.Recorded {
		r.writePlain("%s\n", ui.Styles.Warn("playlist was not recorded locally"))
	}
	return nil
}

// PlaylistList prints the playlists recorded for the current session, or for all sessions with --all.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	sessionID := r.config.Credentials.Spotify.SessionID
	if cmd.Bool("all") {
		sessionID = ""
	} else if sessionID == "" {
		return fmt.Errorf("%w: run 'cratedig login' first or pass --all", shared.ErrNotAuthenticated)
	}

	repo, err := r.playlists(ctx)
	if err != nil {
		return err
	}

	playlists, err := repo.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	r.writePlainHeader(fmt.Sprintf("Found %d playlists", len(playlists)))
	items := make([]ui.Item, 0, len(playlists))
	for _, p := range playlists {
		items = append(items, ui.PlaylistItem{Playlist: p})
	}
	return r.writePlain("%s", ui.RenderList(ui.Styles, items))
}
