package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
)

// PlaylistService is the subset of [services.Provider] playlist creation needs.
type PlaylistService interface {
	CurrentUser(ctx context.Context, accessToken string) (*services.SpotifyUser, error)
	CreatePlaylist(ctx context.Context, accessToken, userID string, req services.CreatePlaylistRequest) (*services.SpotifyPlaylist, error)
	AddTracks(ctx context.Context, accessToken, playlistID string, uris []string) error
}

// PlaylistRecorder persists created playlists.
type PlaylistRecorder interface {
	Create(ctx context.Context, playlist *models.Playlist) error
}

// CreatePlaylistInput is a playlist to create from a track selection.
type CreatePlaylistInput struct {
	SessionID   string
	Name        string
	Description string
	TrackURIs   []string
}

// Validate trims the input and checks a name and at least one track URI are present.
func (in *CreatePlaylistInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	uris := make([]string, 0, len(in.TrackURIs))
	for _, uri := range in.TrackURIs {
		if uri = strings.TrimSpace(uri); uri != "" {
			uris = append(uris, uri)
		}
	}
	in.TrackURIs = uris

	if in.Name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}
	if len(in.TrackURIs) == 0 {
		return fmt.Errorf("%w: track URIs", shared.ErrMissingArgument)
	}
	return nil
}

// CreatePlaylistResult contains the created playlist and its owner.
type CreatePlaylistResult struct {
	Playlist *models.Playlist
	UserID   string
	Recorded bool
}

// PlaylistEngine runs playlist operations against the provider.
type PlaylistEngine struct {
	provider PlaylistService
	records  PlaylistRecorder
	logger   *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine. records may be nil.
func NewPlaylistEngine(provider PlaylistService, records PlaylistRecorder, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PlaylistEngine{provider: provider, records: records, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Create makes a private playlist owned by the token's user and fills it with the input's tracks.
//
// Provider failures are returned as-is (see [services.ProviderError]). A playlist that was created but could not be
// filled is reported as an error; it is left on the provider.
func (e *PlaylistEngine) Create(ctx context.Context, progress chan<- ProgressUpdate, accessToken string, in CreatePlaylistInput) (*CreatePlaylistResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	e.sendProgress(progress, fetchUserUpdate())
	user, err := e.provider.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}

	e.sendProgress(progress, createPlaylistUpdate(in.Name))
	created, err := e.provider.CreatePlaylist(ctx, accessToken, user.ID, services.CreatePlaylistRequest{
		Name:        in.Name,
		Description: in.Description,
		Public:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	if err := e.provider.AddTracks(ctx, accessToken, created.ID, in.TrackURIs); err != nil {
		return nil, fmt.Errorf("failed to add tracks to playlist %s: %w", created.ID, err)
	}

	playlist := &models.Playlist{
		SessionID:   in.SessionID,
		ProviderID:  created.ID,
		Name:        created.Name,
		Description: in.Description,
		URL:         created.ExternalURLs.Spotify,
		TrackCount:  len(in.TrackURIs),
	}
	if playlist.Name == "" {
		playlist.Name = in.Name
	}
	e.sendProgress(progress, addTracksUpdate(len(in.TrackURIs), playlist))

	result := &CreatePlaylistResult{Playlist: playlist, UserID: user.ID}
	if e.records != nil && in.SessionID != "" {
		if err := e.records.Create(ctx, playlist); err != nil {
			e.logger.Warn("failed to record playlist", "playlist_id", created.ID, "error", err)
			e.sendProgress(progress, recordFailedUpdate(err))
		} else {
			result.Recorded = true
		}
	}

	e.logger.Info("playlist created", "playlist_id", created.ID, "user", user.ID, "tracks", len(in.TrackURIs))
	return result, nil
}
