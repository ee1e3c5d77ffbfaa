// package services defines the music provider client
//
// Spotify Web API and accounts service
package services

import (
	"context"

	"github.com/desertthunder/cratedig/internal/models"
	"golang.org/x/oauth2"
)

// Provider is the subset of the music provider's Web API the application consumes.
//
// Every call takes the bearer token explicitly; implementations hold no per-user state.
type Provider interface {
	// SearchTracks runs a track search and returns the raw items, including entries the provider returned empty.
	SearchTracks(ctx context.Context, accessToken, query string, limit, offset int) ([]models.Track, error)

	// CurrentUser returns the profile that owns accessToken.
	CurrentUser(ctx context.Context, accessToken string) (*SpotifyUser, error)

	// CreatePlaylist creates an empty playlist owned by userID.
	CreatePlaylist(ctx context.Context, accessToken, userID string, req CreatePlaylistRequest) (*SpotifyPlaylist, error)

	// AddTracks appends track URIs to a playlist.
	AddTracks(ctx context.Context, accessToken, playlistID string, uris []string) error

	// GenreSeeds returns the provider's genre seed slugs (e.g. "hip-hop").
	GenreSeeds(ctx context.Context, accessToken string) ([]string, error)
}

// Authorizer covers the OAuth2 grants: authorization code sign-in and refresh.
type Authorizer interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// CreatePlaylistRequest is the body of the create-playlist call.
type CreatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Public      bool   `json:"public"`
}
