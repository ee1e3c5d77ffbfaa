// Spotify API implementation of [Provider] and [Authorizer]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cratedig/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// maxTracksPerAdd is the provider's limit on URIs per add-tracks call.
	maxTracksPerAdd = 100

	defaultTimeout = 10 * time.Second
)

var spotifyScopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-modify-public",
	"playlist-modify-private",
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Images      []models.Image `json:"images"`
}

// SpotifyPlaylist is the playlist object returned on creation.
type SpotifyPlaylist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Public       bool                `json:"public"`
	URI          string              `json:"uri"`
	ExternalURLs models.ExternalURLs `json:"external_urls"`
}

type searchResponse struct {
	Tracks struct {
		Items  []models.Track `json:"items"`
		Total  int            `json:"total"`
		Limit  int            `json:"limit"`
		Offset int            `json:"offset"`
	} `json:"tracks"`
}

// SpotifyOptions tunes the outbound HTTP behaviour of [SpotifyService].
type SpotifyOptions struct {
	BaseURL           string        // Web API root, defaults to https://api.spotify.com/v1
	TokenURL          string        // accounts token endpoint, defaults to Spotify's
	AuthURL           string        // accounts authorize endpoint, defaults to Spotify's
	HTTPClient        *http.Client  // used for API and token calls; built from Timeout when nil
	Timeout           time.Duration // per-request timeout, defaults to 10s
	RequestsPerSecond float64       // client-side request gate; <= 0 disables it
}

// SpotifyService implements [Provider] and [Authorizer] against the Spotify Web API.
//
// It holds no user tokens: callers pass the bearer token for each call.
type SpotifyService struct {
	config     *oauth2.Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 client credentials.
func NewSpotifyService(credentials map[string]string, opts SpotifyOptions) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/auth/callback"
	}

	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyAuthURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       spotifyScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.AuthURL,
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// OAuthConfig exposes the underlying [oauth2.Config] for callback handlers.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// AuthURL returns the authorization URL the user is sent to for sign-in.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for the initial token grant.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return nil, tokenError(err)
	}
	return token, nil
}

// Refresh performs a refresh_token grant.
//
// When the provider omits a rotated refresh token, the returned token carries the one that was sent.
func (s *SpotifyService) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, &ProviderError{Status: http.StatusBadRequest, Message: "no refresh token"}
	}

	src := s.config.TokenSource(s.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, tokenError(err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// tokenError converts an oauth2 failure into a [ProviderError], keeping the status when the provider answered.
func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		msg := re.ErrorDescription
		if msg == "" {
			msg = re.ErrorCode
		}
		if msg == "" {
			msg = strings.TrimSpace(string(re.Body))
		}
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &ProviderError{Status: status, Message: msg, Err: err}
	}
	return &ProviderError{Message: err.Error(), Err: err}
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, accessToken, method, endpoint string, body, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return &ProviderError{Message: err.Error(), Err: err}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &ProviderError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeProviderError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &ProviderError{Status: resp.StatusCode, Message: "failed to decode response", Err: err}
		}
	}

	return nil
}

func decodeProviderError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body spotifyErrorBody
	msg := http.StatusText(resp.StatusCode)
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		msg = body.Error.Message
	} else if len(data) > 0 {
		msg = strings.TrimSpace(string(data))
	}

	return &ProviderError{Status: resp.StatusCode, Message: msg}
}

// SearchTracks runs a track search for query at offset, returning up to limit items.
func (s *SpotifyService) SearchTracks(ctx context.Context, accessToken, query string, limit, offset int) ([]models.Track, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var response searchResponse
	if err := s.doRequest(ctx, accessToken, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	return response.Tracks.Items, nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context, accessToken string) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, accessToken, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreatePlaylist creates an empty playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, accessToken, userID string, req CreatePlaylistRequest) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, accessToken, http.MethodPost, endpoint, req, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracks appends uris to the playlist in batches of 100.
func (s *SpotifyService) AddTracks(ctx context.Context, accessToken, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	for start := 0; start < len(uris); start += maxTracksPerAdd {
		end := min(start+maxTracksPerAdd, len(uris))
		body := map[string][]string{"uris": uris[start:end]}
		if err := s.doRequest(ctx, accessToken, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}

	return nil
}

// GenreSeeds retrieves the available genre seed slugs.
func (s *SpotifyService) GenreSeeds(ctx context.Context, accessToken string) ([]string, error) {
	var response struct {
		Genres []string `json:"genres"`
	}
	if err := s.doRequest(ctx, accessToken, http.MethodGet, "/recommendations/available-genre-seeds", nil, &response); err != nil {
		return nil, err
	}
	return response.Genres, nil
}
