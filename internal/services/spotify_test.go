package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/cratedig/internal/shared"
	th "github.com/desertthunder/cratedig/internal/testing"
)

var testCredentials = map[string]string{
	"client_id":     "test_client_id",
	"client_secret": "test_client_secret",
	"redirect_uri":  "http://127.0.0.1:3000/auth/callback",
}

func newTestService(t *testing.T, handler http.Handler) *SpotifyService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewSpotifyService(testCredentials, SpotifyOptions{
		BaseURL:  srv.URL + "/v1",
		TokenURL: srv.URL + "/api/token",
		AuthURL:  srv.URL + "/authorize",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials, SpotifyOptions{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.baseURL != spotifyBaseURL {
				t.Errorf("expected default base URL, got %s", srv.baseURL)
			}
			if srv.httpClient.Timeout != defaultTimeout {
				t.Errorf("expected default timeout %v, got %v", defaultTimeout, srv.httpClient.Timeout)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "s"}, SpotifyOptions{})
			if err == nil {
				t.Error("expected error for missing client_id")
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "c"}, SpotifyOptions{})
			if err == nil {
				t.Error("expected error for missing client_secret")
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{"client_id": "c", "client_secret": "s"}, SpotifyOptions{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.config.RedirectURL != "http://127.0.0.1:3000/auth/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("AuthURL", func(t *testing.T) {
		srv, _ := NewSpotifyService(testCredentials, SpotifyOptions{})
		authURL := srv.AuthURL("test_state")

		for _, want := range []string{"accounts.spotify.com", "test_client_id", "test_state", "playlist-modify-private"} {
			if !strings.Contains(authURL, want) {
				t.Errorf("auth URL should contain %q: %s", want, authURL)
			}
		}
	})

	t.Run("SearchTracks", func(t *testing.T) {
		var gotQuery, gotAuth string
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/search" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			gotQuery = r.URL.RawQuery
			gotAuth = r.Header.Get("Authorization")
			fmt.Fprint(w, `{"tracks":{"items":[{"id":"a","name":"One","uri":"spotify:track:a"},null,{"id":"b","name":"Two"}],"limit":50,"offset":40}}`)
		}))

		tracks, err := svc.SearchTracks(context.Background(), "tok", "hip-hop year:1990-1999", 50, 40)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotAuth != "Bearer tok" {
			t.Errorf("expected bearer header, got %q", gotAuth)
		}
		for _, want := range []string{"type=track", "limit=50", "offset=40", "q=hip-hop+year%3A1990-1999"} {
			if !strings.Contains(gotQuery, want) {
				t.Errorf("query %q should contain %q", gotQuery, want)
			}
		}
		if len(tracks) != 3 {
			t.Fatalf("expected 3 raw items, got %d", len(tracks))
		}
		if tracks[1].ID != "" {
			t.Errorf("null item should decode to an empty track, got %+v", tracks[1])
		}
	})

	t.Run("Provider Error", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"status": 401, "message": "The access token expired"},
			})
		}))

		_, err := svc.SearchTracks(context.Background(), "stale", "rock", 50, 0)

		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ProviderError, got %T: %v", err, err)
		}
		if pe.Status != http.StatusUnauthorized || !pe.Unauthorized() {
			t.Errorf("expected 401, got %d", pe.Status)
		}
		if pe.Message != "The access token expired" {
			t.Errorf("unexpected message %q", pe.Message)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("provider errors should match shared.ErrAPIRequest")
		}
	})

	t.Run("Non JSON Error Body", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		}))

		_, err := svc.CurrentUser(context.Background(), "tok")

		var pe *ProviderError
		if !errors.As(err, &pe) || pe.Status != http.StatusBadGateway || pe.Message != "upstream exploded" {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("Transport Error", func(t *testing.T) {
		reset := errors.New("connection reset by peer")
		client := &http.Client{Transport: th.NewMockRoundTripper(nil, reset)}

		svc, _ := NewSpotifyService(testCredentials, SpotifyOptions{HTTPClient: client})
		_, err := svc.GenreSeeds(context.Background(), "tok")

		var pe *ProviderError
		if !errors.As(err, &pe) || pe.Status != 0 {
			t.Errorf("expected transport ProviderError, got %v", err)
		}
		if !errors.Is(err, reset) {
			t.Errorf("expected underlying transport error, got %v", err)
		}
	})

	t.Run("CreatePlaylist And AddTracks", func(t *testing.T) {
		var batches [][]string
		var created CreatePlaylistRequest

		mux := http.NewServeMux()
		mux.HandleFunc("POST /v1/users/user-1/playlists", func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&created)
			writeJSON(w, http.StatusCreated, map[string]any{
				"id":            "pl-1",
				"name":          created.Name,
				"external_urls": map[string]string{"spotify": "https://open.spotify.com/playlist/pl-1"},
			})
		})
		mux.HandleFunc("POST /v1/playlists/pl-1/tracks", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				URIs []string `json:"uris"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			batches = append(batches, body.URIs)
			writeJSON(w, http.StatusCreated, map[string]string{"snapshot_id": "x"})
		})
		svc := newTestService(t, mux)

		playlist, err := svc.CreatePlaylist(context.Background(), "tok", "user-1", CreatePlaylistRequest{Name: "Mix", Description: "d"})
		if err != nil {
			t.Fatalf("CreatePlaylist() error = %v", err)
		}
		if playlist.ID != "pl-1" || playlist.ExternalURLs.Spotify == "" {
			t.Errorf("unexpected playlist %+v", playlist)
		}
		if created.Public {
			t.Error("playlist should be created private")
		}

		uris := make([]string, 230)
		for i := range uris {
			uris[i] = fmt.Sprintf("spotify:track:%d", i)
		}
		if err := svc.AddTracks(context.Background(), "tok", "pl-1", uris); err != nil {
			t.Fatalf("AddTracks() error = %v", err)
		}

		if len(batches) != 3 || len(batches[0]) != 100 || len(batches[2]) != 30 {
			t.Errorf("expected batches of 100/100/30, got %d batches", len(batches))
		}
	})

	t.Run("GenreSeeds", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"genres": []string{"hip-hop", "k-pop"}})
		}))

		genres, err := svc.GenreSeeds(context.Background(), "tok")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(genres) != 2 || genres[0] != "hip-hop" {
			t.Errorf("unexpected genres %v", genres)
		}
	})
}

func TestSpotifyTokenGrants(t *testing.T) {
	t.Run("Refresh Rotates Token", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "r1" {
				t.Errorf("unexpected form %v", r.Form)
			}
			if user, _, ok := r.BasicAuth(); !ok || user != "test_client_id" {
				t.Error("expected client credentials in basic auth header")
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "a2", "token_type": "Bearer", "expires_in": 3600, "refresh_token": "r2",
			})
		}))

		tok, err := svc.Refresh(context.Background(), "r1")
		if err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
		if tok.AccessToken != "a2" || tok.RefreshToken != "r2" {
			t.Errorf("unexpected token %+v", tok)
		}
		if time.Until(tok.Expiry) < 59*time.Minute {
			t.Errorf("expected expiry about an hour out, got %v", tok.Expiry)
		}
	})

	t.Run("Refresh Keeps Refresh Token When Omitted", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "a2", "token_type": "Bearer", "expires_in": 3600,
			})
		}))

		tok, err := svc.Refresh(context.Background(), "r1")
		if err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
		if tok.RefreshToken != "r1" {
			t.Errorf("expected original refresh token, got %q", tok.RefreshToken)
		}
	})

	t.Run("Refresh Rejected", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "invalid_grant", "error_description": "Refresh token revoked",
			})
		}))

		_, err := svc.Refresh(context.Background(), "revoked")

		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ProviderError, got %v", err)
		}
		if pe.Status != http.StatusBadRequest || pe.Message != "Refresh token revoked" {
			t.Errorf("unexpected error %+v", pe)
		}
	})

	t.Run("Refresh Without Token", func(t *testing.T) {
		svc, _ := NewSpotifyService(testCredentials, SpotifyOptions{})
		if _, err := svc.Refresh(context.Background(), ""); err == nil {
			t.Error("expected error for empty refresh token")
		}
	})

	t.Run("Exchange", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), "code=the-code") {
				t.Errorf("expected code in body, got %s", body)
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "a1", "token_type": "Bearer", "expires_in": 3600, "refresh_token": "r1",
			})
		}))

		tok, err := svc.Exchange(context.Background(), "the-code")
		if err != nil {
			t.Fatalf("Exchange() error = %v", err)
		}
		if tok.AccessToken != "a1" || tok.RefreshToken != "r1" {
			t.Errorf("unexpected token %+v", tok)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"genres": []string{}})
	}))
	defer srv.Close()

	svc, _ := NewSpotifyService(testCredentials, SpotifyOptions{BaseURL: srv.URL, RequestsPerSecond: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := svc.GenreSeeds(ctx, "tok"); err != nil {
		t.Fatalf("first call should pass the gate: %v", err)
	}
	if _, err := svc.GenreSeeds(ctx, "tok"); err == nil {
		t.Error("second call within the window should fail on the context deadline")
	}
	if hits.Load() != 1 {
		t.Errorf("expected exactly one request to reach the provider, got %d", hits.Load())
	}
}
