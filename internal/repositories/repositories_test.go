package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
	th "github.com/desertthunder/cratedig/internal/testing"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return th.NewTestDB(t)
}

func newSession(username string) *models.Session {
	return &models.Session{
		Username: username,
		Credential: models.Credential{
			AccessToken:  "access-" + username,
			RefreshToken: "refresh-" + username,
			ExpiresAt:    time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC).UnixMilli(),
		},
	}
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := newSession("alice")

		if err := repo.Create(ctx, session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		if session.ID == "" {
			t.Error("session ID should be set after creation")
		}
		if session.Created.IsZero() || session.Updated.IsZero() {
			t.Error("timestamps should be set after creation")
		}
	})

	t.Run("Create keeps caller ID", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := newSession("alice")
		session.ID = "fixed-id"

		if err := repo.Create(ctx, session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if session.ID != "fixed-id" {
			t.Errorf("expected fixed-id, got %s", session.ID)
		}
	})

	t.Run("Create rejects missing access token", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := newSession("alice")
		session.Credential.AccessToken = ""

		if err := repo.Create(ctx, session); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := newSession("alice")
		if err := repo.Create(ctx, session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		retrieved, err := repo.Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}

		if retrieved.Username != "alice" {
			t.Errorf("expected username alice, got %s", retrieved.Username)
		}
		if retrieved.Credential != session.Credential {
			t.Errorf("expected credential %+v, got %+v", session.Credential, retrieved.Credential)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		_, err := repo.Get(ctx, "nope")
		if !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("SaveCredential", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := newSession("alice")
		if err := repo.Create(ctx, session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		failed := session.Credential
		failed.LastError = models.RefreshFailed
		if err := repo.SaveCredential(ctx, session.ID, failed); err != nil {
			t.Fatalf("failed to save credential: %v", err)
		}

		retrieved, err := repo.Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if !retrieved.Credential.Failed() {
			t.Error("expected REFRESH_FAILED to persist")
		}

		refreshed := models.Credential{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: failed.ExpiresAt + 3600_000}
		if err := repo.SaveCredential(ctx, session.ID, refreshed); err != nil {
			t.Fatalf("failed to save credential: %v", err)
		}

		retrieved, _ = repo.Get(ctx, session.ID)
		if retrieved.Credential != refreshed {
			t.Errorf("expected %+v, got %+v", refreshed, retrieved.Credential)
		}
	})

	t.Run("SaveCredential missing", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		err := repo.SaveCredential(ctx, "nope", models.Credential{AccessToken: "a"})
		if !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := newSession("alice")
		if err := repo.Create(ctx, session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		if err := repo.Delete(ctx, session.ID); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}

		if _, err := repo.Get(ctx, session.ID); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected deleted session to be gone, got %v", err)
		}

		if err := repo.Delete(ctx, session.ID); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected second delete to fail, got %v", err)
		}
	})

	t.Run("ListByUsername", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		for _, name := range []string{"alice", "bob", "alice"} {
			if err := repo.Create(ctx, newSession(name)); err != nil {
				t.Fatalf("failed to create session: %v", err)
			}
		}

		sessions, err := repo.ListByUsername(ctx, "alice")
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) != 2 {
			t.Errorf("expected 2 sessions, got %d", len(sessions))
		}
	})
}

func TestPlaylistRepository(t *testing.T) {
	ctx := context.Background()

	newPlaylist := func(session, providerID, name string) *models.Playlist {
		return &models.Playlist{
			SessionID:  session,
			ProviderID: providerID,
			Name:       name,
			URL:        "https://open.spotify.com/playlist/" + providerID,
			TrackCount: 20,
		}
	}

	t.Run("Create and Get", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		playlist := newPlaylist("s1", "pl1", "Late Night Jazz")

		if err := repo.Create(ctx, playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		if playlist.ID == "" {
			t.Fatal("playlist ID should be set after creation")
		}

		retrieved, err := repo.Get(ctx, playlist.ID)
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if retrieved.Name != "Late Night Jazz" || retrieved.TrackCount != 20 || retrieved.URL != playlist.URL {
			t.Errorf("unexpected playlist %+v", retrieved)
		}

		byProvider, err := repo.GetByProviderID(ctx, "pl1")
		if err != nil {
			t.Fatalf("failed to get playlist by provider id: %v", err)
		}
		if byProvider.ID != playlist.ID {
			t.Errorf("expected %s, got %s", playlist.ID, byProvider.ID)
		}
	})

	t.Run("Create validates", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))

		if err := repo.Create(ctx, newPlaylist("s1", "", "name")); err == nil {
			t.Error("expected error for missing provider id")
		}
	})

	t.Run("Create rejects duplicate provider id", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))

		if err := repo.Create(ctx, newPlaylist("s1", "pl1", "one")); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		if err := repo.Create(ctx, newPlaylist("s1", "pl1", "two")); err == nil {
			t.Error("expected unique constraint error")
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))

		if _, err := repo.Get(ctx, "nope"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("ListBySession", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		for i, p := range []*models.Playlist{
			newPlaylist("s1", "pl1", "first"),
			newPlaylist("s2", "pl2", "other"),
			newPlaylist("s1", "pl3", "second"),
		} {
			p.Created = base.Add(time.Duration(i) * time.Minute)
			if err := repo.Create(ctx, p); err != nil {
				t.Fatalf("failed to create playlist: %v", err)
			}
		}

		playlists, err := repo.ListBySession(ctx, "s1")
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(playlists))
		}
		if playlists[0].Name != "second" {
			t.Errorf("expected newest first, got %s", playlists[0].Name)
		}

		all, err := repo.ListBySession(ctx, "")
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 playlists, got %d", len(all))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		playlist := newPlaylist("s1", "pl1", "name")
		if err := repo.Create(ctx, playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		if err := repo.Delete(ctx, playlist.ID); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}
		if err := repo.Delete(ctx, playlist.ID); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}
