package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

const playlistColumns = `id, session_id, provider_id, name, description, url, track_count, created_at`

// PlaylistRepository implements [models.Repository] for playlists created on the provider.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a playlist record with a generated ID
func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	playlist.ID = shared.GenerateID()
	if playlist.Created.IsZero() {
		playlist.Created = time.Now().UTC()
	}

	query := `
		INSERT INTO playlists (` + playlistColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		playlist.ID,
		playlist.SessionID,
		playlist.ProviderID,
		playlist.Name,
		playlist.Description,
		playlist.URL,
		playlist.TrackCount,
		playlist.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist record by ID
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), id)
}

// GetByProviderID retrieves a playlist record by the provider's playlist id
func (r *PlaylistRepository) GetByProviderID(ctx context.Context, providerID string) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE provider_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, providerID), providerID)
}

// Delete removes a playlist record. The playlist on the provider is untouched.
func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	return expectOne(result, shared.ErrPlaylistNotFound, id)
}

// ListBySession returns the playlists created under sessionID, newest first.
// An empty sessionID lists every record.
func (r *PlaylistRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists`
	args := []any{}

	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}

	query += " ORDER BY created_at DESC, name ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// scanOne scans a single row into a [models.Playlist]
func (r *PlaylistRepository) scanOne(row *sql.Row, key string) (*models.Playlist, error) {
	playlist, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return playlist, nil
}

func scanPlaylist(row scanner) (*models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(&p.ID, &p.SessionID, &p.ProviderID, &p.Name, &p.Description, &p.URL, &p.TrackCount, &p.Created)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
