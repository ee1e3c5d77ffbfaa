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

const sessionColumns = `id, username, access_token, refresh_token, expires_at, last_error, created_at, updated_at`

// SessionRepository implements [models.Repository] for [models.Session] persistence.
//
// It is the only place a credential lives between requests.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session, generating an ID when none is set
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = shared.GenerateID()
	}

	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	if session.Created.IsZero() {
		session.Created = now
	}
	session.Updated = now

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	cred := session.Credential
	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.Username,
		cred.AccessToken,
		cred.RefreshToken,
		cred.ExpiresAt,
		string(cred.LastError),
		session.Created,
		session.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return session, nil
}

// SaveCredential overwrites the credential snapshot of a session.
func (r *SessionRepository) SaveCredential(ctx context.Context, id string, cred models.Credential) error {
	query := `
		UPDATE sessions
		SET access_token = ?, refresh_token = ?, expires_at = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		cred.AccessToken,
		cred.RefreshToken,
		cred.ExpiresAt,
		string(cred.LastError),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return expectOne(result, shared.ErrSessionNotFound, id)
}

// Delete removes a session by ID. Playlists recorded for it are kept.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return expectOne(result, shared.ErrSessionNotFound, id)
}

// ListByUsername returns the sessions of a provider user, newest first
func (r *SessionRepository) ListByUsername(ctx context.Context, username string) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE username = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		session   models.Session
		lastError string
	)

	err := row.Scan(
		&session.ID,
		&session.Username,
		&session.Credential.AccessToken,
		&session.Credential.RefreshToken,
		&session.Credential.ExpiresAt,
		&lastError,
		&session.Created,
		&session.Updated,
	)
	if err != nil {
		return nil, err
	}

	session.Credential.LastError = models.CredentialError(lastError)
	return &session, nil
}
