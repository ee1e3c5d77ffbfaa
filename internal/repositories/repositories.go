package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/cratedig/internal/models"
)

var (
	_ models.Repository[*models.Session]  = (*SessionRepository)(nil)
	_ models.Repository[*models.Playlist] = (*PlaylistRepository)(nil)
)

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// expectOne checks that a write touched exactly one row, returning notFound wrapped with id otherwise.
func expectOne(result sql.Result, notFound error, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
