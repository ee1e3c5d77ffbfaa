package tasks

import (
	"fmt"

	"github.com/desertthunder/cratedig/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchUser Phase = iota
	CreatePlaylist
	AddTracks
	RecordPlaylist
)

func (p Phase) String() string {
	switch p {
	case FetchUser:
		return "fetch_user"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case RecordPlaylist:
		return "record_playlist"
	default:
		return ""
	}
}

func fetchUserUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchUser,
		Step:    1,
		Total:   1,
		Message: "Fetching Spotify profile...",
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func addTracksUpdate(count int, pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Added %d tracks to %s", count, pl.Name),
		Data:    pl,
	}
}

func recordFailedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created but not recorded locally: %v", err),
	}
}
