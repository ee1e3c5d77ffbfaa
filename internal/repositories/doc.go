// Package repositories implements SQLite persistence for sessions and created playlists.
//
// Key Implementations:
//   - [SessionRepository] : signed-in users and the provider credential snapshot each request reads
//   - [PlaylistRepository] : record of playlists created on the provider, listed per session
//
// Both implement [models.Repository]. Lookups of missing rows wrap [shared.ErrSessionNotFound] or
// [shared.ErrPlaylistNotFound] so callers can match them with errors.Is.
package repositories
