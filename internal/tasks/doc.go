// Package tasks orchestrates multi-step provider operations with real-time progress reporting.
//
// # Core Operations
//
// [PlaylistEngine.Create] saves a recommendation selection as a playlist:
//
//  1. Fetches the current user from the provider (the playlist owner)
//  2. Creates a private playlist with the given name and description
//  3. Adds the track URIs in provider-sized batches
//  4. Records the playlist locally for later listing
//
// # Progress Reporting
//
// Operations take an optional send-only channel of [ProgressUpdate]. Updates use select with default so a slow or
// absent reader never blocks the operation.
//
// # Playlist Records
//
// The [PlaylistRecorder] is optional (repositories.PlaylistRepository in the application). A recording failure is
// logged and reported as Recorded=false; the call still succeeds.
package tasks
