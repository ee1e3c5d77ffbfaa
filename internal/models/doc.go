// Package models defines the domain entities shared by the token lifecycle manager, the recommendation engine and the
// persistence layer.
//
// The package contains two categories of types:
//
// 1. Provider and request values: read-only data that flows through a single request
//   - [Credential] : Access/refresh token pair with expiry bookkeeping and an in-band refresh error
//   - [SearchCriteria] : Genre, era, language and provider offset driving a search
//   - [Track] : Provider track record keyed by its opaque ID
//   - [SearchResultPage] : At most [PageSize] deduplicated tracks plus the next offset
//
// 2. Persistent entities: rows owned by the session store
//   - [Session] : One signed-in user and the credential snapshot used by subsequent requests
//   - [Playlist] : A playlist created on the provider from a selection of tracks
//
// Persistent entities implement [Model], and repositories implement [Repository] for them.
package models
