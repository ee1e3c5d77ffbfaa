package models

// PageSize is the number of tracks a [SearchResultPage] carries at most.
const PageSize = 20

// Era is one of the fixed decade buckets a search can be narrowed to.
type Era string

const (
	Era2020s  Era = "2020s"
	Era2010s  Era = "2010s"
	Era2000s  Era = "2000s"
	Era1990s  Era = "1990s"
	Era1980s  Era = "1980s"
	Era1970s  Era = "1970s"
	Era1960s  Era = "1960s"
	EraOldies Era = "Oldies"
)

// Eras lists every bucket, newest first.
var Eras = []Era{Era2020s, Era2010s, Era2000s, Era1990s, Era1980s, Era1970s, Era1960s, EraOldies}

// SearchCriteria is the user-chosen filter tuple for one search.
//
// Offset is handed to the provider as-is; callers step it by [PageSize] for "load more".
type SearchCriteria struct {
	Genre    string `json:"genre,omitempty"`
	Era      Era    `json:"era,omitempty"`
	Language string `json:"language,omitempty"`
	Offset   int    `json:"offset"`
}

// Image is an artwork resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// Artist is the artist reference embedded in a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album is the album reference embedded in a track.
type Album struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Images      []Image `json:"images"`
}

// ExternalURLs holds the provider's public links.
type ExternalURLs struct {
	Spotify string `json:"spotify,omitempty"`
}

// Track is a provider track record. ID is the identity key used for deduplication.
type Track struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Artists      []Artist     `json:"artists"`
	Album        Album        `json:"album"`
	DurationMS   int          `json:"duration_ms"`
	Explicit     bool         `json:"explicit"`
	URI          string       `json:"uri"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// ArtistNames returns the track's artist names in order.
func (t Track) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// SearchResultPage is one page of deduplicated recommendations.
type SearchResultPage struct {
	Tracks     []Track `json:"tracks"`
	NextOffset int     `json:"nextOffset"`
}
