package recommend

import (
	"context"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/desertthunder/cratedig/internal/models"
)

// FallbackGenres is served when the provider's genre seeds are unavailable.
var FallbackGenres = []string{
	"Pop", "Rock", "Hip Hop", "R&B", "Country", "Jazz", "Classical", "Electronic", "Indie", "K-Pop",
	"Metal", "Reggae", "Latin", "Blues", "Lofi", "Chill", "Ambient", "House", "Techno", "Trap",
	"Soul", "Funk", "Disco", "Punk", "Alternative", "Folk", "Gospel", "EDM", "Dance",
}

// Languages is the fixed language list offered as a search term.
var Languages = []string{
	"English", "Spanish", "Korean", "Japanese", "French", "German", "Hindi", "Portuguese", "Italian",
	"Chinese", "Arabic", "Russian", "Bengali", "Tamil", "Telugu", "Punjabi", "Marathi", "Turkish",
}

// GenreSource lists the provider's genre seeds.
type GenreSource interface {
	GenreSeeds(ctx context.Context, accessToken string) ([]string, error)
}

// Catalog is the set of filter values a client can choose from.
type Catalog struct {
	Genres    []string     `json:"genres"`
	Eras      []models.Era `json:"eras"`
	Languages []string     `json:"languages"`
	// Fallback is set when Genres is the built-in list.
	Fallback bool `json:"fallback"`
}

// NewCatalog returns the filter catalog. Provider seeds are used when accessToken is set and the call returns at least
// one seed; any failure falls back to [FallbackGenres].
func NewCatalog(ctx context.Context, src GenreSource, accessToken string) Catalog {
	c := Catalog{
		Genres:    slices.Clone(FallbackGenres),
		Eras:      slices.Clone(models.Eras),
		Languages: slices.Clone(Languages),
		Fallback:  true,
	}
	if src == nil || accessToken == "" {
		return c
	}

	seeds, err := src.GenreSeeds(ctx, accessToken)
	if err != nil || len(seeds) == 0 {
		return c
	}

	c.Genres = DisplayGenres(seeds)
	c.Fallback = false
	return c
}

// DisplayGenres converts seed slugs such as "hip-hop" into sorted, title-cased names such as "Hip Hop".
func DisplayGenres(seeds []string) []string {
	genres := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		if g := titleCase(seed); g != "" {
			genres = append(genres, g)
		}
	}
	slices.Sort(genres)
	return slices.Compact(genres)
}

func titleCase(seed string) string {
	words := strings.Fields(strings.ReplaceAll(seed, "-", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
