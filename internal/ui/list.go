package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/cratedig/internal/formatter"
	"github.com/desertthunder/cratedig/internal/models"
)

// Item is a two-line entry in a printed list.
type Item interface {
	Title() string
	Description() string
}

var (
	_ Item = PlaylistItem{}
	_ Item = TrackItem{}
)

// PlaylistItem wraps a recorded [models.Playlist].
type PlaylistItem struct {
	Playlist *models.Playlist
}

func (i PlaylistItem) Title() string { return i.Playlist.Name }
func (i PlaylistItem) Description() string {
	desc := fmt.Sprintf("%d tracks • %s", i.Playlist.TrackCount, i.Playlist.Created.Format("2006-01-02"))
	if i.Playlist.URL != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.Playlist.URL)
	}
	return desc
}

// TrackItem wraps a [models.Track].
type TrackItem struct {
	Track models.Track
}

func (i TrackItem) Title() string {
	return fmt.Sprintf("%s - %s", i.Track.Name, strings.Join(i.Track.ArtistNames(), ", "))
}

func (i TrackItem) Description() string {
	desc := formatter.FormatDuration(i.Track.DurationMS)
	if i.Track.Album.Name != "" {
		desc = fmt.Sprintf("%s • %s", i.Track.Album.Name, desc)
	}
	if year := formatter.ReleaseYear(i.Track.Album.ReleaseDate); year != "" {
		desc = fmt.Sprintf("%s • %s", desc, year)
	}
	return desc
}

// RenderList numbers items, styling titles with p and descriptions as help text.
func RenderList(p *Palette, items []Item) string {
	var b strings.Builder
	for n, item := range items {
		fmt.Fprintf(&b, "%2d. %s\n", n+1, p.Title(item.Title()))
		if desc := item.Description(); desc != "" {
			fmt.Fprintf(&b, "    %s\n", p.Help(desc))
		}
	}
	return b.String()
}
