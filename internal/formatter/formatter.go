// package formatter renders recommendation pages as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists the accepted values of the CLI --format flag.
var Formats = []string{FormatText, FormatJSON, FormatCSV, FormatMarkdown}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ReleaseYear returns the year part of an album release date.
func ReleaseYear(date string) string {
	year, _, _ := strings.Cut(date, "-")
	return year
}

// Title describes criteria for headings, e.g. "Hip Hop · 1990s · Spanish".
func Title(c models.SearchCriteria) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{strings.TrimSpace(c.Genre), string(c.Era), strings.TrimSpace(c.Language)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Recommendations"
	}
	return strings.Join(parts, " · ")
}

// ExportToCSV converts tracks to CSV with columns: ID, Name, Artists, Album, Year, Duration, URI, URL
func ExportToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "Album", "Year", "Duration", "URI", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Name,
			strings.Join(track.ArtistNames(), "; "),
			track.Album.Name,
			ReleaseYear(track.Album.ReleaseDate),
			strconv.Itoa(track.DurationMS / 1000),
			track.URI,
			track.ExternalURLs.Spotify,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a page to Markdown with a heading built from criteria
func ExportToMarkdown(criteria models.SearchCriteria, page models.SearchResultPage) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", Title(criteria))
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(page.Tracks))
	fmt.Fprintf(&buf, "**Next offset**: %d\n\n", page.NextOffset)

	buf.WriteString("## Tracks\n\n")
	for i, track := range page.Tracks {
		name := track.Name
		if url := track.ExternalURLs.Spotify; url != "" {
			name = fmt.Sprintf("[%s](%s)", track.Name, url)
		}
		albumPart := ""
		if track.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n",
			i+1, strings.Join(track.ArtistNames(), ", "), name, albumPart, FormatDuration(track.DurationMS))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a page to plain text
func ExportToText(criteria models.SearchCriteria, page models.SearchResultPage) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", Title(criteria))
	fmt.Fprintf(&buf, "Tracks: %d (next offset %d)\n\n", len(page.Tracks), page.NextOffset)

	for i, track := range page.Tracks {
		fmt.Fprintf(&buf, "%2d. %s - %s [%s]\n",
			i+1, strings.Join(track.ArtistNames(), ", "), track.Name, FormatDuration(track.DurationMS))
	}

	return buf.Bytes(), nil
}

// Render converts a page to the named format.
func Render(format string, criteria models.SearchCriteria, page models.SearchResultPage) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return shared.MarshalJSON(page, true)
	case FormatCSV:
		return ExportToCSV(page.Tracks)
	case FormatMarkdown, "md":
		return ExportToMarkdown(criteria, page)
	case FormatText, "text", "":
		return ExportToText(criteria, page)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// WriteExport renders a page and writes it to path.
func WriteExport(path, format string, criteria models.SearchCriteria, page models.SearchResultPage) error {
	data, err := Render(format, criteria, page)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
