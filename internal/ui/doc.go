// Package ui holds the terminal presentation shared by CLI commands.
//
// [Palette] wraps a handful of [lipgloss] styles (title, success, error, warning, help) and the item types turn
// tracks and recorded playlists into a title line plus a dimmed description line.
package ui
