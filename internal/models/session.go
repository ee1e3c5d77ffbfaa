package models

import (
	"fmt"
	"time"
)

// Session is one signed-in user together with the credential snapshot that subsequent requests read.
type Session struct {
	ID         string
	Username   string
	Credential Credential
	Created    time.Time
	Updated    time.Time
}

func (s *Session) Key() string          { return s.ID }
func (s *Session) CreatedAt() time.Time { return s.Created }

// Validate checks the session has an id and a usable access token.
func (s *Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}
	if !s.Credential.HasAccessToken() {
		return fmt.Errorf("session %s has no access token", s.ID)
	}
	return nil
}

// Playlist records a playlist created on the provider.
type Playlist struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	ProviderID  string    `json:"playlist_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	TrackCount  int       `json:"track_count"`
	Created     time.Time `json:"created_at"`
}

func (p *Playlist) Key() string          { return p.ID }
func (p *Playlist) CreatedAt() time.Time { return p.Created }

// Validate checks the required playlist fields.
func (p *Playlist) Validate() error {
	switch {
	case p.ProviderID == "":
		return fmt.Errorf("playlist provider id is required")
	case p.Name == "":
		return fmt.Errorf("playlist name is required")
	case p.SessionID == "":
		return fmt.Errorf("playlist session id is required")
	}
	return nil
}
