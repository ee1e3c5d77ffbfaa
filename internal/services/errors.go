package services

import (
	"fmt"
	"net/http"

	"github.com/desertthunder/cratedig/internal/shared"
)

// ProviderError is an upstream failure: a transport error (Status 0) or a non-2xx response from the provider.
//
// It matches [shared.ErrAPIRequest] with errors.Is.
type ProviderError struct {
	Status  int
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("spotify request failed: %s", e.Message)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == shared.ErrAPIRequest }

// Unauthorized reports whether the provider rejected the bearer token.
func (e *ProviderError) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

// spotifyErrorBody is the regular error object returned by the Web API.
type spotifyErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}
