package models

import "time"

// CredentialError is the in-band failure code carried by a [Credential].
type CredentialError string

// RefreshFailed marks a credential whose last refresh round-trip failed.
// The token fields are those of the last successful grant.
const RefreshFailed CredentialError = "REFRESH_FAILED"

// Credential is the provider access/refresh token pair.
//
// ExpiresAt is epoch milliseconds and always comes from the most recent successful grant.
type Credential struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    int64           `json:"expires_at"`
	LastError    CredentialError `json:"last_error,omitempty"`
}

// Expired reports whether the access token is no longer valid at now.
func (c Credential) Expired(now time.Time) bool {
	return now.UnixMilli() >= c.ExpiresAt
}

// HasAccessToken reports whether the credential can be presented as a bearer token at all.
func (c Credential) HasAccessToken() bool {
	return c.AccessToken != ""
}

// Failed reports whether the last refresh attempt failed.
func (c Credential) Failed() bool {
	return c.LastError == RefreshFailed
}

// Expiry returns ExpiresAt as a [time.Time].
func (c Credential) Expiry() time.Time {
	return time.UnixMilli(c.ExpiresAt)
}
