package domain

import "time"

// SessionCredential is the persisted authentication state for one source.
// It is mutated only by the session manager and shared process-wide for
// that source.
type SessionCredential struct {
	// AccessToken is the bearer (or raw) token presented to the source.
	AccessToken string `json:"access_token"`

	// RefreshToken, when present, allows a refresh exchange instead of a
	// full login after the access token expires.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Expiry is when the access token expires, if the source reports it.
	Expiry time.Time `json:"expiry,omitempty"`

	// ObtainedAt is when the credential was issued or refreshed.
	ObtainedAt time.Time `json:"obtained_at,omitempty"`
}

// HasToken reports whether the credential holds a usable access token.
func (c *SessionCredential) HasToken() bool {
	return c != nil && c.AccessToken != ""
}

// HasRefreshToken reports whether a refresh exchange is possible.
func (c *SessionCredential) HasRefreshToken() bool {
	return c != nil && c.RefreshToken != ""
}
