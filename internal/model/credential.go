package model

import "time"

const TokenTypeBearer = "Bearer"

// Credential is the OAuth token pair for one installation. The token store
// holds the durable copy; CredentialManager mirrors it in memory.
type Credential struct {
	InstallationID string `json:"installation_id"`
	AccessToken    string `json:"-"`
	RefreshToken   string `json:"-"`
	ExpiresAt      int64  `json:"expires_at"` // unix seconds
	TokenType      string `json:"token_type"`
	Scope          string `json:"scope,omitempty"`
	SavedAt        int64  `json:"saved_at"`
}

// ExpiresIn is the remaining lifetime relative to now. Negative once expired.
func (c *Credential) ExpiresIn(now time.Time) time.Duration {
	return time.Unix(c.ExpiresAt, 0).Sub(now)
}

func (c *Credential) HasAccessToken() bool {
	return c != nil && c.AccessToken != ""
}

func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
