package model

import "time"

// ShareToken binds a bearer secret to exactly one file until ExpiresAt.
// Only the SHA-256 of the secret is kept; the secret itself is returned once, at creation.
type ShareToken struct {
	ID        string
	FileID    string
	TokenHash []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer redeemable at now.
// A token is valid strictly before ExpiresAt.
func (t *ShareToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
