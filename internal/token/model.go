package token

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the server-side record of one issued refresh token.
// Only the hash of the signed token is kept.
type RefreshToken struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the record is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
