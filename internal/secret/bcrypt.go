// Package secret hashes passwords and refresh tokens with bcrypt.
package secret

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the work factor used for stored credentials.
const DefaultCost = 10

// Bcrypt is a salted one-way hasher. Inputs are reduced with SHA-256 before
// bcrypt so secrets longer than 72 bytes (signed JWTs) keep all their entropy.
type Bcrypt struct {
	cost int
}

func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(digest(secret), b.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether secret matches hash. A mismatch is not an error;
// a malformed hash is.
func (b *Bcrypt) Compare(hash, secret string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), digest(secret))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

func digest(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
