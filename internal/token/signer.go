// Package token signs bearer tokens and persists refresh-token records.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TypeRefresh marks a signed claim set as a refresh token.
const TypeRefresh = "refresh"

type Claims struct {
	Email string `json:"email"`
	Type  string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// Outcome is the closed set of results of verifying a signed token.
type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeExpired
	OutcomeMalformed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeExpired:
		return "expired"
	default:
		return "malformed"
	}
}

// Verification carries Claims only when Outcome is OutcomeValid.
type Verification struct {
	Outcome Outcome
	Claims  *Claims
}

type Signer struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

func NewSigner(jwtSecret string) *Signer {
	return &Signer{
		secret: []byte(jwtSecret),
		method: jwt.SigningMethodHS512,
		now:    time.Now,
	}
}

// Sign stamps iat, exp and a fresh jti onto claims and signs them.
func (s *Signer) Sign(claims Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = uuid.NewString()

	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

func (s *Signer) Verify(raw string) Verification {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	token, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Verification{Outcome: OutcomeExpired}
	case err != nil, !token.Valid, claims.Subject == "":
		return Verification{Outcome: OutcomeMalformed}
	}
	return Verification{Outcome: OutcomeValid, Claims: claims}
}
