// Package auth registers accounts, authenticates passwords and manages the
// access/refresh token lifecycle.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AntonTsoy/auth-service/internal/account"
	"github.com/AntonTsoy/auth-service/internal/logging"
	"github.com/AntonTsoy/auth-service/internal/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

type AccountDirectory interface {
	Create(ctx context.Context, email, passwordHash string) (*account.Account, error)
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// RefreshTokenStore persists hashed refresh-token records. Delete of an
// absent id must succeed.
type RefreshTokenStore interface {
	Insert(ctx context.Context, rt *token.RefreshToken) error
	ListActive(ctx context.Context, accountID uuid.UUID) ([]token.RefreshToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SecretHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) (bool, error)
}

type TokenSigner interface {
	Sign(claims token.Claims, ttl time.Duration) (string, error)
	Verify(raw string) token.Verification
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service holds no per-request state and is safe for concurrent use.
type Service struct {
	accounts AccountDirectory
	tokens   RefreshTokenStore
	hasher   SecretHasher
	signer   TokenSigner
	logger   logging.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewService(accounts AccountDirectory, tokens RefreshTokenStore, hasher SecretHasher, signer TokenSigner, logger logging.Logger) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		hasher:   hasher,
		signer:   signer,
		logger:   logger.With("component", "auth"),
		now:      time.Now,
	}
}

func (s *Service) Register(ctx context.Context, email, password string) error {
	_, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrDuplicateIdentity
	case !errors.Is(err, account.ErrNotFound):
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	acc, err := s.accounts.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			return ErrDuplicateIdentity
		}
		return err
	}

	s.logger.Info(ctx, "account registered", "account_id", acc.ID)
	return nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.burnCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Compare(acc.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.IssueTokenPair(ctx, acc)
}

// burnCompare spends one hash comparison so unknown emails take as long as
// wrong passwords.
func (s *Service) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Compare(s.dummyHash, password)
	}
}

// IssueTokenPair mints an access and a refresh token for acc and stores the
// hash of the refresh token.
func (s *Service) IssueTokenPair(ctx context.Context, acc *account.Account) (*TokenPair, error) {
	accessToken, err := s.accessToken(acc)
	if err != nil {
		return nil, err
	}

	claims := subjectClaims(acc)
	claims.Type = token.TypeRefresh
	refreshToken, err := s.signer.Sign(claims, RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	refreshHash, err := s.hasher.Hash(refreshToken)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.tokens.Insert(ctx, &token.RefreshToken{
		ID:        uuid.New(),
		AccountID: acc.ID,
		TokenHash: refreshHash,
		ExpiresAt: now.Add(RefreshTokenTTL),
		Revoked:   false,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout deletes the stored record matching refreshToken.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, accountID, err := s.verify(refreshToken)
	if err != nil {
		return err
	}

	rt, err := s.findRecord(ctx, accountID, refreshToken)
	if err != nil {
		return err
	}

	if err := s.tokens.Delete(ctx, rt.ID); err != nil {
		return err
	}

	s.logger.Info(ctx, "refresh token revoked", "account_id", accountID, "jti", claims.ID)
	return nil
}

// RefreshAccessToken returns a new access token. The refresh token is not
// rotated and stays usable until it expires or is logged out.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, accountID, err := s.verify(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.Type != token.TypeRefresh {
		return "", ErrWrongTokenType
	}

	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", err
	}

	rt, err := s.findRecord(ctx, acc.ID, refreshToken)
	if err != nil {
		return "", err
	}
	// Signature expiry normally fires first; the record can still be
	// shortened out of band.
	if rt.Expired(s.now()) {
		return "", ErrTokenExpired
	}

	return s.accessToken(acc)
}

func (s *Service) verify(raw string) (*token.Claims, uuid.UUID, error) {
	if raw == "" {
		return nil, uuid.Nil, ErrBadRequest
	}

	v := s.signer.Verify(raw)
	if v.Outcome != token.OutcomeValid {
		return nil, uuid.Nil, ErrInvalidToken
	}

	accountID, err := uuid.Parse(v.Claims.Subject)
	if err != nil {
		return nil, uuid.Nil, ErrInvalidToken
	}
	return v.Claims, accountID, nil
}

// findRecord scans the account's active records for one whose hash matches
// raw. Hashes are salted, so there is no way to look one up directly.
func (s *Service) findRecord(ctx context.Context, accountID uuid.UUID, raw string) (*token.RefreshToken, error) {
	records, err := s.tokens.ListActive(ctx, accountID)
	if err != nil {
		return nil, err
	}

	for i := range records {
		ok, err := s.hasher.Compare(records[i].TokenHash, raw)
		if err != nil {
			return nil, err
		}
		if ok {
			return &records[i], nil
		}
	}
	return nil, ErrTokenNotFound
}

func (s *Service) accessToken(acc *account.Account) (string, error) {
	return s.signer.Sign(subjectClaims(acc), AccessTokenTTL)
}

func subjectClaims(acc *account.Account) token.Claims {
	return token.Claims{
		Email:            acc.Email,
		RegisteredClaims: jwt.RegisteredClaims{Subject: acc.ID.String()},
	}
}
