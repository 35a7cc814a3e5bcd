// Package account stores account identities in PostgreSQL.
package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = pq.ErrorCode("23505")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account. A concurrent registration of the same email
// surfaces as ErrDuplicateEmail.
func (r *Repository) Create(ctx context.Context, email, passwordHash string) (*Account, error) {
	acc := &Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		acc.ID, acc.Email, acc.PasswordHash, acc.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return acc, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE email = $1`, email)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.findOne(ctx, `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE id = $1`, id)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*Account, error) {
	var acc Account
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &acc, nil
}
