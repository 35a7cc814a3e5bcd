package token

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Insert(ctx context.Context, rt *RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, account_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rt.ID, rt.AccountID, rt.TokenHash, rt.ExpiresAt, rt.Revoked, rt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListActive returns the account's non-revoked records, oldest first.
// Records past ExpiresAt are included; callers decide what expiry means.
func (r *TokenRepository) ListActive(ctx context.Context, accountID uuid.UUID) ([]RefreshToken, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE account_id = $1 AND revoked = false
		ORDER BY created_at`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tokens []RefreshToken
	for rows.Next() {
		var rt RefreshToken
		if err := rows.Scan(&rt.ID, &rt.AccountID, &rt.TokenHash, &rt.ExpiresAt, &rt.Revoked, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		tokens = append(tokens, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}

// Delete removes a record by id. Deleting an absent id is not an error.
func (r *TokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes every record whose expiry is at or before now.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
