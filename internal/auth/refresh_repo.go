package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/db"
)

var ErrTokenRevoked = errors.New("refresh token expired or revoked")

type RefreshRepo struct {
	db db.DB
}

func NewRefreshRepo(db db.DB) *RefreshRepo {
	return &RefreshRepo{db: db}
}

func (r *RefreshRepo) Store(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1,$2,$3)
	`, userID, tokenHash, expiresAt)
	return err
}

// Rotate revokes oldHash and stores newHash in one transaction. A token that
// is unknown, expired or already revoked cannot be rotated, so a replayed
// refresh token fails.
func (r *RefreshRepo) Rotate(ctx context.Context, userID int64, oldHash, newHash string, expiresAt time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at=now()
		WHERE user_id=$1 AND token_hash=$2
		  AND revoked_at IS NULL
		  AND expires_at > now()
	`, userID, oldHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrTokenRevoked
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1,$2,$3)
	`, userID, newHash, expiresAt); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *RefreshRepo) Revoke(ctx context.Context, userID int64, tokenHash string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at=now()
		WHERE user_id=$1 AND token_hash=$2 AND revoked_at IS NULL
	`, userID, tokenHash)
	return err
}
