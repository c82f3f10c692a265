package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/ticket-escrow/internal/model"
)

// TokenRepo stores refresh tokens by their SHA-256 hash.  The raw token
// never reaches the database.
type TokenRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

const (
	insertRefresh = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`

	// Only live rows match: not revoked and not yet expired at @now.
	selectLiveRefresh = `SELECT user_id FROM refresh_tokens
		WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?
		LIMIT 1`

	revokeRefresh = `UPDATE refresh_tokens SET revoked_at = ?
		WHERE revoked_at IS NULL AND `
)

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx, insertRefresh, userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh resolves a live token to its user.  Unknown, revoked, and
// expired tokens all report model.ErrRefreshInvalid.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx, selectLiveRefresh, tokenHash, r.Now()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrRefreshInvalid
	}
	return userID, err
}

func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx, revokeRefresh+"token_hash = ?", r.Now(), tokenHash)
	return err
}

// RevokeAllForUser ends every session of the user (logout by access token).
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, revokeRefresh+"user_id = ?", r.Now(), userID)
	return err
}
