package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/rental-availability/internal/clock"
)

// TokenRepo stores refresh token hashes.
type TokenRepo struct {
	db    *sql.DB
	clock clock.Clock
}

func NewTokenRepo(db *sql.DB, clk clock.Clock) *TokenRepo {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &TokenRepo{db: db, clock: clk}
}

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh returns the owning user id of a live token.  Revoked and
// expired tokens report sql.ErrNoRows, the same as unknown ones.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid || r.clock.Now().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return userID, nil
}

func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL",
		r.clock.Now(), tokenHash)
	return err
}

func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE user_id=? AND revoked_at IS NULL",
		r.clock.Now(), userID)
	return err
}
