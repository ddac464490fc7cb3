package repository

import (
	"context"
	"database/sql"
	"time"
)

// SessionRepo tracks issued bearer tokens so that logout can invalidate a
// user's sign-in sessions.  Only a SHA-256 hash of each token is stored;
// the middleware itself stays stateless and validates tokens by signature,
// so this table is bookkeeping for logout, not a per-request lookup.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Store records a freshly issued token for the user.
func (r *SessionRepo) Store(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, expiresAt.UTC().Format("2006-01-02 15:04:05"))
	return err
}

// RevokeAllForUser marks every non-revoked session of the user as revoked
// and reports how many rows changed.
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked=1 WHERE user_id=? AND revoked=0", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
