// AngelaMos | 2026
// repository.go

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/whome/internal/core"
)

type Repository interface {
	Touch(ctx context.Context, rec *Record) error
	ListActive(ctx context.Context, userID string) ([]Record, error)
	Deactivate(ctx context.Context, userID, sessionID string) (bool, error)
	DeactivateAll(ctx context.Context, userID string) ([]string, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Touch inserts the record or refreshes last_seen on an active one. A row
// that was revoked stays revoked and Touch reports core.ErrTokenRevoked, as
// it does when the owning user has been deleted.
func (r *repository) Touch(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO user_sessions (session_id, user_id, user_agent, ip, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (session_id) DO UPDATE
		SET last_seen = NOW(), user_agent = EXCLUDED.user_agent, ip = EXCLUDED.ip
		WHERE user_sessions.active AND user_sessions.user_id = EXCLUDED.user_id
		RETURNING created_at, last_seen, active`

	err := r.db.GetContext(ctx, rec, query,
		rec.SessionID,
		rec.UserID,
		rec.UserAgent,
		rec.IP,
	)
	if errors.Is(err, sql.ErrNoRows) || core.IsForeignKeyError(err) {
		return fmt.Errorf("touch session record: %w", core.ErrTokenRevoked)
	}
	if err != nil {
		return fmt.Errorf("touch session record: %w", err)
	}

	return nil
}

func (r *repository) ListActive(
	ctx context.Context,
	userID string,
) ([]Record, error) {
	query := `
		SELECT session_id, user_id, COALESCE(user_agent, '') AS user_agent,
		       COALESCE(ip, '') AS ip, created_at, last_seen, active
		FROM user_sessions
		WHERE user_id = $1 AND active
		ORDER BY last_seen DESC`

	var recs []Record
	if err := r.db.SelectContext(ctx, &recs, query, userID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return recs, nil
}

// Deactivate reports whether a session owned by userID was switched off.
func (r *repository) Deactivate(
	ctx context.Context,
	userID, sessionID string,
) (bool, error) {
	query := `
		UPDATE user_sessions
		SET active = FALSE
		WHERE session_id = $1 AND user_id = $2 AND active`

	result, err := r.db.ExecContext(ctx, query, sessionID, userID)
	if err != nil {
		return false, fmt.Errorf("deactivate session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate session: %w", err)
	}

	return rows > 0, nil
}

// DeactivateAll switches off every active session of userID and returns
// their ids.
func (r *repository) DeactivateAll(
	ctx context.Context,
	userID string,
) ([]string, error) {
	query := `
		UPDATE user_sessions
		SET active = FALSE
		WHERE user_id = $1 AND active
		RETURNING session_id`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("deactivate all sessions: %w", err)
	}

	return ids, nil
}
