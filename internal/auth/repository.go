// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/whome/internal/core"
)

type Repository interface {
	CreateResetToken(ctx context.Context, token *ResetToken) error
	FindResetToken(ctx context.Context, tokenHash string) (*ResetToken, error)
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (string, error)
	LogLogin(ctx context.Context, entry LoginLog) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateResetToken(
	ctx context.Context,
	token *ResetToken,
) error {
	query := `
		INSERT INTO reset_tokens (token_hash, user_id, expires_at, used)
		VALUES ($1, $2, $3, FALSE)`

	_, err := r.db.ExecContext(ctx, query,
		token.TokenHash,
		token.UserID,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	return nil
}

func (r *repository) FindResetToken(
	ctx context.Context,
	tokenHash string,
) (*ResetToken, error) {
	query := `
		SELECT token_hash, user_id, expires_at, used
		FROM reset_tokens
		WHERE token_hash = $1`

	var token ResetToken
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find reset token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find reset token: %w", err)
	}

	return &token, nil
}

// ConsumeResetToken marks the token used and sets the new password in one
// transaction. The conditional UPDATE is the single-use guard: a used or
// expired token matches no row and nothing changes.
func (r *repository) ConsumeResetToken(
	ctx context.Context,
	tokenHash, passwordHash string,
) (string, error) {
	var userID string

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		consume := `
			UPDATE reset_tokens
			SET used = TRUE
			WHERE token_hash = $1 AND used = FALSE AND expires_at > NOW()
			RETURNING user_id`

		err := tx.GetContext(ctx, &userID, consume, tokenHash)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrTokenInvalid
		}
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE users SET password_hash = $2 WHERE id = $1`,
			userID, passwordHash,
		)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return core.ErrNotFound
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("consume reset token: %w", err)
	}

	return userID, nil
}

func (r *repository) LogLogin(ctx context.Context, entry LoginLog) error {
	query := `
		INSERT INTO login_logs (user_id, ip, user_agent, success)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query,
		entry.UserID,
		entry.IP,
		entry.UserAgent,
		entry.Success,
	)
	if err != nil {
		return fmt.Errorf("log login: %w", err)
	}

	return nil
}
