// AngelaMos | 2026
// repository.go

package routing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/whome/internal/core"
)

const (
	FieldVanityPath   = "vanity_path"
	FieldCustomDomain = "custom_domain"
)

var constraintFields = map[string]string{
	"user_routes_vanity_path_key":   FieldVanityPath,
	"user_routes_custom_domain_key": FieldCustomDomain,
}

type Repository interface {
	GetByUser(ctx context.Context, userID string) (*Entry, error)
	FindUserByDomain(ctx context.Context, domain string) (string, error)
	FindUserByVanity(ctx context.Context, vanity string) (string, error)
	Set(ctx context.Context, entry *Entry) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUser(
	ctx context.Context,
	userID string,
) (*Entry, error) {
	query := `
		SELECT user_id, vanity_path, custom_domain
		FROM user_routes
		WHERE user_id = $1`

	var entry Entry
	err := r.db.GetContext(ctx, &entry, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get routes: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get routes: %w", err)
	}

	return &entry, nil
}

func (r *repository) FindUserByDomain(
	ctx context.Context,
	domain string,
) (string, error) {
	query := `SELECT user_id FROM user_routes WHERE custom_domain = $1`

	var userID string
	err := r.db.GetContext(ctx, &userID, query, domain)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("find by domain: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("find by domain: %w", err)
	}

	return userID, nil
}

func (r *repository) FindUserByVanity(
	ctx context.Context,
	vanity string,
) (string, error) {
	query := `SELECT user_id FROM user_routes WHERE vanity_path = $1`

	var userID string
	err := r.db.GetContext(ctx, &userID, query, vanity)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("find by vanity: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("find by vanity: %w", err)
	}

	return userID, nil
}

// Set checks both values against every other user's row and upserts them
// together. The unique constraints remain the source of truth; a violation
// that slips past the pre-check still surfaces as a conflict.
func (r *repository) Set(ctx context.Context, entry *Entry) error {
	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := checkTaken(
			ctx, tx, FieldVanityPath, entry.VanityPath, entry.UserID,
		); err != nil {
			return err
		}
		if err := checkTaken(
			ctx, tx, FieldCustomDomain, entry.CustomDomain, entry.UserID,
		); err != nil {
			return err
		}

		query := `
			INSERT INTO user_routes (user_id, vanity_path, custom_domain)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE
			SET vanity_path = EXCLUDED.vanity_path,
			    custom_domain = EXCLUDED.custom_domain`

		_, err := tx.ExecContext(ctx, query,
			entry.UserID,
			entry.VanityPath,
			entry.CustomDomain,
		)
		return err
	})
	if err != nil {
		if constraint, ok := core.UniqueViolation(err); ok {
			field := constraintFields[constraint]
			return core.ConflictError(field, takenMessage(field))
		}
		if core.IsAppError(err) {
			return err
		}
		return fmt.Errorf("set routes: %w", err)
	}

	return nil
}

func checkTaken(
	ctx context.Context,
	tx *sqlx.Tx,
	field string,
	value sql.NullString,
	userID string,
) error {
	if !value.Valid {
		return nil
	}

	// field is one of the two column constants above.
	query := fmt.Sprintf(
		`SELECT EXISTS(SELECT 1 FROM user_routes WHERE %s = $1 AND user_id <> $2)`,
		field,
	)

	var taken bool
	if err := tx.GetContext(ctx, &taken, query, value.String, userID); err != nil {
		return fmt.Errorf("check %s: %w", field, err)
	}
	if taken {
		return core.ConflictError(field, takenMessage(field))
	}

	return nil
}

func takenMessage(field string) string {
	switch field {
	case FieldVanityPath:
		return "that vanity path is already taken"
	case FieldCustomDomain:
		return "that domain is already connected to another profile"
	default:
		return "that route is already taken"
	}
}
