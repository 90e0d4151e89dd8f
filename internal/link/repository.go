// AngelaMos | 2026
// repository.go

package link

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/ordering"
)

type Repository interface {
	Create(ctx context.Context, link *Link) error
	ListByUser(ctx context.Context, userID string) ([]Link, error)
	Delete(ctx context.Context, userID, linkID string) error
	RecordVisit(ctx context.Context, click Click) (string, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create appends the link after the owner's current last position and
// fills in the position and counter the database assigned.
func (r *repository) Create(ctx context.Context, link *Link) error {
	query := `
		INSERT INTO links (id, user_id, label, url, position, tags, group_name, thumb_url)
		VALUES ($1, $2, $3, $4, ` + ordering.Links.NextPositionExpr(2) + `, $5, $6, $7)
		RETURNING position, clicks`

	err := r.db.QueryRowxContext(ctx, query,
		link.ID,
		link.UserID,
		link.Label,
		link.URL,
		link.Tags,
		link.GroupName,
		link.ThumbURL,
	).Scan(&link.Position, &link.Clicks)
	if err != nil {
		return fmt.Errorf("create link: %w", err)
	}

	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Link, error) {
	query := `
		SELECT id, user_id, label, url, position, tags, group_name, thumb_url, clicks
		FROM links
		WHERE user_id = $1
		ORDER BY ` + ordering.Links.OrderBy()

	var links []Link
	if err := r.db.SelectContext(ctx, &links, query, userID); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	return links, nil
}

func (r *repository) Delete(ctx context.Context, userID, linkID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM links WHERE id = $1 AND user_id = $2`,
		linkID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}

	return nil
}

// RecordVisit bumps the counter and appends the ledger row in one
// transaction and returns the destination URL.
func (r *repository) RecordVisit(ctx context.Context, click Click) (string, error) {
	var target struct {
		UserID string `db:"user_id"`
		URL    string `db:"url"`
	}

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &target,
			`UPDATE links SET clicks = clicks + 1 WHERE id = $1 RETURNING user_id, url`,
			click.LinkID,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO link_clicks (link_id, user_id, ip, user_agent)
			VALUES ($1, $2, $3, $4)`,
			click.LinkID,
			target.UserID,
			click.IP,
			click.UserAgent,
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("record visit: %w", err)
	}

	return target.URL, nil
}
