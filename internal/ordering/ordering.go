// AngelaMos | 2026
// ordering.go

package ordering

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/whome/internal/core"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Up, Down:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("direction %q: %w", s, core.ErrInvalidInput)
	}
}

// List describes one owner-scoped, position-ordered collection. Table and
// Tiebreak are compile-time constants and never user input.
type List struct {
	Table    string
	Tiebreak string
}

var (
	Links       = List{Table: "links", Tiebreak: "label"}
	Projects    = List{Table: "projects", Tiebreak: "title"}
	Experiences = List{Table: "experiences", Tiebreak: "start_date DESC"}
)

// OrderBy is the display order for the list.
func (l List) OrderBy() string {
	return "position ASC, " + l.Tiebreak
}

// NextPositionExpr is a subquery yielding max(position)+1 for the owner
// bound at placeholder $ownerArg. Embedding it in the INSERT keeps the
// append a single statement.
func (l List) NextPositionExpr(ownerArg int) string {
	return fmt.Sprintf(
		"(SELECT COALESCE(MAX(position), 0) + 1 FROM %s WHERE user_id = $%d)",
		l.Table, ownerArg,
	)
}

// IDs is a reorder payload. Anything that is not a JSON array decodes as an
// empty list, and non-string elements become blanks so the ids around them
// keep their index.
type IDs []string

func (ids *IDs) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		*ids = nil
		return nil //nolint:nilerr // malformed order reorders nothing
	}

	out := make(IDs, len(raw))
	for i, v := range raw {
		if id, ok := v.(string); ok {
			out[i] = id
		}
	}
	*ids = out

	return nil
}

type Manager struct {
	db *sqlx.DB
}

func NewManager(db *sqlx.DB) *Manager {
	return &Manager{db: db}
}

// Reorder sets each item's position to its index in ids. Malformed ids are
// skipped without shifting the index of the others, ids that belong to
// another owner match no row, and the whole batch commits or none of it
// does.
func (m *Manager) Reorder(
	ctx context.Context,
	list List,
	ownerID string,
	ids []string,
) error {
	type placement struct {
		id       string
		position int
	}

	placements := make([]placement, 0, len(ids))
	for i, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		placements = append(placements, placement{id: id, position: i})
	}

	if len(placements) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		"UPDATE %s SET position = $1 WHERE id = $2 AND user_id = $3",
		list.Table,
	)

	err := core.InTx(ctx, m.db, func(tx *sqlx.Tx) error {
		for _, p := range placements {
			if _, err := tx.ExecContext(ctx, query, p.position, p.id, ownerID); err != nil {
				return fmt.Errorf("set position of %s: %w", p.id, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reorder %s: %w", list.Table, err)
	}

	return nil
}

// Move swaps the item one step up or down with whichever item currently
// holds the target position. Positions never go below zero, and moving an
// unknown or foreign item is a no-op.
func (m *Manager) Move(
	ctx context.Context,
	list List,
	ownerID, itemID string,
	dir Direction,
) error {
	var delta int
	switch dir {
	case Up:
		delta = -1
	case Down:
		delta = 1
	default:
		return fmt.Errorf("direction %q: %w", dir, core.ErrInvalidInput)
	}

	if _, err := uuid.Parse(itemID); err != nil {
		return nil
	}

	selectItem := fmt.Sprintf(
		"SELECT position FROM %s WHERE id = $1 AND user_id = $2 FOR UPDATE",
		list.Table,
	)
	selectOccupant := fmt.Sprintf(
		`SELECT id FROM %s WHERE user_id = $1 AND position = $2 AND id <> $3
		ORDER BY %s LIMIT 1 FOR UPDATE`,
		list.Table, list.Tiebreak,
	)
	setPosition := fmt.Sprintf(
		"UPDATE %s SET position = $1 WHERE id = $2 AND user_id = $3",
		list.Table,
	)

	err := core.InTx(ctx, m.db, func(tx *sqlx.Tx) error {
		var current int
		err := tx.GetContext(ctx, &current, selectItem, itemID, ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock item: %w", err)
		}

		target := max(current+delta, 0)
		if target == current {
			return nil
		}

		var occupant string
		err = tx.GetContext(ctx, &occupant, selectOccupant, ownerID, target, itemID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("find occupant: %w", err)
		default:
			if _, err := tx.ExecContext(ctx, setPosition, current, occupant, ownerID); err != nil {
				return fmt.Errorf("move occupant: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, setPosition, target, itemID, ownerID); err != nil {
			return fmt.Errorf("move item: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("move in %s: %w", list.Table, err)
	}

	return nil
}
