// AngelaMos | 2026
// entity.go

package link

import (
	"database/sql"
)

type Link struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	Label     string         `db:"label"`
	URL       string         `db:"url"`
	Position  int            `db:"position"`
	Tags      sql.NullString `db:"tags"`
	GroupName sql.NullString `db:"group_name"`
	ThumbURL  sql.NullString `db:"thumb_url"`
	Clicks    int64          `db:"clicks"`
}

// Click is one append-only row of the click ledger.
type Click struct {
	LinkID    string
	IP        string
	UserAgent string
}

type platform struct {
	label  string
	prefix string
}

var platforms = map[string]platform{
	"github":    {label: "GitHub", prefix: "https://github.com/"},
	"linkedin":  {label: "LinkedIn", prefix: "https://www.linkedin.com/in/"},
	"x":         {label: "X", prefix: "https://x.com/"},
	"instagram": {label: "Instagram", prefix: "https://instagram.com/"},
}
