// AngelaMos | 2026
// entity.go

package profile

import (
	"database/sql"

	"github.com/carterperez-dev/whome/internal/link"
)

type Profile struct {
	UserID     string         `db:"user_id"`
	Username   string         `db:"username"`
	FullName   sql.NullString `db:"full_name"`
	Birthday   sql.NullString `db:"birthday"`
	City       sql.NullString `db:"city"`
	Workplace  sql.NullString `db:"workplace"`
	Bio        sql.NullString `db:"bio"`
	AvatarPath sql.NullString `db:"avatar_path"`
	Theme      sql.NullString `db:"theme"`
	CustomCSS  sql.NullString `db:"custom_css"`
}

type Project struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	URL         sql.NullString `db:"url"`
	Position    int            `db:"position"`
}

type Experience struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Role        string         `db:"role"`
	Company     sql.NullString `db:"company"`
	StartDate   sql.NullString `db:"start_date"`
	EndDate     sql.NullString `db:"end_date"`
	Description sql.NullString `db:"description"`
	Position    int            `db:"position"`
}

type Contact struct {
	ID     string `db:"id"`
	UserID string `db:"user_id"`
	Label  string `db:"label"`
	Value  string `db:"value"`
}

// View is everything a public profile page shows.
type View struct {
	Profile     *Profile
	Links       []link.Link
	Projects    []Project
	Experiences []Experience
	Contacts    []Contact
}
