// AngelaMos | 2026
// entity.go

package routing

import (
	"database/sql"
)

type Entry struct {
	UserID       string         `db:"user_id"`
	VanityPath   sql.NullString `db:"vanity_path"`
	CustomDomain sql.NullString `db:"custom_domain"`
}

type Outcome int

const (
	// Application means the request belongs to the application router.
	Application Outcome = iota
	// PublicProfile means the request renders a tenant's public page.
	PublicProfile
)

type Decision struct {
	Outcome Outcome
	UserID  string
	Via     string
}
