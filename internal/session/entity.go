// AngelaMos | 2026
// entity.go

package session

import (
	"time"
)

type Record struct {
	SessionID string    `db:"session_id"`
	UserID    string    `db:"user_id"`
	UserAgent string    `db:"user_agent"`
	IP        string    `db:"ip"`
	CreatedAt time.Time `db:"created_at"`
	LastSeen  time.Time `db:"last_seen"`
	Active    bool      `db:"active"`
}
