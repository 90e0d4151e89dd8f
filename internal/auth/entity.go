// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

type ResetToken struct {
	TokenHash string    `db:"token_hash"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	Used      bool      `db:"used"`
}

func (t *ResetToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *ResetToken) IsValid() bool {
	return !t.Used && !t.IsExpired()
}

type LoginLog struct {
	UserID    string `db:"user_id"`
	IP        string `db:"ip"`
	UserAgent string `db:"user_agent"`
	Success   bool   `db:"success"`
}
