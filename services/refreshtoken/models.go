package refreshtoken

import (
	"time"
)

// RefreshToken is the single active session row for a user. The unique
// index on UserID is what makes the login/refresh upsert atomic per
// user: concurrent writers collide on the constraint and the last one
// wins.
type RefreshToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	TokenHash string    `json:"-" gorm:"uniqueIndex;size:255;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	IPAddress string    `json:"ip_address" gorm:"size:45"`
	Device    string    `json:"device" gorm:"size:255"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// SessionInfo captures where a refresh token was minted from.
type SessionInfo struct {
	IPAddress string
	Device    string
}
