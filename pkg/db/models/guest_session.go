package models

import "time"

// GuestSession tracks an anonymous shopper's cart ownership key.
type GuestSession struct {
	SessionID string    `gorm:"column:session_id;primaryKey"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
