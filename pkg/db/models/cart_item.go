package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is a single cart line owned by exactly one of a user or a guest
// session.
type CartItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID         *uuid.UUID      `gorm:"column:user_id;type:uuid"`
	GuestSessionID *string         `gorm:"column:guest_session_id"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	Quantity       int             `gorm:"column:quantity;not null"`
	Product        *Product        `gorm:"foreignKey:ProductID"`
	Variant        *ProductVariant `gorm:"foreignKey:VariantID"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
