package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a single customer rating of a product.
type Review struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_reviews_product_user"`
	UserID             uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_reviews_product_user"`
	Rating             int       `gorm:"column:rating;not null"`
	Title              *string   `gorm:"column:title"`
	Comment            *string   `gorm:"column:comment"`
	IsVerifiedPurchase bool      `gorm:"column:is_verified_purchase;not null"`
	IsApproved         bool      `gorm:"column:is_approved;not null"`
	User               *User     `gorm:"foreignKey:UserID"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
