package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products into a browsable tree.
type Category struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex:ux_categories_slug"`
	Description *string    `gorm:"column:description"`
	Image       *string    `gorm:"column:image"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	IsActive    bool       `gorm:"column:is_active;not null"`
	Parent      *Category  `gorm:"foreignKey:ParentID"`
	Children    []Category `gorm:"foreignKey:ParentID"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Brand is the manufacturer a product is sold under.
type Brand struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name     string    `gorm:"column:name;not null"`
	Slug     string    `gorm:"column:slug;not null;uniqueIndex:ux_brands_slug"`
	Logo     *string   `gorm:"column:logo"`
	IsActive bool      `gorm:"column:is_active;not null"`
}

func (b *Brand) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
