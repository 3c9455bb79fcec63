package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/types"
)

// Product represents a catalog listing.
type Product struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name             string           `gorm:"column:name;not null"`
	Slug             string           `gorm:"column:slug;not null;uniqueIndex:ux_products_slug"`
	SKU              *string          `gorm:"column:sku;uniqueIndex:ux_products_sku"`
	Description      *string          `gorm:"column:description"`
	ShortDescription *string          `gorm:"column:short_description"`
	BasePriceCents   int64            `gorm:"column:base_price_cents;not null"`
	SalePriceCents   *int64           `gorm:"column:sale_price_cents"`
	CostPriceCents   *int64           `gorm:"column:cost_price_cents"`
	Stock            int              `gorm:"column:stock;not null"`
	IsActive         bool             `gorm:"column:is_active;not null"`
	IsFeatured       bool             `gorm:"column:is_featured;not null"`
	CategoryID       uuid.UUID        `gorm:"column:category_id;type:uuid;not null"`
	BrandID          *uuid.UUID       `gorm:"column:brand_id;type:uuid"`
	Category         *Category        `gorm:"foreignKey:CategoryID"`
	Brand            *Brand           `gorm:"foreignKey:BrandID"`
	Variants         []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images           []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// EffectivePriceCents is the sale price when one is set, else the base price.
func (p Product) EffectivePriceCents() int64 {
	if p.SalePriceCents != nil {
		return *p.SalePriceCents
	}
	return p.BasePriceCents
}

// ProductVariant is a purchasable option of a product with its own stock.
type ProductVariant struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	Name       string           `gorm:"column:name;not null"`
	SKU        *string          `gorm:"column:sku"`
	Attributes types.Attributes `gorm:"column:attributes;type:jsonb"`
	PriceCents *int64           `gorm:"column:price_cents"`
	Stock      int              `gorm:"column:stock;not null"`
	IsActive   bool             `gorm:"column:is_active;not null"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductVariant) TableName() string { return "product_variants" }

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// ProductImage is an ordered gallery entry.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	URL       string    `gorm:"column:url;not null"`
	AltText   *string   `gorm:"column:alt_text"`
	SortOrder int       `gorm:"column:sort_order;not null"`
	IsMain    bool      `gorm:"column:is_main;not null"`
}

func (ProductImage) TableName() string { return "product_images" }

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
