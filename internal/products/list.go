package product

import (
	"github.com/google/uuid"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/pagination"
)

// DefaultAdminPageSize is the admin listing page size.
const DefaultAdminPageSize = 20

// StatusFilter narrows the admin listing by is_active.
type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

// ListProductsInput captures the admin listing query string.
type ListProductsInput struct {
	Search     string
	CategoryID string
	Status     string
	Sort       string
	Order      string
	Page       int
	Limit      int
}

type productListQuery struct {
	Search     string
	CategoryID *uuid.UUID
	Status     StatusFilter
	OrderBy    string
	Descending bool
	Page       pagination.Params
}

var sortColumns = map[string]string{
	"name":      "products.name",
	"price":     "products.base_price_cents",
	"stock":     "products.stock",
	"createdAt": "products.created_at",
	"updatedAt": "products.updated_at",
}
