package product

import (
	"github.com/google/uuid"

	"github.com/abhishekwt3/e-commerce-mobile/internal/catalog"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/money"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pagination"
)

// Analytics are the admin-only engagement counters of a product.
type Analytics struct {
	ProductID     uuid.UUID `json:"-" gorm:"column:product_id"`
	InCarts       int64     `json:"in_carts" gorm:"column:in_carts"`
	Sold          int64     `json:"sold" gorm:"column:sold"`
	Wishlisted    int64     `json:"wishlisted" gorm:"column:wishlisted"`
	AverageRating float64   `json:"average_rating" gorm:"column:average_rating"`
	ReviewCount   int64     `json:"review_count" gorm:"column:review_count"`
}

// ProductDTO extends the public card with cost price and analytics.
type ProductDTO struct {
	catalog.ProductDTO
	CostPrice *string   `json:"cost_price"`
	Analytics Analytics `json:"analytics"`
}

type ProductListResult struct {
	Products   []ProductDTO        `json:"products"`
	Pagination pagination.PageInfo `json:"pagination"`
}

// MutationResult is returned by create, update and delete.
type MutationResult struct {
	Message string      `json:"message"`
	Product *ProductDTO `json:"product,omitempty"`
}

// NewProductDTO renders product with its preloaded associations.
func NewProductDTO(product *models.Product, analytics Analytics) *ProductDTO {
	rating := catalog.RatingSummary{
		ProductID: product.ID,
		Average:   analytics.AverageRating,
		Count:     analytics.ReviewCount,
	}
	return &ProductDTO{
		ProductDTO: catalog.ToProductDTO(*product, rating),
		CostPrice:  money.FormatPtr(product.CostPriceCents),
		Analytics:  analytics,
	}
}
