package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/abhishekwt3/e-commerce-mobile/internal/catalog"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/money"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/types"
)

// CartItemDTO is one rendered cart line.
type CartItemDTO struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	VariantID     *uuid.UUID      `json:"variant_id"`
	Quantity      int             `json:"quantity"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Price         string          `json:"price"`
	OriginalPrice string          `json:"original_price"`
	Image         *string         `json:"image"`
	Variant       *CartVariantDTO `json:"variant"`
	Stock         int             `json:"stock"`
	Category      string          `json:"category,omitempty"`
	Brand         *string         `json:"brand,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	priceCents int64
}

type CartVariantDTO struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	Attributes types.Attributes `json:"attributes"`
}

type CartSummary struct {
	TotalItems int    `json:"total_items"`
	Subtotal   string `json:"subtotal"`
	ItemCount  int    `json:"item_count"`
}

type CartView struct {
	Items   []CartItemDTO `json:"items"`
	Summary CartSummary   `json:"summary"`
}

func newCartView(items []models.CartItem) *CartView {
	view := &CartView{Items: make([]CartItemDTO, 0, len(items))}
	var subtotal int64
	for _, item := range items {
		dto := toCartItemDTO(item)
		if dto == nil {
			continue
		}
		view.Items = append(view.Items, *dto)
		subtotal += dto.priceCents * int64(dto.Quantity)
		view.Summary.TotalItems += dto.Quantity
	}
	view.Summary.ItemCount = len(view.Items)
	view.Summary.Subtotal = money.Format(subtotal)
	return view
}

func toCartItemDTO(item models.CartItem) *CartItemDTO {
	if item.Product == nil {
		return nil
	}
	resolved := catalog.Resolved{Product: *item.Product, Variant: item.Variant}
	unit := resolved.UnitPriceCents()

	dto := &CartItemDTO{
		ID:            item.ID,
		ProductID:     item.ProductID,
		VariantID:     item.VariantID,
		Quantity:      item.Quantity,
		Name:          item.Product.Name,
		Slug:          item.Product.Slug,
		Price:         money.Format(unit),
		OriginalPrice: money.Format(item.Product.BasePriceCents),
		Stock:         resolved.AvailableStock(),
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
		priceCents:    unit,
	}
	for _, img := range item.Product.Images {
		if img.IsMain {
			url := img.URL
			dto.Image = &url
			break
		}
	}
	if dto.Image == nil && len(item.Product.Images) > 0 {
		url := item.Product.Images[0].URL
		dto.Image = &url
	}
	if item.Variant != nil {
		attrs := item.Variant.Attributes
		if attrs == nil {
			attrs = types.Attributes{}
		}
		dto.Variant = &CartVariantDTO{ID: item.Variant.ID, Name: item.Variant.Name, Attributes: attrs}
	}
	if item.Product.Category != nil {
		dto.Category = item.Product.Category.Name
	}
	if item.Product.Brand != nil {
		name := item.Product.Brand.Name
		dto.Brand = &name
	}
	return dto
}
