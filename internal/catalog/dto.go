package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/money"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pagination"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/types"
)

type ImageDTO struct {
	URL     string  `json:"url"`
	AltText *string `json:"alt_text,omitempty"`
	IsMain  bool    `json:"is_main"`
}

type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type BrandRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
	Logo *string   `json:"logo,omitempty"`
}

type VariantDTO struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	SKU        *string          `json:"sku,omitempty"`
	Attributes types.Attributes `json:"attributes"`
	Price      *string          `json:"price"`
	Stock      int              `json:"stock"`
}

// ProductDTO is the public product card used by list, search and detail.
type ProductDTO struct {
	ID               uuid.UUID    `json:"id"`
	Name             string       `json:"name"`
	Slug             string       `json:"slug"`
	Description      *string      `json:"description,omitempty"`
	ShortDescription *string      `json:"short_description,omitempty"`
	BasePrice        string       `json:"base_price"`
	SalePrice        *string      `json:"sale_price"`
	Price            string       `json:"price"`
	SKU              *string      `json:"sku,omitempty"`
	Stock            int          `json:"stock"`
	Images           []ImageDTO   `json:"images"`
	Category         *CategoryRef `json:"category,omitempty"`
	Brand            *BrandRef    `json:"brand"`
	IsActive         bool         `json:"is_active"`
	IsFeatured       bool         `json:"is_featured"`
	Variants         []VariantDTO `json:"variants"`
	AverageRating    float64      `json:"average_rating"`
	ReviewCount      int64        `json:"review_count"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

type ReviewerDTO struct {
	Name string `json:"name"`
}

type ReviewDTO struct {
	ID                 uuid.UUID   `json:"id"`
	Rating             int         `json:"rating"`
	Title              *string     `json:"title,omitempty"`
	Comment            *string     `json:"comment,omitempty"`
	IsVerifiedPurchase bool        `json:"is_verified_purchase"`
	User               ReviewerDTO `json:"user"`
	CreatedAt          time.Time   `json:"created_at"`
}

// ProductDetail is the cached payload of GET /products/{slug}.
type ProductDetail struct {
	ProductDTO
	Reviews []ReviewDTO `json:"reviews"`
}

type ProductList struct {
	Products   []ProductDTO        `json:"products"`
	Pagination pagination.PageInfo `json:"pagination"`
}

type CategoryProductDTO struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	BasePrice string     `json:"base_price"`
	SalePrice *string    `json:"sale_price"`
	Images    []ImageDTO `json:"images"`
	Brand     *BrandRef  `json:"brand"`
}

type CategoryChildDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Image       *string   `json:"image,omitempty"`
}

type CategoryDTO struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	Slug         string               `json:"slug"`
	Description  *string              `json:"description,omitempty"`
	Image        *string              `json:"image,omitempty"`
	IsActive     bool                 `json:"is_active"`
	ParentID     *uuid.UUID           `json:"parent_id"`
	Parent       *CategoryRef         `json:"parent"`
	Children     []CategoryChildDTO   `json:"children"`
	Products     []CategoryProductDTO `json:"products,omitempty"`
	ProductCount *int64               `json:"product_count,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

type CategoryList struct {
	Categories []CategoryDTO `json:"categories"`
	Total      int           `json:"total"`
}

type Suggestion struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

type Suggestions struct {
	Categories []Suggestion `json:"categories"`
	Brands     []Suggestion `json:"brands"`
}

type SearchFilters struct {
	Query    string  `json:"query"`
	Category string  `json:"category,omitempty"`
	Brand    string  `json:"brand,omitempty"`
	MinPrice *string `json:"min_price,omitempty"`
	MaxPrice *string `json:"max_price,omitempty"`
	InStock  bool    `json:"in_stock"`
	Sort     string  `json:"sort"`
}

type SearchResult struct {
	Products    []ProductDTO        `json:"products"`
	Suggestions Suggestions         `json:"suggestions"`
	Filters     SearchFilters       `json:"filters"`
	Pagination  pagination.PageInfo `json:"pagination"`
}

func toImageDTOs(images []models.ProductImage) []ImageDTO {
	out := make([]ImageDTO, 0, len(images))
	for _, img := range images {
		out = append(out, ImageDTO{URL: img.URL, AltText: img.AltText, IsMain: img.IsMain})
	}
	return out
}

func toBrandRef(brand *models.Brand) *BrandRef {
	if brand == nil {
		return nil
	}
	return &BrandRef{ID: brand.ID, Name: brand.Name, Slug: brand.Slug, Logo: brand.Logo}
}

func toCategoryRef(category *models.Category) *CategoryRef {
	if category == nil {
		return nil
	}
	return &CategoryRef{ID: category.ID, Name: category.Name, Slug: category.Slug}
}

// ToProductDTO renders a product with its preloaded associations.
func ToProductDTO(p models.Product, rating RatingSummary) ProductDTO {
	variants := make([]VariantDTO, 0, len(p.Variants))
	for _, v := range p.Variants {
		if !v.IsActive {
			continue
		}
		attrs := v.Attributes
		if attrs == nil {
			attrs = types.Attributes{}
		}
		variants = append(variants, VariantDTO{
			ID:         v.ID,
			Name:       v.Name,
			SKU:        v.SKU,
			Attributes: attrs,
			Price:      money.FormatPtr(v.PriceCents),
			Stock:      v.Stock,
		})
	}

	return ProductDTO{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		BasePrice:        money.Format(p.BasePriceCents),
		SalePrice:        money.FormatPtr(p.SalePriceCents),
		Price:            money.Format(p.EffectivePriceCents()),
		SKU:              p.SKU,
		Stock:            p.Stock,
		Images:           toImageDTOs(p.Images),
		Category:         toCategoryRef(p.Category),
		Brand:            toBrandRef(p.Brand),
		IsActive:         p.IsActive,
		IsFeatured:       p.IsFeatured,
		Variants:         variants,
		AverageRating:    rating.Average,
		ReviewCount:      rating.Count,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// ToReviewDTO renders a review with its preloaded author.
func ToReviewDTO(r models.Review) ReviewDTO {
	name := "Anonymous"
	if r.User != nil {
		name = r.User.DisplayName()
	}
	return ReviewDTO{
		ID:                 r.ID,
		Rating:             r.Rating,
		Title:              r.Title,
		Comment:            r.Comment,
		IsVerifiedPurchase: r.IsVerifiedPurchase,
		User:               ReviewerDTO{Name: name},
		CreatedAt:          r.CreatedAt,
	}
}

func toCategoryDTO(c models.Category) CategoryDTO {
	children := make([]CategoryChildDTO, 0, len(c.Children))
	for _, child := range c.Children {
		children = append(children, CategoryChildDTO{
			ID:          child.ID,
			Name:        child.Name,
			Slug:        child.Slug,
			Description: child.Description,
			Image:       child.Image,
		})
	}
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Image:       c.Image,
		IsActive:    c.IsActive,
		ParentID:    c.ParentID,
		Parent:      toCategoryRef(c.Parent),
		Children:    children,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toCategoryProductDTO(p models.Product) CategoryProductDTO {
	return CategoryProductDTO{
		ID:        p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		BasePrice: money.Format(p.BasePriceCents),
		SalePrice: money.FormatPtr(p.SalePriceCents),
		Images:    toImageDTOs(p.Images),
		Brand:     toBrandRef(p.Brand),
	}
}
