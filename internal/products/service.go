package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/money"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox/payloads"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pagination"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/types"
)

const (
	slugConstraint = "ux_products_slug"
	skuConstraint  = "ux_products_sku"
)

// Service exposes admin product management operations.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, actor uuid.UUID, input CreateProductInput) (*MutationResult, error)
	UpdateProduct(ctx context.Context, actor, productID uuid.UUID, input UpdateProductInput) (*MutationResult, error)
	DeleteProduct(ctx context.Context, actor, productID uuid.UUID) (*MutationResult, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name             string         `json:"name" validate:"required"`
	Slug             string         `json:"slug" validate:"required"`
	Description      *string        `json:"description"`
	ShortDescription *string        `json:"short_description"`
	BasePrice        string         `json:"base_price" validate:"required"`
	SalePrice        *string        `json:"sale_price"`
	CostPrice        *string        `json:"cost_price"`
	SKU              *string        `json:"sku"`
	Stock            int            `json:"stock" validate:"min=0"`
	IsActive         *bool          `json:"is_active"`
	IsFeatured       bool           `json:"is_featured"`
	CategoryID       uuid.UUID      `json:"category_id" validate:"required"`
	BrandID          *uuid.UUID     `json:"brand_id"`
	Images           []ImageInput   `json:"images" validate:"dive"`
	Variants         []VariantInput `json:"variants" validate:"dive"`
}

type ImageInput struct {
	URL       string  `json:"url" validate:"required,url"`
	AltText   *string `json:"alt_text"`
	SortOrder *int    `json:"sort_order"`
	IsMain    bool    `json:"is_main"`
}

type VariantInput struct {
	Name       string           `json:"name" validate:"required"`
	SKU        *string          `json:"sku"`
	Attributes types.Attributes `json:"attributes"`
	Price      *string          `json:"price"`
	Stock      int              `json:"stock" validate:"min=0"`
	IsActive   *bool            `json:"is_active"`
}

// UpdateProductInput holds optional mutation values. A null or empty sale
// or cost price clears it; a null brand_id detaches the brand.
type UpdateProductInput struct {
	Name             *string                   `json:"name"`
	Slug             *string                   `json:"slug"`
	Description      *string                   `json:"description"`
	ShortDescription *string                   `json:"short_description"`
	BasePrice        *string                   `json:"base_price"`
	SalePrice        types.Optional[string]    `json:"sale_price"`
	CostPrice        types.Optional[string]    `json:"cost_price"`
	SKU              *string                   `json:"sku"`
	Stock            *int                      `json:"stock" validate:"omitempty,min=0"`
	IsActive         *bool                     `json:"is_active"`
	IsFeatured       *bool                     `json:"is_featured"`
	CategoryID       *uuid.UUID                `json:"category_id"`
	BrandID          types.Optional[uuid.UUID] `json:"brand_id"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, slugs ...string) error
}

// ServiceParams groups dependencies for the admin product service.
type ServiceParams struct {
	Repo   *Repository
	Tx     txRunner
	Outbox outboxPublisher
	Cache  cacheInvalidator
	Logger *logger.Logger
}

// service implements the product service.
type service struct {
	repo   *Repository
	tx     txRunner
	outbox outboxPublisher
	cache  cacheInvalidator
	logg   *logger.Logger
}

// NewService constructs a product service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		outbox: params.Outbox,
		cache:  params.Cache,
		logg:   params.Logger,
	}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	query := productListQuery{
		Search:     input.Search,
		Status:     StatusAll,
		OrderBy:    sortColumns["updatedAt"],
		Descending: !strings.EqualFold(input.Order, "asc"),
		Page:       pagination.Params{Page: input.Page, Limit: input.Limit}.Normalize(DefaultAdminPageSize),
	}
	if col, ok := sortColumns[input.Sort]; ok {
		query.OrderBy = col
	}
	switch status := StatusFilter(strings.ToLower(strings.TrimSpace(input.Status))); status {
	case "", StatusAll:
	case StatusActive, StatusInactive:
		query.Status = status
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be active, inactive or all")
	}
	if raw := strings.TrimSpace(input.CategoryID); raw != "" && raw != "all" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category must be a uuid")
		}
		query.CategoryID = &id
	}

	products, total, err := s.repo.ListProducts(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	analytics, err := s.repo.Analytics(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product analytics")
	}

	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *NewProductDTO(&products[i], analytics[products[i].ID]))
	}
	return &ProductListResult{Products: out, Pagination: pagination.NewPageInfo(query.Page, total)}, nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	return s.detail(ctx, productID)
}

func (s *service) CreateProduct(ctx context.Context, actor uuid.UUID, input CreateProductInput) (*MutationResult, error) {
	product, err := buildProduct(input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, product.Slug, product.SKU, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, product.CategoryID); err != nil {
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateProduct(ctx, product); err != nil {
			return uniqueOrDependency(err, "db: insert product")
		}
		return s.emitChanged(ctx, tx, actor, product, true)
	}); err != nil {
		return nil, err
	}

	s.invalidate(ctx, product.Slug)
	dto, err := s.detail(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	return &MutationResult{Message: "Product created successfully", Product: dto}, nil
}

// UpdateProduct applies the provided fields to an existing product.
func (s *service) UpdateProduct(ctx context.Context, actor, productID uuid.UUID, input UpdateProductInput) (*MutationResult, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	previousSlug := product.Slug

	if err := applyUpdateToProduct(product, input); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, product.Slug, product.SKU, product.ID); err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, product.CategoryID); err != nil {
			return nil, err
		}
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateProduct(ctx, product); err != nil {
			return uniqueOrDependency(err, "db: update product")
		}
		return s.emitChanged(ctx, tx, actor, product, false)
	}); err != nil {
		return nil, err
	}

	s.invalidate(ctx, previousSlug, product.Slug)
	dto, err := s.detail(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	return &MutationResult{Message: "Product updated successfully", Product: dto}, nil
}

// DeleteProduct deactivates products that orders reference and removes the rest.
func (s *service) DeleteProduct(ctx context.Context, actor, productID uuid.UUID) (*MutationResult, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}

	var soft bool
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		referenced, err := repo.HasOrderLines(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check order lines")
		}
		soft = referenced
		if soft {
			err = repo.Deactivate(ctx, product.ID)
		} else {
			err = repo.DeleteProduct(ctx, product.ID)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
		}
		return s.emit(ctx, tx, actor, enums.EventProductDeleted, product.ID, payloads.ProductDeletedEvent{
			ProductID: product.ID,
			Slug:      product.Slug,
			Soft:      soft,
		})
	}); err != nil {
		return nil, err
	}

	s.invalidate(ctx, product.Slug)
	if soft {
		return &MutationResult{Message: "Product deactivated (used in orders, cannot be permanently deleted)"}, nil
	}
	return &MutationResult{Message: "Product deleted successfully"}, nil
}

func (s *service) load(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) detail(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product detail")
	}
	analytics, err := s.repo.Analytics(ctx, []uuid.UUID{product.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product analytics")
	}
	return NewProductDTO(product, analytics[product.ID]), nil
}

func (s *service) ensureUnique(ctx context.Context, slug string, sku *string, except uuid.UUID) error {
	taken, err := s.repo.SlugTaken(ctx, slug, except)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "product with this slug already exists")
	}
	if sku == nil {
		return nil
	}
	taken, err = s.repo.SKUTaken(ctx, *sku, except)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check sku")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "product with this SKU already exists")
	}
	return nil
}

func (s *service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.CategoryExists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "category not found")
	}
	return nil
}

func (s *service) emitChanged(ctx context.Context, tx *gorm.DB, actor uuid.UUID, product *models.Product, created bool) error {
	return s.emit(ctx, tx, actor, enums.EventProductChanged, product.ID, payloads.ProductChangedEvent{
		ProductID: product.ID,
		Slug:      product.Slug,
		IsActive:  product.IsActive,
		Created:   created,
	})
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, actor uuid.UUID, eventType enums.OutboxEventType, productID uuid.UUID, data any) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateProduct,
		AggregateID:   productID,
		Actor:         &outbox.ActorRef{UserID: &actor, Role: string(enums.UserRoleAdmin)},
		Data:          data,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit "+string(eventType)+" event")
	}
	return nil
}

func (s *service) invalidate(ctx context.Context, slugs ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, slugs...); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "slugs", slugs), "product cache invalidation failed", err)
	}
}

func uniqueOrDependency(err error, msg string) error {
	switch {
	case db.IsUniqueViolation(err, slugConstraint), db.IsUniqueViolation(err, "products.slug"):
		return pkgerrors.New(pkgerrors.CodeConflict, "product with this slug already exists")
	case db.IsUniqueViolation(err, skuConstraint), db.IsUniqueViolation(err, "products.sku"):
		return pkgerrors.New(pkgerrors.CodeConflict, "product with this SKU already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func buildProduct(input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	slug := strings.TrimSpace(input.Slug)
	if name == "" || slug == "" || input.CategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing required fields: name, slug, base_price, category_id")
	}
	base, err := parsePrice("base_price", input.BasePrice)
	if err != nil {
		return nil, err
	}
	if base <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base_price must be positive")
	}
	sale, err := parseOptionalPrice("sale_price", input.SalePrice)
	if err != nil {
		return nil, err
	}
	cost, err := parseOptionalPrice("cost_price", input.CostPrice)
	if err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	product := &models.Product{
		Name:             name,
		Slug:             slug,
		Description:      trimmedPtr(input.Description),
		ShortDescription: trimmedPtr(input.ShortDescription),
		BasePriceCents:   base,
		SalePriceCents:   sale,
		CostPriceCents:   cost,
		SKU:              trimmedPtr(input.SKU),
		Stock:            input.Stock,
		IsActive:         active,
		IsFeatured:       input.IsFeatured,
		CategoryID:       input.CategoryID,
		BrandID:          input.BrandID,
	}

	for i, img := range input.Images {
		if strings.TrimSpace(img.URL) == "" {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "images[%d].url is required", i)
		}
		order := i
		if img.SortOrder != nil {
			order = *img.SortOrder
		}
		alt := img.AltText
		if alt == nil {
			alt = &product.Name
		}
		product.Images = append(product.Images, models.ProductImage{
			URL:       strings.TrimSpace(img.URL),
			AltText:   alt,
			SortOrder: order,
			IsMain:    img.IsMain || i == 0,
		})
	}
	for i, v := range input.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "variants[%d].name is required", i)
		}
		price, err := parseOptionalPrice(fmt.Sprintf("variants[%d].price", i), v.Price)
		if err != nil {
			return nil, err
		}
		if v.Stock < 0 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "variants[%d].stock cannot be negative", i)
		}
		variantActive := true
		if v.IsActive != nil {
			variantActive = *v.IsActive
		}
		product.Variants = append(product.Variants, models.ProductVariant{
			Name:       strings.TrimSpace(v.Name),
			SKU:        trimmedPtr(v.SKU),
			Attributes: v.Attributes,
			PriceCents: price,
			Stock:      v.Stock,
			IsActive:   variantActive,
		})
	}
	return product, nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) error {
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			product.Name = name
		}
	}
	if input.Slug != nil {
		if slug := strings.TrimSpace(*input.Slug); slug != "" {
			product.Slug = slug
		}
	}
	if input.Description != nil {
		product.Description = trimmedPtr(input.Description)
	}
	if input.ShortDescription != nil {
		product.ShortDescription = trimmedPtr(input.ShortDescription)
	}
	if input.BasePrice != nil {
		base, err := parsePrice("base_price", *input.BasePrice)
		if err != nil {
			return err
		}
		if base <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "base_price must be positive")
		}
		product.BasePriceCents = base
	}
	if input.SalePrice.Set {
		sale, err := parseOptionalPrice("sale_price", input.SalePrice.Value)
		if err != nil {
			return err
		}
		product.SalePriceCents = sale
	}
	if input.CostPrice.Set {
		cost, err := parseOptionalPrice("cost_price", input.CostPrice.Value)
		if err != nil {
			return err
		}
		product.CostPriceCents = cost
	}
	if input.SKU != nil {
		product.SKU = trimmedPtr(input.SKU)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.CategoryID != nil && *input.CategoryID != uuid.Nil {
		product.CategoryID = *input.CategoryID
	}
	if input.BrandID.Set {
		product.BrandID = input.BrandID.Get()
	}
	return nil
}

func parsePrice(field, raw string) (int64, error) {
	cents, err := money.ParseCents(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be a decimal amount")
	}
	if cents < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, field+" cannot be negative")
	}
	return cents, nil
}

// parseOptionalPrice treats nil and blank as "no price".
func parseOptionalPrice(field string, raw *string) (*int64, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	cents, err := parsePrice(field, *raw)
	if err != nil {
		return nil, err
	}
	return &cents, nil
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
