package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pagination"
)

// ProductSort enumerates the browse orderings.
type ProductSort string

const (
	SortCreatedAt ProductSort = "createdAt"
	SortName      ProductSort = "name"
	SortPrice     ProductSort = "price"
)

// SearchSort enumerates the search orderings.
type SearchSort string

const (
	SearchRelevance SearchSort = "relevance"
	SearchPriceAsc  SearchSort = "price_asc"
	SearchPriceDesc SearchSort = "price_desc"
	SearchName      SearchSort = "name"
	SearchNewest    SearchSort = "newest"
	SearchOldest    SearchSort = "oldest"
)

const effectivePriceExpr = "COALESCE(products.sale_price_cents, products.base_price_cents)"

// ProductQuery filters the public product listing.
type ProductQuery struct {
	CategorySlug string
	FeaturedOnly bool
	Search       string
	Sort         ProductSort
	Descending   bool
	Page         pagination.Params
}

// SearchQuery filters /search. Term must already be trimmed.
type SearchQuery struct {
	Term          string
	CategorySlug  string
	BrandSlug     string
	MinPriceCents *int64
	MaxPriceCents *int64
	InStock       bool
	Sort          SearchSort
	Descending    bool
	Page          pagination.Params
}

// CategoryQuery filters the category tree. RootsOnly wins over ParentID.
type CategoryQuery struct {
	RootsOnly bool
	ParentID  *uuid.UUID
}

// RatingSummary aggregates approved reviews of one product.
type RatingSummary struct {
	ProductID uuid.UUID `gorm:"column:product_id"`
	Average   float64   `gorm:"column:average"`
	Count     int64     `gorm:"column:count"`
}

// Repository reads the public catalog.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(term))
	return "%" + escaped + "%"
}

func withCardAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Brand").
		Preload("Images", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order ASC") }).
		Preload("Variants", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_active = ?", true).Order("name ASC")
		})
}

func direction(desc bool) string {
	if desc {
		return " DESC"
	}
	return " ASC"
}

// ListProducts returns one page of active products and the total match count.
func (r *Repository) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Product{}).Where("products.is_active = ?", true)
	if q.CategorySlug != "" && q.CategorySlug != "all" {
		base = base.Where("products.category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", q.CategorySlug))
	}
	if q.FeaturedOnly {
		base = base.Where("products.is_featured = ?", true)
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := likePattern(term)
		base = base.Where(
			"(LOWER(products.name) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(products.description, '')) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(products.short_description, '')) LIKE ? ESCAPE '\\')",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "products.created_at"
	switch q.Sort {
	case SortName:
		order = "products.name"
	case SortPrice:
		order = "products.base_price_cents"
	}

	var products []models.Product
	err := withCardAssociations(base.Session(&gorm.Session{})).
		Order(order + direction(q.Descending)).
		Order("products.id ASC").
		Limit(q.Page.Limit).
		Offset(q.Page.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// FindActiveBySlug loads the product detail graph or gorm.ErrRecordNotFound.
func (r *Repository) FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := withCardAssociations(r.db.WithContext(ctx)).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ApprovedReviews lists the approved reviews of a product, newest first.
func (r *Repository) ApprovedReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ? AND is_approved = ?", productID, true).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

// RatingSummaries aggregates approved reviews for the given products.
func (r *Repository) RatingSummaries(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]RatingSummary, error) {
	out := make(map[uuid.UUID]RatingSummary, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []RatingSummary
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("product_id, AVG(rating) AS average, COUNT(*) AS count").
		Where("product_id IN ? AND is_approved = ?", productIDs, true).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = row
	}
	return out, nil
}

// ListCategories returns active categories by name with active children.
func (r *Repository) ListCategories(ctx context.Context, q CategoryQuery) ([]models.Category, error) {
	query := r.db.WithContext(ctx).
		Preload("Parent").
		Preload("Children", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_active = ?", true).Order("name ASC")
		}).
		Where("is_active = ?", true)
	switch {
	case q.RootsOnly:
		query = query.Where("parent_id IS NULL")
	case q.ParentID != nil:
		query = query.Where("parent_id = ?", *q.ParentID)
	}

	var categories []models.Category
	if err := query.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CategoryProducts returns up to limit active products of a category and the
// category's full active product count.
func (r *Repository) CategoryProducts(ctx context.Context, categoryID uuid.UUID, limit int) ([]models.Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ? AND is_active = ?", categoryID, true)

	var count int64
	if err := base.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var products []models.Product
	err := base.Session(&gorm.Session{}).
		Preload("Brand").
		Preload("Images", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order ASC") }).
		Order("name ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

// SearchProducts matches the term against product text, sku, category name
// and brand name, then applies the filters.
func (r *Repository) SearchProducts(ctx context.Context, q SearchQuery) ([]models.Product, int64, error) {
	pattern := likePattern(q.Term)
	base := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("products.is_active = ?", true).
		Where(
			"(LOWER(products.name) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(products.description, '')) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(products.short_description, '')) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(products.sku, '')) LIKE ? ESCAPE '\\' OR products.category_id IN (?) OR products.brand_id IN (?))",
			pattern, pattern, pattern, pattern,
			r.db.Model(&models.Category{}).Select("id").Where("LOWER(name) LIKE ? ESCAPE '\\'", pattern),
			r.db.Model(&models.Brand{}).Select("id").Where("LOWER(name) LIKE ? ESCAPE '\\'", pattern),
		)

	if q.CategorySlug != "" && q.CategorySlug != "all" {
		base = base.Where("products.category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", q.CategorySlug))
	}
	if q.BrandSlug != "" {
		base = base.Where("products.brand_id IN (?)",
			r.db.Model(&models.Brand{}).Select("id").Where("slug = ?", q.BrandSlug))
	}
	if q.MinPriceCents != nil {
		base = base.Where(effectivePriceExpr+" >= ?", *q.MinPriceCents)
	}
	if q.MaxPriceCents != nil {
		base = base.Where(effectivePriceExpr+" <= ?", *q.MaxPriceCents)
	}
	if q.InStock {
		base = base.Where("products.stock > 0")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var order string
	switch q.Sort {
	case SearchPriceAsc:
		order = effectivePriceExpr + " ASC"
	case SearchPriceDesc:
		order = effectivePriceExpr + " DESC"
	case SearchName:
		order = "products.name" + direction(q.Descending)
	case SearchNewest:
		order = "products.created_at DESC"
	case SearchOldest:
		order = "products.created_at ASC"
	default:
		order = "products.name ASC"
	}

	var products []models.Product
	err := withCardAssociations(base.Session(&gorm.Session{})).
		Order(order).
		Order("products.id ASC").
		Limit(q.Page.Limit).
		Offset(q.Page.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Suggestions returns up to limit active categories and brands whose name
// contains the term.
func (r *Repository) Suggestions(ctx context.Context, term string, limit int) ([]models.Category, []models.Brand, error) {
	pattern := likePattern(term)

	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND LOWER(name) LIKE ? ESCAPE '\\'", true, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&categories).Error
	if err != nil {
		return nil, nil, err
	}

	var brands []models.Brand
	err = r.db.WithContext(ctx).
		Where("is_active = ? AND LOWER(name) LIKE ? ESCAPE '\\'", true, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&brands).Error
	if err != nil {
		return nil, nil, err
	}
	return categories, brands, nil
}
