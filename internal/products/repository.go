package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
)

const analyticsSelect = `products.id AS product_id,
  (SELECT COUNT(*) FROM cart_items c WHERE c.product_id = products.id) AS in_carts,
  (SELECT COUNT(*) FROM order_items o WHERE o.product_id = products.id) AS sold,
  (SELECT COUNT(*) FROM wishlist_items w WHERE w.product_id = products.id) AS wishlisted,
  (SELECT COALESCE(AVG(r.rating), 0) FROM reviews r WHERE r.product_id = products.id) AS average_rating,
  (SELECT COUNT(*) FROM reviews r WHERE r.product_id = products.id) AS review_count`

// Repository encapsulates admin product persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a product repository to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func withAdminAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Brand").
		Preload("Images", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order ASC") }).
		Preload("Variants", func(tx *gorm.DB) *gorm.DB { return tx.Order("name ASC") })
}

// FindByID fetches a product regardless of is_active.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductDetail loads the product with every association the admin view shows.
func (r *Repository) GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := withAdminAssociations(r.db.WithContext(ctx)).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns one page of products and the total match count.
func (r *Repository) ListProducts(ctx context.Context, q productListQuery) ([]models.Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Product{})
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		pattern := "%" + term + "%"
		base = base.Where(
			"(LOWER(products.name) LIKE ? OR LOWER(COALESCE(products.sku, '')) LIKE ? OR LOWER(COALESCE(products.description, '')) LIKE ?)",
			pattern, pattern, pattern,
		)
	}
	if q.CategoryID != nil {
		base = base.Where("products.category_id = ?", *q.CategoryID)
	}
	switch q.Status {
	case StatusActive:
		base = base.Where("products.is_active = ?", true)
	case StatusInactive:
		base = base.Where("products.is_active = ?", false)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	dir := " ASC"
	if q.Descending {
		dir = " DESC"
	}
	var products []models.Product
	err := withAdminAssociations(base.Session(&gorm.Session{})).
		Order(q.OrderBy + dir).
		Order("products.id ASC").
		Limit(q.Page.Limit).
		Offset(q.Page.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Analytics counts carts, order lines, wishlists and reviews per product.
func (r *Repository) Analytics(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Analytics, error) {
	out := make(map[uuid.UUID]Analytics, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []Analytics
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select(analyticsSelect).
		Where("products.id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = row
	}
	return out, nil
}

// SlugTaken reports whether another product already uses slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string, except uuid.UUID) (bool, error) {
	return r.taken(ctx, "slug", slug, except)
}

// SKUTaken reports whether another product already uses sku.
func (r *Repository) SKUTaken(ctx context.Context, sku string, except uuid.UUID) (bool, error) {
	return r.taken(ctx, "sku", sku, except)
}

func (r *Repository) taken(ctx context.Context, column, value string, except uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where(column+" = ?", value)
	if except != uuid.Nil {
		query = query.Where("id <> ?", except)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CreateProduct inserts the product with its images and variants.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category", "Brand").Create(product).Error
}

// UpdateProduct saves the product columns only.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category", "Brand", "Variants", "Images").Save(product).Error
}

// HasOrderLines reports whether any order references the product.
func (r *Repository) HasOrderLines(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// DeleteProduct removes the product and the rows that hang off it.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	dependents := []any{
		&models.ProductImage{},
		&models.ProductVariant{},
		&models.CartItem{},
		&models.WishlistItem{},
		&models.Review{},
	}
	for _, model := range dependents {
		if err := db.Where("product_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}
	return db.Where("id = ?", id).Delete(&models.Product{}).Error
}
