package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pagination"
)

// Repository reads and writes product reviews.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type ratingCount struct {
	Rating int   `gorm:"column:rating"`
	Count  int64 `gorm:"column:count"`
}

// FindProduct returns the active product with slug.
func (r *Repository) FindProduct(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Select("id", "slug", "name").
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListApproved returns a page of approved reviews, newest first. A non-zero
// rating narrows the page and the count to that star value.
func (r *Repository) ListApproved(ctx context.Context, productID uuid.UUID, rating int, params pagination.Params) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND is_approved = ?", productID, true)
	if rating > 0 {
		query = query.Where("rating = ?", rating)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Review
	err := query.
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// RatingCounts groups approved reviews of a product by star value.
func (r *Repository) RatingCounts(ctx context.Context, productID uuid.UUID) ([]ratingCount, error) {
	var rows []ratingCount
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("product_id = ? AND is_approved = ?", productID, true).
		Group("rating").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) Exists(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&count).Error
	return count > 0, err
}

// HasDeliveredPurchase reports whether userID has a delivered order
// containing productID.
func (r *Repository) HasDeliveredPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, enums.OrderStatusDelivered, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit("User").Create(review).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}
