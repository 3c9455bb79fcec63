package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
)

// Repository persists a user's address book.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// List returns defaults first, then newest.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) Find(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var row models.Address
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *Repository) Save(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Save(address).Error
}

// ClearDefault unsets is_default on the user's other addresses of kind.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID, kind enums.AddressType, except uuid.UUID) error {
	query := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND type = ? AND is_default = ?", userID, kind, true)
	if except != uuid.Nil {
		query = query.Where("id <> ?", except)
	}
	return query.Update("is_default", false).Error
}

// ReferencedByOrder reports whether any order ships or bills to the address.
func (r *Repository) ReferencedByOrder(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("shipping_address_id = ? OR billing_address_id = ?", id, id).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	return res.RowsAffected, res.Error
}
