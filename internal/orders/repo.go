package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/internal/cart"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pagination"
)

// Repository persists orders, their lines and payments.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateOrder inserts the order header inside a savepoint so a unique
// violation leaves the surrounding transaction usable.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return sp.Omit("Items", "Payments", "ShippingAddress", "BillingAddress", "User").Create(order).Error
	})
}

func (r *Repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *Repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// FindUserAddress returns gorm.ErrRecordNotFound when the address is not
// userID's.
func (r *Repository) FindUserAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// ListFilter narrows an owner's order history.
type ListFilter struct {
	Status *enums.OrderStatus
}

func withDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC").Order("id ASC") }).
		Preload("Payments").
		Preload("ShippingAddress").
		Preload("BillingAddress").
		Preload("User")
}

// ListForOwner returns one page of owner's orders, newest first, and the
// total matching count.
func (r *Repository) ListForOwner(ctx context.Context, owner cart.Owner, filter ListFilter, params pagination.Params) ([]models.Order, int64, error) {
	query := owner.Scope(r.db.WithContext(ctx).Model(&models.Order{}))
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.Order{}, 0, nil
	}

	var orders []models.Order
	err := withDetail(query).
		Order("created_at DESC").
		Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// FindForOwner returns gorm.ErrRecordNotFound when the order is not owner's.
func (r *Repository) FindForOwner(ctx context.Context, owner cart.Owner, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := withDetail(owner.Scope(r.db.WithContext(ctx))).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
