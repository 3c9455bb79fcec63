package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
)

// Repository persists cart lines and guest sessions.
type Repository struct {
	db *gorm.DB
}

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

// ListForOwner returns the owner's lines, newest first, with the product
// card data the cart page renders.
func (r *Repository) ListForOwner(ctx context.Context, owner Owner) ([]models.CartItem, error) {
	var items []models.CartItem
	err := owner.Scope(r.db.WithContext(ctx)).
		Preload("Product").
		Preload("Product.Category").
		Preload("Product.Brand").
		Preload("Product.Images", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order ASC") }).
		Preload("Variant").
		Order("created_at DESC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// FindForOwner loads the lines with the given ids that belong to owner.
// Ids owned by someone else are silently absent from the result.
func (r *Repository) FindForOwner(ctx context.Context, owner Owner, ids []uuid.UUID) ([]models.CartItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.CartItem
	err := owner.Scope(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Find(&items).Error
	return items, err
}

// FindByID returns gorm.ErrRecordNotFound when the line is not owner's.
func (r *Repository) FindByID(ctx context.Context, owner Owner, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := owner.Scope(r.db.WithContext(ctx)).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindLine finds the owner's line for a product and variant pair.
func (r *Repository) FindLine(ctx context.Context, owner Owner, productID uuid.UUID, variantID *uuid.UUID) (*models.CartItem, error) {
	query := owner.Scope(r.db.WithContext(ctx)).Where("product_id = ?", productID)
	if variantID == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", *variantID)
	}
	var item models.CartItem
	if err := query.First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()}).Error
}

// DeleteForOwner removes the owner's lines among ids and reports how many
// rows went away.
func (r *Repository) DeleteForOwner(ctx context.Context, owner Owner, ids ...uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := owner.Scope(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// TouchGuestSession creates the session with the given expiry, or bumps
// updated_at when it already exists.
func (r *Repository) TouchGuestSession(ctx context.Context, sessionID string, expiresAt time.Time) error {
	session := models.GuestSession{SessionID: sessionID, ExpiresAt: expiresAt.UTC()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.Assignments(map[string]any{"updated_at": time.Now().UTC()}),
		}).
		Create(&session).Error
}

// PurgeExpiredGuestSessions deletes sessions that expired before cutoff
// together with their cart lines.
func (r *Repository) PurgeExpiredGuestSessions(ctx context.Context, cutoff time.Time) (sessions int64, lines int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.GuestSession{}).Select("session_id").Where("expires_at < ?", cutoff.UTC())

		res := tx.Where("guest_session_id IN (?)", expired).Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		lines = res.RowsAffected

		res = tx.Where("expires_at < ?", cutoff.UTC()).Delete(&models.GuestSession{})
		if res.Error != nil {
			return res.Error
		}
		sessions = res.RowsAffected
		return nil
	})
	return sessions, lines, err
}
