package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
)

// Resolved is an active product, narrowed to one of its active variants when
// a variant id was requested.
type Resolved struct {
	Product models.Product
	Variant *models.ProductVariant
}

// AvailableStock is the variant stock when a variant was resolved, else the
// product stock. Variant stock is tracked independently of the parent.
func (r *Resolved) AvailableStock() int {
	if r.Variant != nil {
		return r.Variant.Stock
	}
	return r.Product.Stock
}

// UnitPriceCents is variant price ?? sale price ?? base price.
func (r *Resolved) UnitPriceCents() int64 {
	if r.Variant != nil && r.Variant.PriceCents != nil {
		return *r.Variant.PriceCents
	}
	return r.Product.EffectivePriceCents()
}

// VariantName returns nil when no variant was resolved.
func (r *Resolved) VariantName() *string {
	if r.Variant == nil {
		return nil
	}
	name := r.Variant.Name
	return &name
}

// VariantID returns nil when no variant was resolved.
func (r *Resolved) VariantID() *uuid.UUID {
	if r.Variant == nil {
		return nil
	}
	id := r.Variant.ID
	return &id
}

// StockShortage is attached as details to INSUFFICIENT_STOCK errors.
type StockShortage struct {
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	ProductName string     `json:"product_name"`
	Requested   int        `json:"requested"`
	Available   int        `json:"available"`
}

// EnsureStock fails with INSUFFICIENT_STOCK when qty exceeds what is on hand.
func (r *Resolved) EnsureStock(qty int) error {
	available := r.AvailableStock()
	if qty <= available {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for "+r.Product.Name).
		WithDetails(StockShortage{
			ProductID:   r.Product.ID,
			VariantID:   r.VariantID(),
			ProductName: r.Product.Name,
			Requested:   qty,
			Available:   available,
		})
}

// Reader resolves purchasable products for the cart and order paths.
type Reader struct {
	db *gorm.DB
}

func NewReader(db *gorm.DB) *Reader {
	return &Reader{db: db}
}

// Resolve loads an active product and, when variantID is set, an active
// variant that belongs to it. Anything else is NOT_FOUND.
func (r *Reader) Resolve(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*Resolved, error) {
	return resolve(ctx, r.db, productID, variantID, false)
}

// ResolveForUpdate is Resolve inside tx with the product and variant rows
// locked until tx ends, so concurrent orders for the same item serialize.
func (r *Reader) ResolveForUpdate(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID) (*Resolved, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	return resolve(ctx, tx, productID, variantID, true)
}

func resolve(ctx context.Context, db *gorm.DB, productID uuid.UUID, variantID *uuid.UUID, lock bool) (*Resolved, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	query := func() *gorm.DB {
		q := db.WithContext(ctx)
		if lock {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		return q
	}

	var product models.Product
	if err := query().Where("id = ? AND is_active = ?", productID, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": productID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	resolved := &Resolved{Product: product}
	if variantID == nil || *variantID == uuid.Nil {
		return resolved, nil
	}

	var variant models.ProductVariant
	err := query().
		Where("id = ? AND product_id = ? AND is_active = ?", *variantID, productID, true).
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
				WithDetails(map[string]any{"product_id": productID, "variant_id": *variantID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	resolved.Variant = &variant
	return resolved, nil
}
