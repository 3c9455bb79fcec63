package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
)

// DefaultGuestSessionTTL is how long a guest cart survives without orders.
const DefaultGuestSessionTTL = 30 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the shopper cart.
type Service interface {
	GetCart(ctx context.Context, owner Owner) (*CartView, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) (*ItemResult, error)
	UpdateItem(ctx context.Context, owner Owner, input UpdateItemInput) (*ItemResult, error)
	RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) error
}

type AddItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	// Quantity defaults to 1 when nil.
	Quantity *int
}

type UpdateItemInput struct {
	ItemID   uuid.UUID
	Quantity int
}

// ItemResult reports what a mutation did. Item is nil when the line was removed.
type ItemResult struct {
	Message string       `json:"message"`
	Created bool         `json:"-"`
	Item    *CartItemDTO `json:"item,omitempty"`
}

type service struct {
	repo     *Repository
	tx       txRunner
	resolver lockingResolver
	guestTTL time.Duration
	now      func() time.Time
}

func NewService(repo *Repository, tx txRunner, resolver lockingResolver, guestTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	if guestTTL <= 0 {
		guestTTL = DefaultGuestSessionTTL
	}
	return &service{
		repo:     repo,
		tx:       tx,
		resolver: resolver,
		guestTTL: guestTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) GetCart(ctx context.Context, owner Owner) (*CartView, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	items, err := s.repo.ListForOwner(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return newCartView(items), nil
}

func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) (*ItemResult, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	quantity := 1
	if input.Quantity != nil {
		quantity = *input.Quantity
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.VariantID != nil && *input.VariantID == uuid.Nil {
		input.VariantID = nil
	}

	var result *ItemResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		resolved, err := s.resolver.ResolveForUpdate(ctx, tx, input.ProductID, input.VariantID)
		if err != nil {
			return err
		}
		if err := resolved.EnsureStock(quantity); err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		if owner.IsGuest() {
			if err := repo.TouchGuestSession(ctx, owner.GuestSessionID, s.now().Add(s.guestTTL)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert guest session")
			}
		}

		existing, err := repo.FindLine(ctx, owner, input.ProductID, input.VariantID)
		switch {
		case err == nil:
			merged := existing.Quantity + quantity
			if err := resolved.EnsureStock(merged); err != nil {
				return err
			}
			if err := repo.UpdateQuantity(ctx, existing.ID, merged); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
			existing.Quantity = merged
			existing.Product = &resolved.Product
			existing.Variant = resolved.Variant
			result = &ItemResult{Message: "Cart updated successfully", Item: toCartItemDTO(*existing)}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		item := models.CartItem{
			UserID:         owner.UserID,
			GuestSessionID: owner.GuestSessionPtr(),
			ProductID:      input.ProductID,
			VariantID:      input.VariantID,
			Quantity:       quantity,
		}
		if err := repo.Create(ctx, &item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
		}
		item.Product = &resolved.Product
		item.Variant = resolved.Variant
		result = &ItemResult{Message: "Item added to cart successfully", Created: true, Item: toCartItemDTO(item)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) UpdateItem(ctx context.Context, owner Owner, input UpdateItemInput) (*ItemResult, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "itemId is required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	var result *ItemResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindByID(ctx, owner, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		if input.Quantity == 0 {
			if _, err := repo.DeleteForOwner(ctx, owner, item.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
			}
			result = &ItemResult{Message: "Item removed from cart"}
			return nil
		}

		resolved, err := s.resolver.ResolveForUpdate(ctx, tx, item.ProductID, item.VariantID)
		if err != nil {
			return err
		}
		if err := resolved.EnsureStock(input.Quantity); err != nil {
			return err
		}
		if err := repo.UpdateQuantity(ctx, item.ID, input.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		item.Quantity = input.Quantity
		item.Product = &resolved.Product
		item.Variant = resolved.Variant
		result = &ItemResult{Message: "Cart updated successfully", Item: toCartItemDTO(*item)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "itemId is required")
	}
	deleted, err := s.repo.DeleteForOwner(ctx, owner, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}
