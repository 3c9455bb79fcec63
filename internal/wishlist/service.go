package wishlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhishekwt3/e-commerce-mobile/internal/catalog"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
)

type ratingSource interface {
	RatingSummaries(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]catalog.RatingSummary, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistRepo *Repository
	Ratings      ratingSource
}

// Service exposes business rules for wishlist management.
type Service interface {
	GetWishlist(ctx context.Context, userID uuid.UUID) (*WishlistDTO, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID) (*ItemDTO, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, target RemoveTarget) error
}

type service struct {
	repo    *Repository
	ratings ratingSource
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistRepo == nil {
		return nil, fmt.Errorf("wishlist repo is required")
	}
	if params.Ratings == nil {
		return nil, fmt.Errorf("rating source is required")
	}
	return &service{repo: params.WishlistRepo, ratings: params.Ratings}, nil
}

func (s *service) GetWishlist(ctx context.Context, userID uuid.UUID) (*WishlistDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	items, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	ratings, err := s.ratings.RatingSummaries(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ratings")
	}

	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		out = append(out, toItemDTO(item, ratings[item.ProductID]))
	}
	return &WishlistDTO{Items: out, Count: len(out)}, nil
}

// AddItem ensures the product exists and adds it to the wishlist. Adding a
// product twice returns the existing entry.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID) (*ItemDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err := s.repo.AddItem(ctx, userID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	item, err := s.repo.Find(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist item")
	}
	ratings, err := s.ratings.RatingSummaries(ctx, []uuid.UUID{productID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ratings")
	}
	dto := toItemDTO(*item, ratings[productID])
	return &dto, nil
}

func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, target RemoveTarget) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	var (
		removed int64
		err     error
	)
	switch {
	case target.ProductID != nil && *target.ProductID != uuid.Nil:
		removed, err = s.repo.RemoveByProduct(ctx, userID, *target.ProductID)
	case target.ItemID != nil && *target.ItemID != uuid.Nil:
		removed, err = s.repo.RemoveByID(ctx, userID, *target.ItemID)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "productId or itemId is required")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	}
	return nil
}

func toItemDTO(item models.WishlistItem, rating catalog.RatingSummary) ItemDTO {
	return ItemDTO{
		ID:        item.ID,
		Product:   catalog.ToProductDTO(*item.Product, rating),
		CreatedAt: item.CreatedAt,
	}
}
