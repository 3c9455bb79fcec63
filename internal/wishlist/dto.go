package wishlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/abhishekwt3/e-commerce-mobile/internal/catalog"
)

// ItemDTO wraps the product card included in a wishlist row.
type ItemDTO struct {
	ID        uuid.UUID          `json:"id"`
	Product   catalog.ProductDTO `json:"product"`
	CreatedAt time.Time          `json:"created_at"`
}

type WishlistDTO struct {
	Items []ItemDTO `json:"items"`
	Count int       `json:"count"`
}

// RemoveTarget selects the entry to delete. Exactly one field is set.
type RemoveTarget struct {
	ProductID *uuid.UUID
	ItemID    *uuid.UUID
}
