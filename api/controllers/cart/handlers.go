// Package cart exposes the shopper cart endpoints.
package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/abhishekwt3/e-commerce-mobile/api/controllers/shopper"
	"github.com/abhishekwt3/e-commerce-mobile/api/responses"
	"github.com/abhishekwt3/e-commerce-mobile/api/validators"
	cartsvc "github.com/abhishekwt3/e-commerce-mobile/internal/cart"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
)

type addItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  *int       `json:"quantity"`
}

type updateItemRequest struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity *int      `json:"quantity" validate:"required"`
}

// Get returns the caller's cart with its summary.
func Get(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := shopper.ResolveOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetCart(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Add puts a product in the cart, merging with an existing line. A new line
// answers 201.
func Add(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := shopper.ResolveOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addItemRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddItem(r.Context(), owner, cartsvc.AddItemInput{
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Quantity:  req.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result.Created {
			responses.WriteCreated(w, result)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Update sets a line quantity. Zero removes the line.
func Update(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := shopper.ResolveOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateItemRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateItem(r.Context(), owner, cartsvc.UpdateItemInput{
			ItemID:   req.ItemID,
			Quantity: *req.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Remove deletes the line named by ?itemId=.
func Remove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := shopper.ResolveOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParseQueryUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if itemID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "itemId is required"))
			return
		}

		if err := svc.RemoveItem(r.Context(), owner, *itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Item removed from cart"})
	}
}
