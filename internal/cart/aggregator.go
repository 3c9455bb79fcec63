package cart

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/internal/catalog"
	"github.com/abhishekwt3/e-commerce-mobile/internal/pricing"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/money"
)

type lockingResolver interface {
	ResolveForUpdate(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID) (*catalog.Resolved, error)
}

// PricedLine is a normalized order line priced from stored catalog data,
// with the product name, sku and variant name frozen at aggregation time.
type PricedLine struct {
	ProductID       uuid.UUID
	VariantID       *uuid.UUID
	ProductName     string
	ProductSKU      *string
	VariantName     *string
	Quantity        int
	UnitPriceCents  int64
	TotalPriceCents int64
}

func (l PricedLine) PricingLine() pricing.Line {
	return pricing.Line{UnitPriceCents: l.UnitPriceCents, Quantity: l.Quantity}
}

// Aggregate is the outcome of Aggregator.Aggregate.
type Aggregate struct {
	Lines []PricedLine
	// PurgeIDs are the stored cart lines consumed by the order. Empty in
	// inline mode.
	PurgeIDs []uuid.UUID
}

// PricingLines adapts the aggregate for the pricing calculator.
func (a *Aggregate) PricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(a.Lines))
	for _, line := range a.Lines {
		out = append(out, line.PricingLine())
	}
	return out
}

// ItemCount is the total quantity across lines.
func (a *Aggregate) ItemCount() int {
	count := 0
	for _, line := range a.Lines {
		count += line.Quantity
	}
	return count
}

// Aggregator normalizes the lines of an order request inside the order
// transaction. Every product and variant row it prices is locked until the
// transaction ends.
type Aggregator struct {
	repo     *Repository
	resolver lockingResolver
	logg     *logger.Logger
}

func NewAggregator(repo *Repository, resolver lockingResolver, logg *logger.Logger) (*Aggregator, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	return &Aggregator{repo: repo, resolver: resolver, logg: logg}, nil
}

type lineRequest struct {
	productID   uuid.UUID
	variantID   *uuid.UUID
	quantity    int
	quotedPrice *int64
	quotedName  string
}

type stockKey struct {
	product uuid.UUID
	variant uuid.UUID
}

func keyOf(productID uuid.UUID, variantID *uuid.UUID) stockKey {
	k := stockKey{product: productID}
	if variantID != nil {
		k.variant = *variantID
	}
	return k
}

// Aggregate resolves the requested lines for owner within tx.
func (a *Aggregator) Aggregate(ctx context.Context, tx *gorm.DB, owner Owner, input LinesInput) (*Aggregate, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	var (
		requests []lineRequest
		purge    []uuid.UUID
		err      error
	)
	switch input.Mode() {
	case ModeReference:
		requests, purge, err = a.referenceRequests(ctx, tx, owner, input.References)
	case ModeInline:
		requests, err = inlineRequests(input.Inline)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart items are required")
	}
	if err != nil {
		return nil, err
	}

	resolved, err := a.lockInOrder(ctx, tx, requests)
	if err != nil {
		return nil, err
	}

	demand := make(map[stockKey]int, len(resolved))
	lines := make([]PricedLine, 0, len(requests))
	for _, req := range requests {
		key := keyOf(req.productID, req.variantID)
		item := resolved[key]

		demand[key] += req.quantity
		if err := item.EnsureStock(demand[key]); err != nil {
			return nil, err
		}

		unit := item.UnitPriceCents()
		if req.quotedPrice != nil && *req.quotedPrice != unit {
			a.logDrift(ctx, req, unit)
		}

		lines = append(lines, PricedLine{
			ProductID:       item.Product.ID,
			VariantID:       item.VariantID(),
			ProductName:     item.Product.Name,
			ProductSKU:      item.Product.SKU,
			VariantName:     item.VariantName(),
			Quantity:        req.quantity,
			UnitPriceCents:  unit,
			TotalPriceCents: unit * int64(req.quantity),
		})
	}

	return &Aggregate{Lines: lines, PurgeIDs: purge}, nil
}

// lockInOrder resolves each distinct product/variant once, in a stable key
// order so that concurrent orders acquire row locks in the same sequence.
func (a *Aggregator) lockInOrder(ctx context.Context, tx *gorm.DB, requests []lineRequest) (map[stockKey]*catalog.Resolved, error) {
	keys := make([]stockKey, 0, len(requests))
	seen := make(map[stockKey]*lineRequest, len(requests))
	for i := range requests {
		key := keyOf(requests[i].productID, requests[i].variantID)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = &requests[i]
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := bytes.Compare(keys[i].product[:], keys[j].product[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(keys[i].variant[:], keys[j].variant[:]) < 0
	})

	out := make(map[stockKey]*catalog.Resolved, len(keys))
	for _, key := range keys {
		req := seen[key]
		item, err := a.resolver.ResolveForUpdate(ctx, tx, req.productID, req.variantID)
		if err != nil {
			return nil, err
		}
		out[key] = item
	}
	return out, nil
}

func (a *Aggregator) referenceRequests(ctx context.Context, tx *gorm.DB, owner Owner, refs []uuid.UUID) ([]lineRequest, []uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(refs))
	unique := make(map[uuid.UUID]struct{}, len(refs))
	for _, id := range refs {
		if id == uuid.Nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id required")
		}
		if _, dup := unique[id]; dup {
			continue
		}
		unique[id] = struct{}{}
		ids = append(ids, id)
	}

	stored, err := a.repo.WithTx(tx).FindForOwner(ctx, owner, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	byID := make(map[uuid.UUID]int, len(stored))
	for i := range stored {
		byID[stored[i].ID] = i
	}

	missing := make([]uuid.UUID, 0)
	requests := make([]lineRequest, 0, len(ids))
	for _, id := range ids {
		idx, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		item := stored[idx]
		requests = append(requests, lineRequest{
			productID: item.ProductID,
			variantID: item.VariantID,
			quantity:  item.Quantity,
		})
	}
	if len(missing) > 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart items not found").
			WithDetails(map[string]any{"cart_item_ids": missing})
	}
	return requests, ids, nil
}

func inlineRequests(lines []InlineLine) ([]lineRequest, error) {
	requests := make([]lineRequest, 0, len(lines))
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "cartItems[%d].productId is required", i)
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "cartItems[%d].quantity must be positive", i)
		}
		req := lineRequest{
			productID:  line.ProductID,
			variantID:  line.VariantID,
			quantity:   line.Quantity,
			quotedName: line.Name,
		}
		if req.variantID != nil && *req.variantID == uuid.Nil {
			req.variantID = nil
		}
		if line.Price != nil {
			quoted := money.ToCents(*line.Price)
			req.quotedPrice = &quoted
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (a *Aggregator) logDrift(ctx context.Context, req lineRequest, unit int64) {
	if a.logg == nil {
		return
	}
	ctx = a.logg.WithFields(ctx, map[string]any{
		"product_id":   req.productID.String(),
		"quoted_price": money.Format(*req.quotedPrice),
		"quoted_name":  req.quotedName,
		"stored_price": money.Format(unit),
	})
	a.logg.Warn(ctx, "inline cart line price differs from catalog; using catalog price")
}
