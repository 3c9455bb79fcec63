package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/internal/cart"
	"github.com/abhishekwt3/e-commerce-mobile/internal/pricing"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/metrics"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/money"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox/payloads"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pagination"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/types"
)

var emailRule = validator.New()

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type lineAggregator interface {
	Aggregate(ctx context.Context, tx *gorm.DB, owner cart.Owner, input cart.LinesInput) (*cart.Aggregate, error)
}

type quoter interface {
	Quote(lines []pricing.Line) pricing.Totals
}

// Service places and reads shopper orders.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlacedOrder, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*OrderList, error)
	GetOrder(ctx context.Context, owner cart.Owner, orderID uuid.UUID) (*OrderDTO, error)
}

// AddressInput is either a reference to a saved address (users) or a full
// snapshot (guests, or users ordering to an unsaved address).
type AddressInput struct {
	ID       *uuid.UUID
	Snapshot *types.Address
}

type PlaceOrderInput struct {
	Owner           cart.Owner
	CustomerEmail   string
	CustomerPhone   *string
	Lines           cart.LinesInput
	PaymentMethod   string
	ShippingAddress *AddressInput
	BillingAddress  *AddressInput
	CustomerNotes   *string
}

type ListOrdersInput struct {
	Owner  cart.Owner
	Status string
	Page   int
	Limit  int
}

// Deps bundles the collaborators of the order service.
type Deps struct {
	Repo       *Repository
	Carts      *cart.Repository
	Tx         txRunner
	Aggregator lineAggregator
	Pricing    quoter
	Outbox     outboxPublisher
	Metrics    *metrics.OrderMetrics
	Logger     *logger.Logger
	// NumberFunc overrides order number generation; defaults to NewOrderNumber.
	NumberFunc NumberFunc
}

type service struct {
	repo       *Repository
	carts      *cart.Repository
	tx         txRunner
	aggregator lineAggregator
	pricing    quoter
	outbox     outboxPublisher
	metrics    *metrics.OrderMetrics
	logg       *logger.Logger
	number     NumberFunc
	now        func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Aggregator == nil {
		return nil, fmt.Errorf("cart aggregator required")
	}
	if deps.Pricing == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	number := deps.NumberFunc
	if number == nil {
		number = NewOrderNumber
	}
	return &service{
		repo:       deps.Repo,
		carts:      deps.Carts,
		tx:         deps.Tx,
		aggregator: deps.Aggregator,
		pricing:    deps.Pricing,
		outbox:     deps.Outbox,
		metrics:    deps.Metrics,
		logg:       deps.Logger,
		number:     number,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlacedOrder, error) {
	placed, err := s.placeOrder(ctx, input)
	if err != nil {
		code := pkgerrors.CodeInternal
		if typed := pkgerrors.As(err); typed != nil {
			code = typed.Code()
		}
		s.metrics.IncFailed(string(code))
		return nil, err
	}
	return placed, nil
}

func (s *service) placeOrder(ctx context.Context, input PlaceOrderInput) (*PlacedOrder, error) {
	if err := input.Owner.Validate(); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.CustomerEmail))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if emailRule.Var(email, "email") != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is invalid")
	}
	if input.Lines.Len() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart items are required")
	}
	method := enums.PaymentMethodCOD
	if raw := strings.TrimSpace(input.PaymentMethod); raw != "" {
		parsed, err := enums.ParsePaymentMethod(strings.ToLower(raw))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported payment method")
		}
		method = parsed
	}

	var (
		order     *models.Order
		itemCount int
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		agg, err := s.aggregator.Aggregate(ctx, tx, input.Owner, input.Lines)
		if err != nil {
			return err
		}
		totals := s.pricing.Quote(agg.PricingLines())

		order = &models.Order{
			UserID:         input.Owner.UserID,
			GuestSessionID: input.Owner.GuestSessionPtr(),
			CustomerEmail:  email,
			CustomerPhone:  trimmedPtr(input.CustomerPhone),
			Status:         enums.OrderStatusPending,
			PaymentStatus:  enums.PaymentStatusPending,
			SubtotalCents:  totals.SubtotalCents,
			TaxCents:       totals.TaxCents,
			ShippingCents:  totals.ShippingCents,
			DiscountCents:  totals.DiscountCents,
			TotalCents:     totals.TotalCents,
			PaymentMethod:  method,
			CustomerNotes:  trimmedPtr(input.CustomerNotes),
		}
		if err := s.applyAddresses(ctx, repo, input, order); err != nil {
			return err
		}
		if err := s.insertWithUniqueNumber(ctx, repo, order); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(agg.Lines))
		for _, line := range agg.Lines {
			items = append(items, models.OrderItem{
				OrderID:         order.ID,
				ProductID:       line.ProductID,
				VariantID:       line.VariantID,
				ProductName:     line.ProductName,
				ProductSKU:      line.ProductSKU,
				VariantName:     line.VariantName,
				Quantity:        line.Quantity,
				UnitPriceCents:  line.UnitPriceCents,
				TotalPriceCents: line.TotalPriceCents,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items

		if len(agg.PurgeIDs) > 0 {
			if _, err := s.carts.WithTx(tx).DeleteForOwner(ctx, input.Owner, agg.PurgeIDs...); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear ordered cart items")
			}
		}

		payment := models.Payment{
			OrderID:     order.ID,
			AmountCents: order.TotalCents,
			Method:      method,
			Status:      enums.PaymentStatusPending,
		}
		if err := repo.CreatePayment(ctx, &payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		order.Payments = []models.Payment{payment}

		itemCount = agg.ItemCount()
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorFor(input.Owner),
			Data: payloads.OrderCreatedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				UserID:         order.UserID,
				GuestSessionID: order.GuestSessionID,
				CustomerEmail:  order.CustomerEmail,
				Status:         string(order.Status),
				PaymentMethod:  string(order.PaymentMethod),
				SubtotalAmount: money.Format(order.SubtotalCents),
				TaxAmount:      money.Format(order.TaxCents),
				ShippingAmount: money.Format(order.ShippingCents),
				TotalAmount:    money.Format(order.TotalCents),
				ItemCount:      itemCount,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObservePlaced(string(order.PaymentMethod), input.Owner.Kind(), order.TotalCents)
	if s.logg != nil {
		logCtx := s.logg.WithOrder(ctx, order.ID.String(), order.OrderNumber)
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"owner":      input.Owner.Kind(),
			"total":      money.Format(order.TotalCents),
			"item_count": itemCount,
		})
		s.logg.Info(logCtx, "order placed")
	}
	return toPlacedOrder(order), nil
}

// insertWithUniqueNumber assigns a fresh order number per attempt and retries
// only on order number collisions.
func (s *service) insertWithUniqueNumber(ctx context.Context, repo *Repository, order *models.Order) error {
	var lastErr error
	for attempt := 1; attempt <= maxOrderNumberTries; attempt++ {
		order.ID = uuid.Nil
		order.OrderNumber = s.number(s.now())
		err := repo.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !isNumberCollision(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		lastErr = err
		s.metrics.IncNumberCollision()
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_number": order.OrderNumber,
				"attempt":      attempt,
			})
			s.logg.Warn(logCtx, "order number collision, retrying")
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate a unique order number")
}

func (s *service) applyAddresses(ctx context.Context, repo *Repository, input PlaceOrderInput, order *models.Order) error {
	shippingID, shippingSnap, err := s.resolveAddress(ctx, repo, input.Owner, input.ShippingAddress, "shipping")
	if err != nil {
		return err
	}
	billingID, billingSnap, err := s.resolveAddress(ctx, repo, input.Owner, input.BillingAddress, "billing")
	if err != nil {
		return err
	}
	order.ShippingAddressID = shippingID
	order.GuestShippingAddress = shippingSnap
	order.BillingAddressID = billingID
	order.GuestBillingAddress = billingSnap
	return nil
}

func (s *service) resolveAddress(ctx context.Context, repo *Repository, owner cart.Owner, in *AddressInput, kind string) (*uuid.UUID, *types.Address, error) {
	if in == nil {
		return nil, nil, nil
	}
	if in.ID != nil && *in.ID != uuid.Nil && !owner.IsGuest() {
		address, err := repo.FindUserAddress(ctx, *owner.UserID, *in.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, kind+" address not found").
					WithDetails(map[string]any{"address_id": *in.ID})
			}
			return nil, nil, pkgerrors.Wrapf(pkgerrors.CodeDependency, err, "load %s address", kind)
		}
		id := address.ID
		return &id, nil, nil
	}
	if in.Snapshot == nil {
		if owner.IsGuest() && in.ID != nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "guests must send the full "+kind+" address")
		}
		return nil, nil, nil
	}
	snap := in.Snapshot.Normalize()
	if snap.FirstName == "" || snap.LastName == "" || snap.Address1 == "" || snap.City == "" || snap.State == "" || snap.PostalCode == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, kind+" address is incomplete")
	}
	return nil, &snap, nil
}

func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) (*OrderList, error) {
	if err := input.Owner.Validate(); err != nil {
		return nil, err
	}
	var filter ListFilter
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, err := enums.ParseOrderStatus(strings.ToUpper(raw))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter.Status = &status
	}
	params := pagination.Params{Page: input.Page, Limit: input.Limit}.Normalize(pagination.DefaultLimit)

	rows, total, err := s.repo.ListForOwner(ctx, input.Owner, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := &OrderList{
		Orders:     make([]OrderDTO, 0, len(rows)),
		Pagination: pagination.NewPageInfo(params, total),
	}
	for _, row := range rows {
		out.Orders = append(out.Orders, toOrderDTO(row))
	}
	return out, nil
}

func (s *service) GetOrder(ctx context.Context, owner cart.Owner, orderID uuid.UUID) (*OrderDTO, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindForOwner(ctx, owner, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := toOrderDTO(*order)
	return &dto, nil
}

func actorFor(owner cart.Owner) *outbox.ActorRef {
	if owner.IsGuest() {
		return &outbox.ActorRef{GuestSessionID: owner.GuestSessionID, Role: cart.OwnerKindGuest}
	}
	id := *owner.UserID
	return &outbox.ActorRef{UserID: &id, Role: cart.OwnerKindUser}
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
