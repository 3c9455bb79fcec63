package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/money"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pagination"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/types"
)

// PlacedOrder is the confirmation returned after a successful placement.
type PlacedOrder struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"orderNumber"`
	TotalAmount   string              `json:"totalAmount"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
}

type OrderItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id"`
	ProductName string     `json:"product_name"`
	ProductSKU  *string    `json:"product_sku"`
	VariantName *string    `json:"variant_name"`
	Quantity    int        `json:"quantity"`
	UnitPrice   string     `json:"unit_price"`
	TotalPrice  string     `json:"total_price"`
}

type PaymentDTO struct {
	ID            uuid.UUID           `json:"id"`
	Amount        string              `json:"amount"`
	Method        enums.PaymentMethod `json:"method"`
	Status        enums.PaymentStatus `json:"status"`
	TransactionID *string             `json:"transaction_id"`
	CreatedAt     time.Time           `json:"created_at"`
}

type CustomerDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// OrderDTO is the list and detail rendering of an order.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	CustomerEmail   string              `json:"customer_email"`
	CustomerPhone   *string             `json:"customer_phone"`
	CustomerNotes   *string             `json:"customer_notes"`
	Subtotal        string              `json:"subtotal"`
	TaxAmount       string              `json:"tax_amount"`
	ShippingAmount  string              `json:"shipping_amount"`
	DiscountAmount  string              `json:"discount_amount"`
	TotalAmount     string              `json:"total_amount"`
	ShippingAddress *types.Address      `json:"shipping_address"`
	BillingAddress  *types.Address      `json:"billing_address"`
	Items           []OrderItemDTO      `json:"items"`
	Payments        []PaymentDTO        `json:"payments"`
	Customer        *CustomerDTO        `json:"customer,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type OrderList struct {
	Orders     []OrderDTO          `json:"orders"`
	Pagination pagination.PageInfo `json:"pagination"`
}

func toPlacedOrder(order *models.Order) *PlacedOrder {
	return &PlacedOrder{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		TotalAmount:   money.Format(order.TotalCents),
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
	}
}

func toOrderDTO(order models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		PaymentStatus:   order.PaymentStatus,
		PaymentMethod:   order.PaymentMethod,
		CustomerEmail:   order.CustomerEmail,
		CustomerPhone:   order.CustomerPhone,
		CustomerNotes:   order.CustomerNotes,
		Subtotal:        money.Format(order.SubtotalCents),
		TaxAmount:       money.Format(order.TaxCents),
		ShippingAmount:  money.Format(order.ShippingCents),
		DiscountAmount:  money.Format(order.DiscountCents),
		TotalAmount:     money.Format(order.TotalCents),
		ShippingAddress: addressOf(order.ShippingAddress, order.GuestShippingAddress),
		BillingAddress:  addressOf(order.BillingAddress, order.GuestBillingAddress),
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		Payments:        make([]PaymentDTO, 0, len(order.Payments)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			VariantName: item.VariantName,
			Quantity:    item.Quantity,
			UnitPrice:   money.Format(item.UnitPriceCents),
			TotalPrice:  money.Format(item.TotalPriceCents),
		})
	}
	for _, payment := range order.Payments {
		dto.Payments = append(dto.Payments, PaymentDTO{
			ID:            payment.ID,
			Amount:        money.Format(payment.AmountCents),
			Method:        payment.Method,
			Status:        payment.Status,
			TransactionID: payment.TransactionID,
			CreatedAt:     payment.CreatedAt,
		})
	}
	if order.User != nil {
		dto.Customer = &CustomerDTO{
			ID:        order.User.ID,
			Email:     order.User.Email,
			FirstName: order.User.FirstName,
			LastName:  order.User.LastName,
		}
	}
	return dto
}

func addressOf(saved *models.Address, snapshot *types.Address) *types.Address {
	if saved != nil {
		out := saved.Snapshot()
		return &out
	}
	return snapshot
}
