package payloads

import (
	"github.com/google/uuid"
)

// OrderCreatedEvent is published once the order transaction commits.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID  `json:"orderId"`
	OrderNumber    string     `json:"orderNumber"`
	UserID         *uuid.UUID `json:"userId,omitempty"`
	GuestSessionID *string    `json:"guestSessionId,omitempty"`
	CustomerEmail  string     `json:"customerEmail"`
	Status         string     `json:"status"`
	PaymentMethod  string     `json:"paymentMethod"`
	SubtotalAmount string     `json:"subtotalAmount"`
	TaxAmount      string     `json:"taxAmount"`
	ShippingAmount string     `json:"shippingAmount"`
	TotalAmount    string     `json:"totalAmount"`
	ItemCount      int        `json:"itemCount"`
}

// ProductChangedEvent tells downstream caches and search indexes to refresh.
type ProductChangedEvent struct {
	ProductID uuid.UUID `json:"productId"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"isActive"`
	Created   bool      `json:"created"`
}

type ProductDeletedEvent struct {
	ProductID uuid.UUID `json:"productId"`
	Slug      string    `json:"slug"`
	// Soft is true when the product was deactivated because orders reference it.
	Soft bool `json:"soft"`
}
