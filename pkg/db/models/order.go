package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/types"
)

// Order is the header of a placed order. Totals are stored in cents.
type Order struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber          string              `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	UserID               *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	GuestSessionID       *string             `gorm:"column:guest_session_id"`
	CustomerEmail        string              `gorm:"column:customer_email;not null"`
	CustomerPhone        *string             `gorm:"column:customer_phone"`
	Status               enums.OrderStatus   `gorm:"column:status;not null"`
	PaymentStatus        enums.PaymentStatus `gorm:"column:payment_status;not null"`
	SubtotalCents        int64               `gorm:"column:subtotal_cents;not null"`
	TaxCents             int64               `gorm:"column:tax_cents;not null"`
	ShippingCents        int64               `gorm:"column:shipping_cents;not null"`
	DiscountCents        int64               `gorm:"column:discount_cents;not null"`
	TotalCents           int64               `gorm:"column:total_cents;not null"`
	ShippingAddressID    *uuid.UUID          `gorm:"column:shipping_address_id;type:uuid"`
	BillingAddressID     *uuid.UUID          `gorm:"column:billing_address_id;type:uuid"`
	GuestShippingAddress *types.Address      `gorm:"column:guest_shipping_address;type:jsonb"`
	GuestBillingAddress  *types.Address      `gorm:"column:guest_billing_address;type:jsonb"`
	PaymentMethod        enums.PaymentMethod `gorm:"column:payment_method;not null"`
	CustomerNotes        *string             `gorm:"column:customer_notes"`
	Items                []OrderItem         `gorm:"foreignKey:OrderID"`
	Payments             []Payment           `gorm:"foreignKey:OrderID"`
	ShippingAddress      *Address            `gorm:"foreignKey:ShippingAddressID"`
	BillingAddress       *Address            `gorm:"foreignKey:BillingAddressID"`
	User                 *User               `gorm:"foreignKey:UserID"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem freezes product data at order time and is never updated.
type OrderItem struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID       uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID       *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	ProductName     string     `gorm:"column:product_name;not null"`
	ProductSKU      *string    `gorm:"column:product_sku"`
	VariantName     *string    `gorm:"column:variant_name"`
	Quantity        int        `gorm:"column:quantity;not null"`
	UnitPriceCents  int64      `gorm:"column:unit_price_cents;not null"`
	TotalPriceCents int64      `gorm:"column:total_price_cents;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
