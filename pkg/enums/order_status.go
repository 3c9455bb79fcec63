package enums

// OrderStatus is the fulfilment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped,
	OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded,
}

func (s OrderStatus) String() string { return string(s) }
func (s OrderStatus) IsValid() bool  { return member(s, orderStatuses) }

// ParseOrderStatus is case sensitive; callers upper-case query input first.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	return parse("order status", raw, orderStatuses)
}
