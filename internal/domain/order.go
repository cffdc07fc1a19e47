package domain

import "time"

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// String returns the string representation of the status
func (s OrderStatus) String() string {
	return string(s)
}

// Valid reports whether the status is one of the known values
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// rank orders the forward progression pending -> paid -> shipped -> delivered
func (s OrderStatus) rank() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusPaid:
		return 1
	case OrderStatusShipped:
		return 2
	case OrderStatusDelivered:
		return 3
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next is a legal
// transition: one step forward, or to cancelled from any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return next.rank() == s.rank()+1
}

// Order is the persisted result of a checkout. Total is snapshotted at
// creation and never recomputed; only status may change afterwards.
type Order struct {
	ID              string          `json:"id"`
	PrincipalID     string          `json:"principal_id"`
	Status          OrderStatus     `json:"status"`
	Total           float64         `json:"total"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentRef      string          `json:"payment_ref"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items,omitempty"`
	Tracking        []TrackingPoint `json:"tracking,omitempty"`
}

// OrderItem snapshots product name and price at checkout time so later
// catalog edits never alter historical orders.
type OrderItem struct {
	OrderID   string  `json:"order_id"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// TrackingStatus represents the state of one tracking leg
type TrackingStatus string

const (
	TrackingPending    TrackingStatus = "pending"
	TrackingInProgress TrackingStatus = "in_progress"
	TrackingCompleted  TrackingStatus = "completed"
)

// TrackingPoint is one leg of an order's simulated shipment progression.
// Display-only; advancing legs never touches the order status.
type TrackingPoint struct {
	OrderID    string         `json:"order_id"`
	Seq        int            `json:"seq"`
	Label      string         `json:"label"`
	Status     TrackingStatus `json:"status"`
	OccurredAt *time.Time     `json:"occurred_at,omitempty"`
}

// DefaultTrackingLegs are the legs seeded for every new order
var DefaultTrackingLegs = []string{
	"Order received",
	"Warehouse processing",
	"Carrier pickup",
	"In transit",
	"Out for delivery",
}
