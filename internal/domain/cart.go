package domain

import "time"

// CartItem is one row of a principal's cart. Unique per
// (principal_id, product_id); upserting replaces the quantity.
type CartItem struct {
	PrincipalID string    `json:"principal_id"`
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CartLine is a cart item joined with the live product for display
type CartLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url,omitempty"`
	Quantity  int     `json:"quantity"`
}

// Subtotal returns quantity times the current display price
func (l *CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}
