package dto

// CheckoutRequest runs the checkout transaction for the caller's cart.
// The payment reference is treated as already confirmed by an external
// gateway; no authorization step happens here.
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	PaymentRef      string `json:"payment_ref" binding:"required"`
}

// UpdateOrderStatusRequest advances an order's status (operator only)
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderListResponse wraps a page of orders
type OrderListResponse struct {
	Orders interface{} `json:"orders"`
	Count  int         `json:"count"`
}
