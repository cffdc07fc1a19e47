package dto

import "github.com/prohmpiriya/storefront/internal/domain"

// UpsertCartItemRequest sets the quantity for one product in the cart.
// Quantity at or below zero removes the line.
type UpsertCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// CartResponse is the caller's cart joined with live product data
type CartResponse struct {
	Items []domain.CartLine `json:"items"`
	Total float64           `json:"total"`
}
