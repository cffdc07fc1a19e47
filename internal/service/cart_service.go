package service

import (
	"context"
	"time"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/dto"
	"github.com/prohmpiriya/storefront/internal/repository"
)

// CartService defines the interface for cart operations
type CartService interface {
	// UpsertItem sets the quantity for a product in the caller's cart.
	// Quantity at or below zero removes the line.
	UpsertItem(ctx context.Context, principalID string, req *dto.UpsertCartItemRequest) error
	// RemoveItem removes one line from the caller's cart
	RemoveItem(ctx context.Context, principalID, productID string) error
	// Clear removes every line from the caller's cart
	Clear(ctx context.Context, principalID string) error
	// GetCart retrieves the cart joined with live product data
	GetCart(ctx context.Context, principalID string) (*dto.CartResponse, error)
}

// cartService implements CartService
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// UpsertItem sets the quantity for a product in the caller's cart.
// Stock is not checked here; only checkout reserves stock.
func (s *cartService) UpsertItem(ctx context.Context, principalID string, req *dto.UpsertCartItemRequest) error {
	if req.Quantity <= 0 {
		return s.cartRepo.Remove(ctx, principalID, req.ProductID)
	}

	// Reject lines for products that do not exist
	if _, err := s.productRepo.GetByID(ctx, req.ProductID); err != nil {
		return err
	}

	return s.cartRepo.Upsert(ctx, &domain.CartItem{
		PrincipalID: principalID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		UpdatedAt:   time.Now(),
	})
}

// RemoveItem removes one line from the caller's cart
func (s *cartService) RemoveItem(ctx context.Context, principalID, productID string) error {
	return s.cartRepo.Remove(ctx, principalID, productID)
}

// Clear removes every line from the caller's cart
func (s *cartService) Clear(ctx context.Context, principalID string) error {
	return s.cartRepo.Clear(ctx, principalID)
}

// GetCart retrieves the cart joined with live product data
func (s *cartService) GetCart(ctx context.Context, principalID string) (*dto.CartResponse, error) {
	lines, err := s.cartRepo.GetLines(ctx, principalID)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, line := range lines {
		total += line.Subtotal()
	}

	if lines == nil {
		lines = []domain.CartLine{}
	}

	return &dto.CartResponse{
		Items: lines,
		Total: total,
	}, nil
}
