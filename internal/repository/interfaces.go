package repository

import (
	"context"
	"time"

	"github.com/prohmpiriya/storefront/internal/domain"
)

// PrincipalRepository defines the interface for principal data access
type PrincipalRepository interface {
	// Create creates a new principal
	Create(ctx context.Context, p *domain.Principal) error
	// GetByID retrieves a principal by ID
	GetByID(ctx context.Context, id string) (*domain.Principal, error)
	// GetByEmail retrieves a principal by email
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
	// ExistsByEmail checks if a principal exists with the given email
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// SetBanned flips the banned flag
	SetBanned(ctx context.Context, id string, banned bool) error
	// SetActive flips the active flag
	SetActive(ctx context.Context, id string, active bool) error
}

// RefreshTokenRepository defines the interface for refresh token data access.
// Tokens are stored as SHA-256 hashes, never in the clear.
type RefreshTokenRepository interface {
	// Create persists a new refresh token record
	Create(ctx context.Context, t *domain.RefreshToken) error
	// GetByHash retrieves a token record by its hash
	GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	// Revoke marks a token revoked, recording its replacement if any
	Revoke(ctx context.Context, id string, replacedBy string) error
	// RevokeAllForPrincipal revokes every live token for a principal
	RevokeAllForPrincipal(ctx context.Context, principalID string) error
	// DeleteExpired removes tokens that expired before the cutoff
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// ProductRepository defines the interface for catalog data access
type ProductRepository interface {
	// Create creates a new product
	Create(ctx context.Context, p *domain.Product) error
	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// List retrieves products ordered by creation time
	List(ctx context.Context, limit, offset int) ([]*domain.Product, error)
	// Update updates a product's catalog fields. Stock is written only
	// through SetStock so checkout decrements are never overwritten
	// with a stale count.
	Update(ctx context.Context, p *domain.Product) error
	// SetStock sets the absolute stock level for a product
	SetStock(ctx context.Context, id string, stock int) error
}

// CartRepository defines the interface for cart data access
type CartRepository interface {
	// Upsert sets the quantity for a product in a principal's cart
	Upsert(ctx context.Context, item *domain.CartItem) error
	// Remove deletes one line from a principal's cart
	Remove(ctx context.Context, principalID, productID string) error
	// GetLines retrieves the cart joined with live product data
	GetLines(ctx context.Context, principalID string) ([]domain.CartLine, error)
	// Clear removes every line from a principal's cart
	Clear(ctx context.Context, principalID string) error
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// Checkout converts the principal's cart into an order atomically.
	// It locks the product rows, verifies stock, decrements it, writes
	// the order with its items and initial tracking points, and clears
	// the cart, all in one transaction.
	Checkout(ctx context.Context, principalID string, order *domain.Order) (*domain.Order, error)
	// GetByID retrieves an order with its items and tracking points
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// ListByPrincipal retrieves a principal's orders, newest first
	ListByPrincipal(ctx context.Context, principalID string, limit, offset int) ([]*domain.Order, error)
	// ListAll retrieves orders across all principals, newest first
	ListAll(ctx context.Context, limit, offset int) ([]*domain.Order, error)
	// UpdateStatus moves an order from one status to another. The update
	// is conditional on the current status; a concurrent change surfaces
	// as domain.ErrStatusConflict.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
	// AdvanceTracking moves tracking forward by one leg for
	// orders whose shipment is in flight
	AdvanceTracking(ctx context.Context, batchSize int) (int64, error)
}
