package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prohmpiriya/storefront/internal/domain"
)

// PostgresCartRepository implements CartRepository using PostgreSQL
type PostgresCartRepository struct {
	db *pgxpool.Pool
}

// NewPostgresCartRepository creates a new PostgresCartRepository
func NewPostgresCartRepository(db *pgxpool.Pool) *PostgresCartRepository {
	return &PostgresCartRepository{db: db}
}

// Upsert sets the quantity for a product in a principal's cart.
// Re-adding an existing product overwrites the quantity rather than
// accumulating it.
func (r *PostgresCartRepository) Upsert(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (principal_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (principal_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(ctx, query,
		item.PrincipalID,
		item.ProductID,
		item.Quantity,
		item.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return nil
}

// Remove deletes one line from a principal's cart. Removing an absent
// line is a no-op.
func (r *PostgresCartRepository) Remove(ctx context.Context, principalID, productID string) error {
	query := `DELETE FROM cart_items WHERE principal_id = $1 AND product_id = $2`

	_, err := r.db.Exec(ctx, query, principalID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	return nil
}

// GetLines retrieves the cart joined with live product data so prices
// reflect the catalog, not the moment the item was added
func (r *PostgresCartRepository) GetLines(ctx context.Context, principalID string) ([]domain.CartLine, error) {
	query := `
		SELECT c.product_id, p.name, p.price, p.image_url, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.principal_id = $1
		ORDER BY c.updated_at
	`

	rows, err := r.db.Query(ctx, query, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		err := rows.Scan(
			&line.ProductID,
			&line.Name,
			&line.Price,
			&line.ImageURL,
			&line.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

// Clear removes every line from a principal's cart
func (r *PostgresCartRepository) Clear(ctx context.Context, principalID string) error {
	query := `DELETE FROM cart_items WHERE principal_id = $1`

	_, err := r.db.Exec(ctx, query, principalID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

// Ensure PostgresCartRepository implements CartRepository
var _ CartRepository = (*PostgresCartRepository)(nil)
