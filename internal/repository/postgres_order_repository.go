package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prohmpiriya/storefront/internal/domain"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *pgxpool.Pool
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// Checkout converts the principal's cart into an order in a single
// transaction. Cart and product rows are both locked, in product_id
// order so two concurrent checkouts touching the same products cannot
// deadlock: locking the cart rows makes a second checkout of the same
// cart re-read them after the first commits and see them gone, and the
// conditional stock decrement keeps stock from ever going negative
// even if the lock is somehow bypassed.
func (r *PostgresOrderRepository) Checkout(ctx context.Context, principalID string, order *domain.Order) (*domain.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin checkout transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockQuery := `
		SELECT c.product_id, p.name, p.price, p.stock_count, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.principal_id = $1
		ORDER BY c.product_id
		FOR UPDATE OF c, p
	`

	rows, err := tx.Query(ctx, lockQuery, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart products: %w", err)
	}

	type lockedLine struct {
		productID string
		name      string
		price     float64
		stock     int
		quantity  int
	}

	var lines []lockedLine
	for rows.Next() {
		var l lockedLine
		if err := rows.Scan(&l.productID, &l.name, &l.price, &l.stock, &l.quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	var total float64
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		if l.stock < l.quantity {
			return nil, &domain.InsufficientStockError{
				ProductID:   l.productID,
				ProductName: l.name,
				Requested:   l.quantity,
				Available:   l.stock,
			}
		}
		total += l.price * float64(l.quantity)
		items = append(items, domain.OrderItem{
			OrderID:   order.ID,
			ProductID: l.productID,
			Name:      l.name,
			Price:     l.price,
			Quantity:  l.quantity,
		})
	}

	decrementQuery := `
		UPDATE products SET
			stock_count = stock_count - $2,
			updated_at = $3
		WHERE id = $1 AND stock_count >= $2
	`

	now := time.Now()
	for _, l := range lines {
		tag, err := tx.Exec(ctx, decrementQuery, l.productID, l.quantity, now)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, &domain.InsufficientStockError{
				ProductID:   l.productID,
				ProductName: l.name,
				Requested:   l.quantity,
				Available:   l.stock,
			}
		}
	}

	// Checkout accepts a pre-confirmed payment reference, so the order
	// lands directly in paid.
	order.Status = domain.OrderStatusPaid
	order.Total = total
	order.Items = items
	order.CreatedAt = now
	order.UpdatedAt = now

	insertOrder := `
		INSERT INTO orders (
			id, principal_id, status, total, shipping_address, payment_ref,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.Exec(ctx, insertOrder,
		order.ID,
		order.PrincipalID,
		order.Status.String(),
		order.Total,
		order.ShippingAddress,
		order.PaymentRef,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	insertItem := `
		INSERT INTO order_items (order_id, product_id, name, price, quantity)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, item := range items {
		_, err := tx.Exec(ctx, insertItem,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.Price,
			item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}

	insertPoint := `
		INSERT INTO order_tracking_points (order_id, seq, label, status, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	tracking := make([]domain.TrackingPoint, 0, len(domain.DefaultTrackingLegs))
	for i, label := range domain.DefaultTrackingLegs {
		point := domain.TrackingPoint{
			OrderID: order.ID,
			Seq:     i + 1,
			Label:   label,
			Status:  domain.TrackingPending,
		}
		if i == 0 {
			point.Status = domain.TrackingCompleted
			point.OccurredAt = &now
		}
		_, err := tx.Exec(ctx, insertPoint,
			point.OrderID,
			point.Seq,
			point.Label,
			point.Status,
			point.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracking point: %w", err)
		}
		tracking = append(tracking, point)
	}
	order.Tracking = tracking

	clearCart := `DELETE FROM cart_items WHERE principal_id = $1`
	if _, err := tx.Exec(ctx, clearCart, principalID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit checkout transaction: %w", err)
	}

	return order, nil
}

// GetByID retrieves an order with its items and tracking points
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, principal_id, status, total, shipping_address, payment_ref,
			created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	order := &domain.Order{}
	var status string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.PrincipalID,
		&status,
		&order.Total,
		&order.ShippingAddress,
		&order.PaymentRef,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	items, err := r.getItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	tracking, err := r.getTracking(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Tracking = tracking

	return order, nil
}

// ListByPrincipal retrieves a principal's orders, newest first. Items
// and tracking points are not loaded; GetByID fills those in.
func (r *PostgresOrderRepository) ListByPrincipal(ctx context.Context, principalID string, limit, offset int) ([]*domain.Order, error) {
	query := `
		SELECT id, principal_id, status, total, shipping_address, payment_ref,
			created_at, updated_at
		FROM orders
		WHERE principal_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, principalID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order := &domain.Order{}
		var status string
		err := rows.Scan(
			&order.ID,
			&order.PrincipalID,
			&status,
			&order.Total,
			&order.ShippingAddress,
			&order.PaymentRef,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// ListAll retrieves orders across all principals, newest first. Items
// and tracking points are not loaded.
func (r *PostgresOrderRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	query := `
		SELECT id, principal_id, status, total, shipping_address, payment_ref,
			created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list all orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order := &domain.Order{}
		var status string
		err := rows.Scan(
			&order.ID,
			&order.PrincipalID,
			&status,
			&order.Total,
			&order.ShippingAddress,
			&order.PaymentRef,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus moves an order from one status to another. The WHERE
// clause pins the current status, so whichever of two racing updates
// commits second sees zero rows and reports the conflict.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	query := `
		UPDATE orders SET
			status = $3,
			updated_at = $4
		WHERE id = $1 AND status = $2
	`

	tag, err := r.db.Exec(ctx, query, id, from.String(), to.String(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)", id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check order existence: %w", err)
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrStatusConflict
	}

	return nil
}

// AdvanceTracking moves tracking forward by one leg for up to batchSize
// orders: the in-progress leg is completed and the next pending leg
// starts. Display-only, never touches orders.status.
func (r *PostgresOrderRepository) AdvanceTracking(ctx context.Context, batchSize int) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tracking transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	pickQuery := `
		SELECT o.id
		FROM orders o
		WHERE o.status <> $3
			AND EXISTS (
				SELECT 1 FROM order_tracking_points t
				WHERE t.order_id = o.id AND t.status IN ($1, $2)
			)
		ORDER BY o.id
		LIMIT $4
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, pickQuery,
		string(domain.TrackingPending),
		string(domain.TrackingInProgress),
		domain.OrderStatusCancelled.String(),
		batchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to pick orders for tracking: %w", err)
	}

	var orderIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan order id: %w", err)
		}
		orderIDs = append(orderIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating order ids: %w", err)
	}

	if len(orderIDs) == 0 {
		return 0, nil
	}

	now := time.Now()

	completeQuery := `
		UPDATE order_tracking_points SET
			status = $2,
			occurred_at = $3
		WHERE order_id = ANY($1) AND status = $4
	`

	if _, err := tx.Exec(ctx, completeQuery,
		orderIDs,
		string(domain.TrackingCompleted),
		now,
		string(domain.TrackingInProgress),
	); err != nil {
		return 0, fmt.Errorf("failed to complete tracking legs: %w", err)
	}

	startQuery := `
		WITH next AS (
			SELECT order_id, MIN(seq) AS seq
			FROM order_tracking_points
			WHERE order_id = ANY($1) AND status = $2
			GROUP BY order_id
		)
		UPDATE order_tracking_points t SET
			status = $3,
			occurred_at = $4
		FROM next
		WHERE t.order_id = next.order_id AND t.seq = next.seq
	`

	if _, err := tx.Exec(ctx, startQuery,
		orderIDs,
		string(domain.TrackingPending),
		string(domain.TrackingInProgress),
		now,
	); err != nil {
		return 0, fmt.Errorf("failed to start tracking legs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit tracking transaction: %w", err)
	}

	return int64(len(orderIDs)), nil
}

func (r *PostgresOrderRepository) getItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	query := `
		SELECT order_id, product_id, name, price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(&item.OrderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func (r *PostgresOrderRepository) getTracking(ctx context.Context, orderID string) ([]domain.TrackingPoint, error) {
	query := `
		SELECT order_id, seq, label, status, occurred_at
		FROM order_tracking_points
		WHERE order_id = $1
		ORDER BY seq
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracking points: %w", err)
	}
	defer rows.Close()

	var points []domain.TrackingPoint
	for rows.Next() {
		var point domain.TrackingPoint
		var status string
		err := rows.Scan(&point.OrderID, &point.Seq, &point.Label, &status, &point.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracking point: %w", err)
		}
		point.Status = domain.TrackingStatus(status)
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracking points: %w", err)
	}

	return points, nil
}

// Ensure PostgresOrderRepository implements OrderRepository
var _ OrderRepository = (*PostgresOrderRepository)(nil)
