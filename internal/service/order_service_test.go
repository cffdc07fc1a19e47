package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/dto"
	"github.com/prohmpiriya/storefront/internal/metrics"
)

// mockOrderRepository mimics the checkout transaction against in-memory
// state: stock checks and decrements happen under one lock, the way the
// database serializes them under row locks.
type mockOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	carts  map[string][]domain.CartLine // principal -> lines
	stock  map[string]int               // product -> stock
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders: make(map[string]*domain.Order),
		carts:  make(map[string][]domain.CartLine),
		stock:  make(map[string]int),
	}
}

func (r *mockOrderRepository) Checkout(ctx context.Context, principalID string, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.carts[principalID]
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	for _, l := range lines {
		if r.stock[l.ProductID] < l.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID:   l.ProductID,
				ProductName: l.Name,
				Requested:   l.Quantity,
				Available:   r.stock[l.ProductID],
			}
		}
	}

	var total float64
	for _, l := range lines {
		r.stock[l.ProductID] -= l.Quantity
		total += l.Subtotal()
		order.Items = append(order.Items, domain.OrderItem{
			OrderID:   order.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}

	order.Status = domain.OrderStatusPaid
	order.Total = total
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	r.orders[order.ID] = order
	delete(r.carts, principalID)
	return order, nil
}

func (r *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (r *mockOrderRepository) ListByPrincipal(ctx context.Context, principalID string, limit, offset int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []*domain.Order
	for _, o := range r.orders {
		if o.PrincipalID == principalID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (r *mockOrderRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []*domain.Order
	for _, o := range r.orders {
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *mockOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if order.Status != from {
		return domain.ErrStatusConflict
	}
	order.Status = to
	return nil
}

func (r *mockOrderRepository) AdvanceTracking(ctx context.Context, batchSize int) (int64, error) {
	return 0, nil
}

// capturingPublisher records published events
type capturingPublisher struct {
	mu      sync.Mutex
	created []string
	changes []string
}

func (p *capturingPublisher) OrderCreated(ctx context.Context, order *domain.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, order.ID)
}

func (p *capturingPublisher) OrderStatusChanged(ctx context.Context, orderID string, from, to domain.OrderStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, orderID+":"+from.String()+"->"+to.String())
}

func newOrderFixture(t *testing.T) (OrderService, *mockOrderRepository, *capturingPublisher) {
	t.Helper()
	m, err := metrics.New()
	if err != nil {
		t.Fatalf("metrics.New() error = %v", err)
	}
	repo := newMockOrderRepository()
	pub := &capturingPublisher{}
	svc := NewOrderService(repo, pub, m, &OrderServiceConfig{CheckoutTimeout: time.Second})
	return svc, repo, pub
}

func TestOrderService_Checkout(t *testing.T) {
	req := &dto.CheckoutRequest{
		ShippingAddress: "1 Main St",
		PaymentRef:      "pay-123",
	}

	t.Run("successful checkout", func(t *testing.T) {
		svc, repo, pub := newOrderFixture(t)
		repo.stock["p1"] = 10
		repo.carts["alice"] = []domain.CartLine{
			{ProductID: "p1", Name: "Widget", Price: 9.5, Quantity: 2},
		}

		order, err := svc.Checkout(context.Background(), "alice", req)
		if err != nil {
			t.Fatalf("Checkout() error = %v", err)
		}

		if order.Status != domain.OrderStatusPaid {
			t.Errorf("Checkout() status = %v, want %v", order.Status, domain.OrderStatusPaid)
		}
		if order.Total != 19.0 {
			t.Errorf("Checkout() total = %v, want 19.0", order.Total)
		}
		if repo.stock["p1"] != 8 {
			t.Errorf("stock after checkout = %d, want 8", repo.stock["p1"])
		}
		if len(repo.carts["alice"]) != 0 {
			t.Error("cart not cleared after checkout")
		}
		if len(pub.created) != 1 || pub.created[0] != order.ID {
			t.Errorf("published created events = %v, want [%s]", pub.created, order.ID)
		}
	})

	t.Run("empty cart leaves no side effects", func(t *testing.T) {
		svc, repo, pub := newOrderFixture(t)
		repo.stock["p1"] = 10

		_, err := svc.Checkout(context.Background(), "alice", req)
		if !errors.Is(err, domain.ErrEmptyCart) {
			t.Fatalf("Checkout() error = %v, want %v", err, domain.ErrEmptyCart)
		}
		if len(repo.orders) != 0 {
			t.Error("empty cart checkout created an order")
		}
		if len(pub.created) != 0 {
			t.Error("empty cart checkout published an event")
		}
	})

	t.Run("insufficient stock leaves no side effects", func(t *testing.T) {
		svc, repo, pub := newOrderFixture(t)
		repo.stock["p1"] = 1
		repo.carts["alice"] = []domain.CartLine{
			{ProductID: "p1", Name: "Widget", Price: 9.5, Quantity: 5},
		}

		_, err := svc.Checkout(context.Background(), "alice", req)
		if !errors.Is(err, domain.ErrInsufficientStock) {
			t.Fatalf("Checkout() error = %v, want insufficient stock", err)
		}

		var stockErr *domain.InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Fatalf("Checkout() error does not carry product detail: %v", err)
		}
		if stockErr.ProductName != "Widget" || stockErr.Available != 1 {
			t.Errorf("stock error = %+v, want Widget with 1 available", stockErr)
		}

		if repo.stock["p1"] != 1 {
			t.Errorf("stock after failed checkout = %d, want 1", repo.stock["p1"])
		}
		if len(repo.orders) != 0 {
			t.Error("failed checkout created an order")
		}
		if len(repo.carts["alice"]) != 1 {
			t.Error("failed checkout cleared the cart")
		}
		if len(pub.created) != 0 {
			t.Error("failed checkout published an event")
		}
	})

	t.Run("concurrent checkouts never oversell", func(t *testing.T) {
		svc, repo, _ := newOrderFixture(t)
		const stock = 5
		const buyers = 20
		repo.stock["p1"] = stock
		for i := 0; i < buyers; i++ {
			repo.carts[principalName(i)] = []domain.CartLine{
				{ProductID: "p1", Name: "Widget", Price: 1, Quantity: 1},
			}
		}

		var wg sync.WaitGroup
		results := make(chan error, buyers)
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func(who string) {
				defer wg.Done()
				_, err := svc.Checkout(context.Background(), who, req)
				results <- err
			}(principalName(i))
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
			} else if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("Checkout() unexpected error = %v", err)
			}
		}

		if succeeded != stock {
			t.Errorf("successful checkouts = %d, want %d", succeeded, stock)
		}
		if repo.stock["p1"] != 0 {
			t.Errorf("remaining stock = %d, want 0", repo.stock["p1"])
		}
	})
}

func principalName(i int) string {
	return "buyer-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}

func TestOrderService_GetOrder(t *testing.T) {
	svc, repo, _ := newOrderFixture(t)
	repo.orders["o1"] = &domain.Order{ID: "o1", PrincipalID: "alice", Status: domain.OrderStatusPending}

	t.Run("owner can read", func(t *testing.T) {
		order, err := svc.GetOrder(context.Background(), "alice", domain.RoleClient, "o1")
		if err != nil {
			t.Fatalf("GetOrder() error = %v", err)
		}
		if order.ID != "o1" {
			t.Errorf("GetOrder() ID = %v, want o1", order.ID)
		}
	})

	t.Run("stranger is denied", func(t *testing.T) {
		_, err := svc.GetOrder(context.Background(), "bob", domain.RoleClient, "o1")
		if !errors.Is(err, ErrOrderAccessDenied) {
			t.Errorf("GetOrder() error = %v, want %v", err, ErrOrderAccessDenied)
		}
	})

	t.Run("operator can read anyone's order", func(t *testing.T) {
		if _, err := svc.GetOrder(context.Background(), "bob", domain.RoleOperator, "o1"); err != nil {
			t.Errorf("GetOrder() error = %v", err)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := svc.GetOrder(context.Background(), "alice", domain.RoleClient, "nope")
		if !errors.Is(err, domain.ErrOrderNotFound) {
			t.Errorf("GetOrder() error = %v, want %v", err, domain.ErrOrderNotFound)
		}
	})
}

func TestOrderService_SetStatus(t *testing.T) {
	t.Run("legal transition publishes event", func(t *testing.T) {
		svc, repo, pub := newOrderFixture(t)
		repo.orders["o1"] = &domain.Order{ID: "o1", PrincipalID: "alice", Status: domain.OrderStatusPending}

		order, err := svc.SetStatus(context.Background(), "o1", &dto.UpdateOrderStatusRequest{Status: "paid"})
		if err != nil {
			t.Fatalf("SetStatus() error = %v", err)
		}
		if order.Status != domain.OrderStatusPaid {
			t.Errorf("SetStatus() status = %v, want paid", order.Status)
		}
		if len(pub.changes) != 1 || pub.changes[0] != "o1:pending->paid" {
			t.Errorf("published changes = %v, want [o1:pending->paid]", pub.changes)
		}
	})

	t.Run("skipping a step is rejected", func(t *testing.T) {
		svc, repo, pub := newOrderFixture(t)
		repo.orders["o1"] = &domain.Order{ID: "o1", Status: domain.OrderStatusPending}

		_, err := svc.SetStatus(context.Background(), "o1", &dto.UpdateOrderStatusRequest{Status: "shipped"})
		var transitionErr *domain.StatusTransitionError
		if !errors.As(err, &transitionErr) {
			t.Fatalf("SetStatus() error = %v, want StatusTransitionError", err)
		}
		if repo.orders["o1"].Status != domain.OrderStatusPending {
			t.Error("rejected transition still changed the status")
		}
		if len(pub.changes) != 0 {
			t.Error("rejected transition published an event")
		}
	})

	t.Run("terminal states are frozen", func(t *testing.T) {
		svc, repo, _ := newOrderFixture(t)
		repo.orders["o1"] = &domain.Order{ID: "o1", Status: domain.OrderStatusDelivered}

		_, err := svc.SetStatus(context.Background(), "o1", &dto.UpdateOrderStatusRequest{Status: "cancelled"})
		var transitionErr *domain.StatusTransitionError
		if !errors.As(err, &transitionErr) {
			t.Errorf("SetStatus() error = %v, want StatusTransitionError", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, repo, _ := newOrderFixture(t)
		repo.orders["o1"] = &domain.Order{ID: "o1", Status: domain.OrderStatusPending}

		_, err := svc.SetStatus(context.Background(), "o1", &dto.UpdateOrderStatusRequest{Status: "teleported"})
		if !errors.Is(err, domain.ErrInvalidStatus) {
			t.Errorf("SetStatus() error = %v, want %v", err, domain.ErrInvalidStatus)
		}
	})

	t.Run("cancel from any non-terminal state", func(t *testing.T) {
		svc, repo, _ := newOrderFixture(t)
		repo.orders["o1"] = &domain.Order{ID: "o1", Status: domain.OrderStatusShipped}

		order, err := svc.SetStatus(context.Background(), "o1", &dto.UpdateOrderStatusRequest{Status: "cancelled"})
		if err != nil {
			t.Fatalf("SetStatus() error = %v", err)
		}
		if order.Status != domain.OrderStatusCancelled {
			t.Errorf("SetStatus() status = %v, want cancelled", order.Status)
		}
	})
}
