package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/dto"
	"github.com/prohmpiriya/storefront/internal/middleware"
	"github.com/prohmpiriya/storefront/internal/service"
)

// mockOrderService is a func-field mock of service.OrderService
type mockOrderService struct {
	checkoutFunc   func(ctx context.Context, principalID string, req *dto.CheckoutRequest) (*domain.Order, error)
	getOrderFunc   func(ctx context.Context, principalID string, role domain.Role, orderID string) (*domain.Order, error)
	listOrdersFunc func(ctx context.Context, principalID string, limit, offset int) ([]*domain.Order, error)
	listAllFunc    func(ctx context.Context, limit, offset int) ([]*domain.Order, error)
	setStatusFunc  func(ctx context.Context, orderID string, req *dto.UpdateOrderStatusRequest) (*domain.Order, error)
}

func (m *mockOrderService) Checkout(ctx context.Context, principalID string, req *dto.CheckoutRequest) (*domain.Order, error) {
	return m.checkoutFunc(ctx, principalID, req)
}

func (m *mockOrderService) GetOrder(ctx context.Context, principalID string, role domain.Role, orderID string) (*domain.Order, error) {
	return m.getOrderFunc(ctx, principalID, role, orderID)
}

func (m *mockOrderService) ListOrders(ctx context.Context, principalID string, limit, offset int) ([]*domain.Order, error) {
	return m.listOrdersFunc(ctx, principalID, limit, offset)
}

func (m *mockOrderService) ListAllOrders(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	return m.listAllFunc(ctx, limit, offset)
}

func (m *mockOrderService) SetStatus(ctx context.Context, orderID string, req *dto.UpdateOrderStatusRequest) (*domain.Order, error) {
	return m.setStatusFunc(ctx, orderID, req)
}

// asPrincipal stands in for the auth middleware in handler tests
func asPrincipal(id string, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxPrincipalID, id)
		c.Set(middleware.CtxRole, role)
		c.Next()
	}
}

func newOrderTestRouter(svc service.OrderService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewOrderHandler(svc)

	router := gin.New()
	orders := router.Group("/orders", asPrincipal("alice", domain.RoleClient))
	{
		orders.POST("/checkout", h.Checkout)
		orders.GET("/me", h.ListMine)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.PATCH("/:id/status", h.UpdateStatus)
	}
	return router
}

func checkoutBody() []byte {
	payload, _ := json.Marshal(gin.H{
		"shipping_address": "1 Main St",
		"payment_ref":      "pay-1",
	})
	return payload
}

func TestOrderHandler_Checkout(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockOrderService{
			checkoutFunc: func(ctx context.Context, principalID string, req *dto.CheckoutRequest) (*domain.Order, error) {
				return &domain.Order{ID: "o1", PrincipalID: principalID, Status: domain.OrderStatusPaid, Total: 19}, nil
			},
		}
		router := newOrderTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/orders/checkout", bytes.NewReader(checkoutBody()))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusCreated, w.Body.String())
		}
		var order domain.Order
		if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
			t.Fatalf("failed to decode order: %v", err)
		}
		if order.ID != "o1" || order.PrincipalID != "alice" {
			t.Errorf("order = %+v, want o1 owned by alice", order)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		router := newOrderTestRouter(&mockOrderService{})

		req := httptest.NewRequest(http.MethodPost, "/orders/checkout", bytes.NewReader([]byte(`{}`)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		svc := &mockOrderService{
			checkoutFunc: func(ctx context.Context, principalID string, req *dto.CheckoutRequest) (*domain.Order, error) {
				return nil, domain.ErrEmptyCart
			},
		}
		router := newOrderTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/orders/checkout", bytes.NewReader(checkoutBody()))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("insufficient stock names the product", func(t *testing.T) {
		svc := &mockOrderService{
			checkoutFunc: func(ctx context.Context, principalID string, req *dto.CheckoutRequest) (*domain.Order, error) {
				return nil, &domain.InsufficientStockError{
					ProductID:   "p1",
					ProductName: "Widget",
					Requested:   5,
					Available:   1,
				}
			},
		}
		router := newOrderTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/orders/checkout", bytes.NewReader(checkoutBody()))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode error body: %v", err)
		}
		if body["message"] == "" || !bytes.Contains(w.Body.Bytes(), []byte("Widget")) {
			t.Errorf("error body = %s, want message naming Widget", w.Body.String())
		}
	})
}

func TestOrderHandler_Get(t *testing.T) {
	t.Run("denied reads as not found", func(t *testing.T) {
		svc := &mockOrderService{
			getOrderFunc: func(ctx context.Context, principalID string, role domain.Role, orderID string) (*domain.Order, error) {
				return nil, service.ErrOrderAccessDenied
			},
		}
		router := newOrderTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/orders/o1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		svc := &mockOrderService{
			getOrderFunc: func(ctx context.Context, principalID string, role domain.Role, orderID string) (*domain.Order, error) {
				return nil, domain.ErrOrderNotFound
			},
		}
		router := newOrderTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/orders/o1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestOrderHandler_List(t *testing.T) {
	t.Run("own orders", func(t *testing.T) {
		svc := &mockOrderService{
			listOrdersFunc: func(ctx context.Context, principalID string, limit, offset int) ([]*domain.Order, error) {
				if principalID != "alice" {
					t.Errorf("principalID = %q, want alice", principalID)
				}
				return []*domain.Order{{ID: "o1", PrincipalID: "alice"}}, nil
			},
		}
		router := newOrderTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/orders/me", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var resp dto.OrderListResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Count != 1 {
			t.Errorf("count = %d, want 1", resp.Count)
		}
	})

	t.Run("empty list is not null", func(t *testing.T) {
		svc := &mockOrderService{
			listOrdersFunc: func(ctx context.Context, principalID string, limit, offset int) ([]*domain.Order, error) {
				return nil, nil
			},
		}
		router := newOrderTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/orders/me", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if bytes.Contains(w.Body.Bytes(), []byte(`"orders":null`)) {
			t.Errorf("body = %s, want empty array", w.Body.String())
		}
	})

	t.Run("all orders", func(t *testing.T) {
		svc := &mockOrderService{
			listAllFunc: func(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
				return []*domain.Order{
					{ID: "o1", PrincipalID: "alice"},
					{ID: "o2", PrincipalID: "bob"},
				}, nil
			},
		}
		router := newOrderTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var resp dto.OrderListResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Count != 2 {
			t.Errorf("count = %d, want 2", resp.Count)
		}
	})
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	statusBody := func(status string) []byte {
		payload, _ := json.Marshal(gin.H{"status": status})
		return payload
	}

	t.Run("illegal transition conflicts", func(t *testing.T) {
		svc := &mockOrderService{
			setStatusFunc: func(ctx context.Context, orderID string, req *dto.UpdateOrderStatusRequest) (*domain.Order, error) {
				return nil, &domain.StatusTransitionError{From: domain.OrderStatusPending, To: domain.OrderStatusShipped}
			},
		}
		router := newOrderTestRouter(svc)

		req := httptest.NewRequest(http.MethodPatch, "/orders/o1/status", bytes.NewReader(statusBody("shipped")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
		}
	})

	t.Run("unknown status is a bad request", func(t *testing.T) {
		svc := &mockOrderService{
			setStatusFunc: func(ctx context.Context, orderID string, req *dto.UpdateOrderStatusRequest) (*domain.Order, error) {
				return nil, domain.ErrInvalidStatus
			},
		}
		router := newOrderTestRouter(svc)

		req := httptest.NewRequest(http.MethodPatch, "/orders/o1/status", bytes.NewReader(statusBody("teleported")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("concurrent transition conflicts", func(t *testing.T) {
		svc := &mockOrderService{
			setStatusFunc: func(ctx context.Context, orderID string, req *dto.UpdateOrderStatusRequest) (*domain.Order, error) {
				return nil, domain.ErrStatusConflict
			},
		}
		router := newOrderTestRouter(svc)

		req := httptest.NewRequest(http.MethodPatch, "/orders/o1/status", bytes.NewReader(statusBody("paid")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
		}
	})
}
