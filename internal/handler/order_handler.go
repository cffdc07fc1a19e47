package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/dto"
	"github.com/prohmpiriya/storefront/internal/middleware"
	"github.com/prohmpiriya/storefront/internal/service"
	"github.com/prohmpiriya/storefront/pkg/response"
)

// OrderHandler handles order HTTP requests
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Checkout converts the caller's cart into an order
// POST /orders/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.Checkout(c.Request.Context(), middleware.PrincipalID(c), &req)
	if err != nil {
		var stockErr *domain.InsufficientStockError
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			response.BadRequest(c, "Cart is empty")
		case errors.As(err, &stockErr):
			response.Conflict(c, stockErr.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, order)
}

// ListMine returns the caller's orders, newest first
// GET /orders/me
func (h *OrderHandler) ListMine(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.orderService.ListOrders(c.Request.Context(), middleware.PrincipalID(c), limit, offset)
	if err != nil {
		response.InternalError(c)
		return
	}

	if orders == nil {
		orders = []*domain.Order{}
	}
	response.OK(c, dto.OrderListResponse{Orders: orders, Count: len(orders)})
}

// List returns orders across all principals, newest first
// GET /orders (operator)
func (h *OrderHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.orderService.ListAllOrders(c.Request.Context(), limit, offset)
	if err != nil {
		response.InternalError(c)
		return
	}

	if orders == nil {
		orders = []*domain.Order{}
	}
	response.OK(c, dto.OrderListResponse{Orders: orders, Count: len(orders)})
}

// Get returns one order with items and tracking
// GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderService.GetOrder(
		c.Request.Context(),
		middleware.PrincipalID(c),
		middleware.PrincipalRole(c),
		c.Param("id"),
	)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			response.NotFound(c, "Order not found")
		case errors.Is(err, service.ErrOrderAccessDenied):
			// 404, not 403: do not leak that the order exists
			response.NotFound(c, "Order not found")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, order)
}

// UpdateStatus transitions an order's status
// PATCH /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.SetStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		var transitionErr *domain.StatusTransitionError
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			response.NotFound(c, "Order not found")
		case errors.Is(err, domain.ErrInvalidStatus):
			response.BadRequest(c, err.Error())
		case errors.As(err, &transitionErr):
			response.Conflict(c, transitionErr.Error())
		case errors.Is(err, domain.ErrStatusConflict):
			response.Conflict(c, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, order)
}
