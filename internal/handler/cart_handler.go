package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/dto"
	"github.com/prohmpiriya/storefront/internal/middleware"
	"github.com/prohmpiriya/storefront/internal/service"
	"github.com/prohmpiriya/storefront/pkg/response"
)

// CartHandler handles cart HTTP requests
type CartHandler struct {
	cartService service.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// Get returns the caller's cart
// GET /cart
func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.cartService.GetCart(c.Request.Context(), middleware.PrincipalID(c))
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, cart)
}

// UpsertItem sets the quantity for one product in the caller's cart
// POST /cart
func (h *CartHandler) UpsertItem(c *gin.Context) {
	var req dto.UpsertCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.cartService.UpsertItem(c.Request.Context(), middleware.PrincipalID(c), &req); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.NotFound(c, "Product not found")
			return
		}
		response.InternalError(c)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveItem deletes one line from the caller's cart
// DELETE /cart/:product_id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	if err := h.cartService.RemoveItem(c.Request.Context(), middleware.PrincipalID(c), c.Param("product_id")); err != nil {
		response.InternalError(c)
		return
	}

	c.Status(http.StatusNoContent)
}

// Clear empties the caller's cart
// DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context(), middleware.PrincipalID(c)); err != nil {
		response.InternalError(c)
		return
	}

	c.Status(http.StatusNoContent)
}
