package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/dto"
	"github.com/prohmpiriya/storefront/internal/service"
	"github.com/prohmpiriya/storefront/pkg/response"
)

// ProductHandler handles catalog HTTP requests
type ProductHandler struct {
	catalogService service.CatalogService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalogService service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

// List returns a page of products
// GET /products
func (h *ProductHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	products, err := h.catalogService.ListProducts(c.Request.Context(), limit, offset)
	if err != nil {
		response.InternalError(c)
		return
	}

	if products == nil {
		products = []*domain.Product{}
	}
	response.OK(c, gin.H{"products": products, "count": len(products)})
}

// Get returns a single product
// GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.catalogService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.NotFound(c, "Product not found")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, product)
}

// Create creates a product
// POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.Created(c, product)
}

// Update applies a partial update to a product
// PATCH /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			response.NotFound(c, "Product not found")
		case errors.Is(err, domain.ErrInvalidPrice), errors.Is(err, domain.ErrInvalidQuantity):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, product)
}
