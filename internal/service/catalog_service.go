package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/dto"
	"github.com/prohmpiriya/storefront/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CatalogService defines the interface for product catalog operations
type CatalogService interface {
	// CreateProduct creates a new catalog entry
	CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error)
	// GetProduct retrieves a product by ID
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// ListProducts retrieves a page of products
	ListProducts(ctx context.Context, limit, offset int) ([]*domain.Product, error)
	// UpdateProduct applies a partial update to a product
	UpdateProduct(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error)
}

// catalogService implements CatalogService
type catalogService struct {
	productRepo repository.ProductRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogService{productRepo: productRepo}
}

// CreateProduct creates a new catalog entry
func (s *catalogService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error) {
	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		StockCount:  req.StockCount,
		ImageURL:    req.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// GetProduct retrieves a product by ID
func (s *catalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// ListProducts retrieves a page of products
func (s *catalogService) ListProducts(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.productRepo.List(ctx, limit, offset)
}

// UpdateProduct applies a partial update to a product. Absent fields
// keep their current values. Stock goes through a targeted write so a
// checkout committing between the read and the write below cannot be
// overwritten with a stale count.
func (s *catalogService) UpdateProduct(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Price != nil && *req.Price <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	if req.StockCount != nil && *req.StockCount < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	changed := false
	if req.Name != nil {
		product.Name = *req.Name
		changed = true
	}
	if req.Description != nil {
		product.Description = *req.Description
		changed = true
	}
	if req.Price != nil {
		product.Price = *req.Price
		changed = true
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
		changed = true
	}

	if changed {
		if err := s.productRepo.Update(ctx, product); err != nil {
			return nil, err
		}
	}

	if req.StockCount != nil {
		if err := s.productRepo.SetStock(ctx, id, *req.StockCount); err != nil {
			return nil, err
		}
		product.StockCount = *req.StockCount
	}

	return product, nil
}
