package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/dto"
)

func TestCatalogService_CreateProduct(t *testing.T) {
	productRepo := newMockProductRepository()
	svc := NewCatalogService(productRepo)

	product, err := svc.CreateProduct(context.Background(), &dto.CreateProductRequest{
		Name:       "Widget",
		Price:      4.25,
		StockCount: 10,
	})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}

	if product.ID == "" {
		t.Error("CreateProduct() ID is empty")
	}
	if _, ok := productRepo.products[product.ID]; !ok {
		t.Error("CreateProduct() did not persist the product")
	}
}

func TestCatalogService_UpdateProduct(t *testing.T) {
	newPrice := 7.5
	badPrice := -1.0
	newStock := 3
	newName := "Deluxe Widget"

	t.Run("partial update keeps absent fields", func(t *testing.T) {
		productRepo := newMockProductRepository()
		svc := NewCatalogService(productRepo)
		productRepo.products["p1"] = &domain.Product{ID: "p1", Name: "Widget", Price: 4.25, StockCount: 10}

		product, err := svc.UpdateProduct(context.Background(), "p1", &dto.UpdateProductRequest{
			Price: &newPrice,
		})
		if err != nil {
			t.Fatalf("UpdateProduct() error = %v", err)
		}
		if product.Price != newPrice {
			t.Errorf("Price = %v, want %v", product.Price, newPrice)
		}
		if product.Name != "Widget" {
			t.Errorf("Name = %v, want Widget (unchanged)", product.Name)
		}
		if product.StockCount != 10 {
			t.Errorf("StockCount = %v, want 10 (unchanged)", product.StockCount)
		}
	})

	t.Run("updates several fields at once", func(t *testing.T) {
		productRepo := newMockProductRepository()
		svc := NewCatalogService(productRepo)
		productRepo.products["p1"] = &domain.Product{ID: "p1", Name: "Widget", Price: 4.25, StockCount: 10}

		product, err := svc.UpdateProduct(context.Background(), "p1", &dto.UpdateProductRequest{
			Name:       &newName,
			StockCount: &newStock,
		})
		if err != nil {
			t.Fatalf("UpdateProduct() error = %v", err)
		}
		if product.Name != newName || product.StockCount != newStock {
			t.Errorf("product = %+v, want name %q stock %d", product, newName, newStock)
		}
	})

	t.Run("rejects non-positive price", func(t *testing.T) {
		productRepo := newMockProductRepository()
		svc := NewCatalogService(productRepo)
		productRepo.products["p1"] = &domain.Product{ID: "p1", Name: "Widget", Price: 4.25}

		_, err := svc.UpdateProduct(context.Background(), "p1", &dto.UpdateProductRequest{Price: &badPrice})
		if !errors.Is(err, domain.ErrInvalidPrice) {
			t.Errorf("UpdateProduct() error = %v, want %v", err, domain.ErrInvalidPrice)
		}
		if productRepo.products["p1"].Price != 4.25 {
			t.Error("rejected update still changed the price")
		}
	})

	t.Run("price update does not resurrect concurrently sold stock", func(t *testing.T) {
		productRepo := newMockProductRepository()
		svc := NewCatalogService(productRepo)
		productRepo.products["p1"] = &domain.Product{ID: "p1", Name: "Widget", Price: 4.25, StockCount: 10}

		// A checkout commits between the read and the write, selling 4 units
		productRepo.afterGet = func() {
			productRepo.afterGet = nil
			productRepo.products["p1"].StockCount = 6
		}

		product, err := svc.UpdateProduct(context.Background(), "p1", &dto.UpdateProductRequest{
			Price: &newPrice,
		})
		if err != nil {
			t.Fatalf("UpdateProduct() error = %v", err)
		}
		if product.Price != newPrice {
			t.Errorf("Price = %v, want %v", product.Price, newPrice)
		}
		if productRepo.products["p1"].StockCount != 6 {
			t.Errorf("StockCount = %d, want 6 (sold units must stay sold)", productRepo.products["p1"].StockCount)
		}
	})

	t.Run("missing product", func(t *testing.T) {
		svc := NewCatalogService(newMockProductRepository())

		_, err := svc.UpdateProduct(context.Background(), "ghost", &dto.UpdateProductRequest{Price: &newPrice})
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("UpdateProduct() error = %v, want %v", err, domain.ErrProductNotFound)
		}
	})
}

func TestCatalogService_ListProducts(t *testing.T) {
	productRepo := newMockProductRepository()
	svc := NewCatalogService(productRepo)
	productRepo.products["p1"] = &domain.Product{ID: "p1", Name: "Widget"}

	// Pagination bounds are clamped rather than rejected
	products, err := svc.ListProducts(context.Background(), -5, -10)
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	if len(products) != 1 {
		t.Errorf("ListProducts() = %d products, want 1", len(products))
	}
}
