package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a product owned by ownerID.
func (s *ProductService) CreateProduct(ctx context.Context, ownerID string, input ProductInput) (*models.Product, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}

	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		UserID:      ownerID,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("product created",
		zap.String("product_id", product.ID),
		zap.String("user_id", ownerID),
	)
	return product, nil
}

// UpdateProduct overwrites the product's fields when callerID owns it.
func (s *ProductService) UpdateProduct(ctx context.Context, callerID, id string, input ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(product, callerID); err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return product, nil
}

// DeleteProduct deletes the product when callerID owns it. Orders holding the
// product lose it and have their totals recomputed.
func (s *ProductService) DeleteProduct(ctx context.Context, callerID, id string) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(product, callerID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	logger.FromContext(ctx).Info("product deleted", zap.String("product_id", id))
	return nil
}
