package repositories

import (
	"context"

	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access. Every mutation keeps
// TotalPrice equal to the sum of the order's product prices.
type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Order, error)
	// Create persists newProducts, attaches them and the existing productIDs to the
	// order, and stores the order. order is reloaded with products and owner.
	Create(ctx context.Context, order *models.Order, newProducts []models.Product, productIDs []string) error
	ReplaceProducts(ctx context.Context, orderID string, productIDs []string) (*models.Order, error)
	AddProduct(ctx context.Context, orderID, productID string) (*models.Order, error)
	RemoveProduct(ctx context.Context, orderID, productID string) (*models.Order, error)
	Delete(ctx context.Context, id string) error
}
