package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/models"
)

const orderProductsTable = "order_products"

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves every order with its products.
func (r *GORMOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Preload("Products").Order("created_at").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves an order with its products and owner.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Products").Preload("User").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByUserID retrieves the orders owned by userID.
func (r *GORMOrderRepository) GetByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Products").Where("user_id = ?", userID).Order("created_at").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// Create creates the order and its product associations in one transaction.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order, newProducts []models.Product, productIDs []string) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range newProducts {
			if newProducts[i].ID == "" {
				newProducts[i].ID = uuid.New().String()
			}
			if err := tx.Create(&newProducts[i]).Error; err != nil {
				return fmt.Errorf("failed to create product %q: %w", newProducts[i].Name, err)
			}
		}

		existing, err := findProducts(tx, productIDs)
		if err != nil {
			return err
		}

		order.Products = append(append([]models.Product{}, newProducts...), existing...)
		order.RecalculateTotal()

		// Products already exist; only the join rows are written.
		if err := tx.Omit("User", "Products.*").Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	created, err := r.GetByID(ctx, order.ID)
	if err != nil {
		return err
	}
	*order = *created
	return nil
}

// ReplaceProducts replaces the order's product set and recomputes its total.
func (r *GORMOrderRepository) ReplaceProducts(ctx context.Context, orderID string, productIDs []string) (*models.Order, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := findOrder(tx, orderID)
		if err != nil {
			return err
		}
		products, err := findProducts(tx, productIDs)
		if err != nil {
			return err
		}

		association := tx.Model(order).Association("Products")
		if len(products) == 0 {
			err = association.Clear()
		} else {
			err = association.Replace(products)
		}
		if err != nil {
			return fmt.Errorf("failed to replace products of order %s: %w", orderID, err)
		}
		return recalculateOrderTotal(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

// AddProduct adds productID to the order's product set. Adding a member is a no-op.
func (r *GORMOrderRepository) AddProduct(ctx context.Context, orderID, productID string) (*models.Order, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := findOrder(tx, orderID)
		if err != nil {
			return err
		}
		products, err := findProducts(tx, []string{productID})
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Table(orderProductsTable).Where("order_id = ? AND product_id = ?", orderID, productID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check membership of product %s in order %s: %w", productID, orderID, err)
		}
		if count == 0 {
			if err := tx.Model(order).Association("Products").Append(products); err != nil {
				return fmt.Errorf("failed to add product %s to order %s: %w", productID, orderID, err)
			}
		}
		return recalculateOrderTotal(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

// RemoveProduct removes productID from the order's product set. Removing a
// non-member is a no-op.
func (r *GORMOrderRepository) RemoveProduct(ctx context.Context, orderID, productID string) (*models.Order, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := findOrder(tx, orderID)
		if err != nil {
			return err
		}
		products, err := findProducts(tx, []string{productID})
		if err != nil {
			return err
		}
		if err := tx.Model(order).Association("Products").Delete(products); err != nil {
			return fmt.Errorf("failed to remove product %s from order %s: %w", productID, orderID, err)
		}
		return recalculateOrderTotal(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

// Delete deletes an order and its product associations.
func (r *GORMOrderRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := findOrder(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(order).Association("Products").Clear(); err != nil {
			return fmt.Errorf("failed to detach products from order %s: %w", id, err)
		}
		if err := tx.Delete(order).Error; err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
}

func findOrder(tx *gorm.DB, id string) (*models.Order, error) {
	var order models.Order
	if err := tx.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// findProducts loads the distinct products named by ids and fails with ErrNotFound
// if any of them is missing.
func findProducts(tx *gorm.DB, ids []string) ([]models.Product, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, nil
	}

	var products []models.Product
	if err := tx.Where("id IN ?", unique).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) == len(unique) {
		return products, nil
	}

	found := make(map[string]struct{}, len(products))
	for _, p := range products {
		found[p.ID] = struct{}{}
	}
	for _, id := range unique {
		if _, ok := found[id]; !ok {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
	}
	return products, nil
}

func recalculateOrderTotal(tx *gorm.DB, order *models.Order) error {
	var products []models.Product
	if err := tx.Model(order).Association("Products").Find(&products); err != nil {
		return fmt.Errorf("failed to load products of order %s: %w", order.ID, err)
	}
	order.Products = products
	order.RecalculateTotal()
	if err := tx.Model(order).Update("total_price", order.TotalPrice).Error; err != nil {
		return fmt.Errorf("failed to update total of order %s: %w", order.ID, err)
	}
	return nil
}
