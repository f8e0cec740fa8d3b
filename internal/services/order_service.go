package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CartItem is one entry of an order's cart: either an existing product referenced by
// ProductID, or a new product described by Name, Description and Price.
type CartItem struct {
	ProductID   string
	Name        string
	Description string
	Price       decimal.Decimal
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	publisher EventPublisher
	now       func() time.Time
}

// NewOrderService creates a new OrderService. publisher may be nil, in which case
// no events are published.
func NewOrderService(orderRepo repositories.OrderRepository, publisher EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		publisher: publisher,
		now:       time.Now,
	}
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.orderRepo.GetAll(ctx)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// GetOrdersByUser retrieves the orders owned by userID.
func (s *OrderService) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUserID(ctx, userID)
}

// CreateOrder creates an order owned by ownerID from the cart. Cart items without a
// ProductID are created as new products owned by ownerID. The total is the sum of the
// stored prices of the resulting product set.
func (s *OrderService) CreateOrder(ctx context.Context, ownerID string, items []CartItem) (*models.Order, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var (
		newProducts []models.Product
		productIDs  []string
	)
	for _, item := range items {
		if item.ProductID != "" {
			productIDs = append(productIDs, item.ProductID)
			continue
		}
		newProducts = append(newProducts, models.Product{
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
			UserID:      ownerID,
		})
	}

	order := &models.Order{UserID: ownerID}
	if err := s.orderRepo.Create(ctx, order, newProducts, productIDs); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	logger.FromContext(ctx).Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", ownerID),
		zap.String("total_price", order.TotalPrice.StringFixed(2)),
	)
	s.publish(ctx, EventOrderCreated, order)
	return order, nil
}

// UpdateOrder replaces the order's products with productIDs when callerID owns it.
// An empty list clears the order.
func (s *OrderService) UpdateOrder(ctx context.Context, callerID, id string, productIDs []string) (*models.Order, error) {
	if _, err := s.ownedOrder(ctx, callerID, id); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.ReplaceProducts(ctx, id, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	s.publish(ctx, EventOrderUpdated, order)
	return order, nil
}

// DeleteOrder deletes the order when callerID owns it.
func (s *OrderService) DeleteOrder(ctx context.Context, callerID, id string) error {
	order, err := s.ownedOrder(ctx, callerID, id)
	if err != nil {
		return err
	}

	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	s.publish(ctx, EventOrderDeleted, order)
	return nil
}

// AddProductToOrder adds productID to the order when callerID owns it. Adding a
// product the order already holds changes nothing.
func (s *OrderService) AddProductToOrder(ctx context.Context, callerID, orderID, productID string) (*models.Order, error) {
	if _, err := s.ownedOrder(ctx, callerID, orderID); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.AddProduct(ctx, orderID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to add product to order %s: %w", orderID, err)
	}
	s.publish(ctx, EventOrderProductAdded, order)
	return order, nil
}

// RemoveProductFromOrder removes productID from the order when callerID owns it.
func (s *OrderService) RemoveProductFromOrder(ctx context.Context, callerID, orderID, productID string) (*models.Order, error) {
	if _, err := s.ownedOrder(ctx, callerID, orderID); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.RemoveProduct(ctx, orderID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove product from order %s: %w", orderID, err)
	}
	s.publish(ctx, EventOrderProductRemoved, order)
	return order, nil
}

// ownedOrder loads the order and checks callerID owns it. A missing order is
// reported before ownership.
func (s *OrderService) ownedOrder(ctx context.Context, callerID, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(order, callerID); err != nil {
		return nil, err
	}
	return order, nil
}

// publish sends an order event. Failures are logged and never returned.
func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	log := logger.FromContext(ctx).With(zap.String("event", eventType), zap.String("order_id", order.ID))
	if s.publisher == nil {
		log.Debug("event publisher not configured, skipping order event")
		return
	}

	body, err := json.Marshal(newOrderEvent(eventType, order, s.now()))
	if err != nil {
		log.Error("failed to marshal order event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(OrderEventsExchange, eventType, body); err != nil {
		log.Warn("failed to publish order event", zap.Error(err))
		return
	}
	log.Debug("order event published")
}
