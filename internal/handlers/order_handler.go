package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"storefront/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the order routes behind authRequired.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	orderRoutes := router.Group("/orders", authRequired)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/user/:userId", h.HandleGetOrdersByUser)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Put("/:id", h.HandleUpdateOrder)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)
	orderRoutes.Post("/:orderId/products/:productId", h.HandleAddProduct)
	orderRoutes.Delete("/:orderId/products/:productId", h.HandleRemoveProduct)
}

// CartProductRequest references an existing product by ID or describes a new one.
// A new product needs a price.
type CartProductRequest struct {
	ID          string           `json:"id"`
	Name        string           `json:"name" validate:"required_without=ID,max=100"`
	Description string           `json:"description" validate:"max=500"`
	Price       *decimal.Decimal `json:"price" validate:"omitnil,gte=0"`
}

func (r CartProductRequest) price() *decimal.Decimal { return r.Price }

// CreateOrderRequest is the request body for creating an order.
type CreateOrderRequest struct {
	CartProducts []CartProductRequest `json:"cartProducts" validate:"required,min=1,dive"`
}

// UpdateOrderRequest is the request body for replacing an order's products. An
// empty list clears the order.
type UpdateOrderRequest struct {
	ProductIDs []string `json:"productIds" validate:"required,dive,required"`
}

// HandleGetOrders retrieves all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrdersByUser retrieves the orders owned by a user.
func (h *OrderHandler) HandleGetOrdersByUser(c *fiber.Ctx) error {
	orders, err := h.service.GetOrdersByUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandleCreateOrder creates an order for the caller from the cart.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	items := make([]services.CartItem, 0, len(req.CartProducts))
	for _, p := range req.CartProducts {
		item := services.CartItem{
			ProductID:   p.ID,
			Name:        p.Name,
			Description: p.Description,
		}
		if p.Price != nil {
			item.Price = *p.Price
		}
		items = append(items, item)
	}

	order, err := h.service.CreateOrder(c.UserContext(), callerID(c), items)
	if err != nil {
		return respondError(c, err, "Could not create order")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleUpdateOrder replaces the products of an order the caller owns.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	var req UpdateOrderRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.service.UpdateOrder(c.UserContext(), callerID(c), c.Params("id"), req.ProductIDs)
	if err != nil {
		return respondError(c, err, "Could not update order")
	}
	return c.JSON(order)
}

// HandleDeleteOrder deletes an order the caller owns.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	if err := h.service.DeleteOrder(c.UserContext(), callerID(c), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete order")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAddProduct adds a product to an order the caller owns.
func (h *OrderHandler) HandleAddProduct(c *fiber.Ctx) error {
	order, err := h.service.AddProductToOrder(c.UserContext(), callerID(c), c.Params("orderId"), c.Params("productId"))
	if err != nil {
		return respondError(c, err, "Could not add product to order")
	}
	return c.JSON(order)
}

// HandleRemoveProduct removes a product from an order the caller owns.
func (h *OrderHandler) HandleRemoveProduct(c *fiber.Ctx) error {
	order, err := h.service.RemoveProductFromOrder(c.UserContext(), callerID(c), c.Params("orderId"), c.Params("productId"))
	if err != nil {
		return respondError(c, err, "Could not remove product from order")
	}
	return c.JSON(order)
}
