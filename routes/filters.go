package routes

import (
	"cafeorder/db"
	"cafeorder/models"

	"github.com/gofiber/fiber/v2"
)

func listOrdersByType(c *fiber.Ctx, orderType int) error {
	var orders []models.Order

	if err := db.DB.
		Preload("OrderItems.Product.Establishment").
		Preload("OrderItems.Product").
		Preload("OrderItems").
		Preload("DeliveryAddress").
		Where("order_type = ?", orderType).
		Find(&orders).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get orders",
		})
	}

	return c.JSON(orders)
}

func getDeliveryOrders(c *fiber.Ctx) error {
	return listOrdersByType(c, models.OrderTypeDelivery)
}

func getInPlaceOrders(c *fiber.Ctx) error {
	return listOrdersByType(c, models.OrderTypeService)
}

func getPickUpOrders(c *fiber.Ctx) error {
	return listOrdersByType(c, models.OrderTypePickup)
}

// Orders of an establishment: its products' order items, collected into
// their distinct owning orders.
func getEstablishmentOrders(c *fiber.Ctx) error {
	id := c.Params("id")

	var establishment models.Establishment
	if err := db.DB.First(&establishment, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Establishment not found",
		})
	}

	var orders []models.Order
	if err := db.DB.
		Distinct("orders.*").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.establishment_id = ?", establishment.ID).
		Preload("OrderItems.Product.Establishment").
		Preload("OrderItems.Product").
		Preload("OrderItems").
		Preload("DeliveryAddress").
		Find(&orders).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get orders",
		})
	}

	return c.JSON(orders)
}

// POST /api/create-order: create an order and its first item in one call.
func createOrderWithItem(c *fiber.Ctx) error {
	type createOrderRequest struct {
		ProductID uint `json:"product_id"`
		Amount    int  `json:"amount" validate:"required,min=1"`
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(validationErrors(err))
	}

	var product models.Product
	if err := db.DB.First(&product, req.ProductID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	tx := db.DB.Begin()

	order := models.Order{OrderType: models.OrderTypeService}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create order",
		})
	}

	item := models.OrderItem{OrderID: order.ID, ProductID: product.ID, Amount: req.Amount}
	if err := tx.Create(&item).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create order item",
		})
	}

	if _, err := recomputeTotal(tx, order.ID); err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to recompute order total",
		})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to commit transaction",
		})
	}

	notifyOrder("order.created", order.ID)

	var full models.Order
	if err := loadOrder(db.DB, order.ID, &full); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Order created but failed to load full details",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(full)
}
