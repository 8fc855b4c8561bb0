package routes

import (
	"time"

	"cafeorder/db"
	"cafeorder/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// loadOrder fetches an order with everything the pricing function and the
// response envelope need.
func loadOrder(tx *gorm.DB, id interface{}, order *models.Order) error {
	return tx.
		Preload("OrderItems.Product.Establishment").
		Preload("OrderItems.Product").
		Preload("OrderItems").
		Preload("DeliveryAddress").
		First(order, "id = ?", id).Error
}

// recomputeTotal re-derives the cached total from the current item set and
// persists it. Callers run it inside the same transaction as the item
// mutation so the stored total always matches the committed items.
func recomputeTotal(tx *gorm.DB, orderID uint) (int, error) {
	var order models.Order
	if err := tx.
		Preload("OrderItems.Product.Establishment").
		Preload("OrderItems.Product").
		Preload("OrderItems").
		First(&order, orderID).Error; err != nil {
		return 0, err
	}

	total := models.OrderTotal(&order)
	if total != order.Total {
		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Update("total", total).Error; err != nil {
			return 0, err
		}
	}
	return total, nil
}

// touchOrder bumps modified_at after a mutation.
func touchOrder(tx *gorm.DB, orderID uint) error {
	return tx.Model(&models.Order{}).Where("id = ?", orderID).Update("modified_at", time.Now()).Error
}

func getAllOrders(c *fiber.Ctx) error {
	var orders []models.Order

	if err := db.DB.
		Preload("OrderItems.Product.Establishment").
		Preload("OrderItems.Product").
		Preload("OrderItems").
		Preload("DeliveryAddress").
		Find(&orders).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get orders",
		})
	}

	// Listing refreshes every cached total, so product price edits made since
	// the last mutation show up here
	for i := range orders {
		total := models.OrderTotal(&orders[i])
		if total != orders[i].Total {
			if err := db.DB.Model(&models.Order{}).Where("id = ?", orders[i].ID).Update("total", total).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to refresh order total",
				})
			}
			orders[i].Total = total
		}
	}

	return c.JSON(orders)
}

func createOrder(c *fiber.Ctx) error {
	type createOrderRequest struct {
		OrderType int `json:"order_type"`
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	if req.OrderType == 0 {
		req.OrderType = models.OrderTypeService
	}
	if !models.ValidOrderType(req.OrderType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"order_type": "must be between 1 and 3",
		})
	}

	order := models.Order{OrderType: req.OrderType}
	if err := db.DB.Create(&order).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create order",
		})
	}

	notifyOrder("order.created", order.ID)
	return c.Status(fiber.StatusCreated).JSON(order)
}

func getOrder(c *fiber.Ctx) error {
	id := c.Params("id")

	var order models.Order
	if err := loadOrder(db.DB, id, &order); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order not found",
		})
	}

	total := models.OrderTotal(&order)
	if total != order.Total {
		if err := db.DB.Model(&models.Order{}).Where("id = ?", order.ID).Update("total", total).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to refresh order total",
			})
		}
		order.Total = total
	}

	return c.JSON(order)
}

// PUT replaces the order type; the field is required.
func updateOrder(c *fiber.Ctx) error {
	return setOrderType(c, true)
}

// PATCH updates the order type when provided.
func patchOrder(c *fiber.Ctx) error {
	return setOrderType(c, false)
}

func setOrderType(c *fiber.Ctx, required bool) error {
	id := c.Params("id")

	var order models.Order
	if err := db.DB.First(&order, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order not found",
		})
	}

	type orderTypeRequest struct {
		OrderType int `json:"order_type"`
	}
	var req orderTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	if req.OrderType == 0 {
		if required {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"order_type": "is required",
			})
		}
		// Nothing to change
		var unchanged models.Order
		if err := loadOrder(db.DB, order.ID, &unchanged); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load order",
			})
		}
		return c.JSON(unchanged)
	}
	if !models.ValidOrderType(req.OrderType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"order_type": "must be between 1 and 3",
		})
	}

	// A delivery record attached while the order was type Delivery is left in
	// place when switching away; only the surcharge follows the new type.
	tx := db.DB.Begin()

	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("order_type", req.OrderType).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update order",
		})
	}
	if err := touchOrder(tx, order.ID); err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update order",
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

	notifyOrder("order.updated", order.ID)

	var updated models.Order
	if err := loadOrder(db.DB, order.ID, &updated); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Order updated but failed to load full details",
		})
	}
	return c.JSON(updated)
}

func deleteOrder(c *fiber.Ctx) error {
	id := c.Params("id")

	var order models.Order
	if err := db.DB.First(&order, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order not found",
		})
	}

	tx := db.DB.Begin()

	// Cascade: items and delivery records go with the order
	if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete order items",
		})
	}
	if err := tx.Where("order_id = ?", order.ID).Delete(&models.Delivery{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete delivery records",
		})
	}
	if err := tx.Delete(&order).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete order",
		})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to commit transaction",
		})
	}

	notifyOrder("order.deleted", order.ID)
	return c.SendStatus(fiber.StatusNoContent)
}
