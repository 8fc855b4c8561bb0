package routes

import (
	"cafeorder/db"
	"cafeorder/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// orderEstablishmentID resolves which establishment an order's items belong
// to. Returns 0 when the order has no items to resolve from. excludeItemID
// skips the item currently being retargeted.
func orderEstablishmentID(tx *gorm.DB, orderID, excludeItemID uint) (uint, error) {
	var item models.OrderItem
	query := tx.Preload("Product").Where("order_id = ?", orderID)
	if excludeItemID != 0 {
		query = query.Where("id <> ?", excludeItemID)
	}
	if err := query.First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return item.Product.EstablishmentID, nil
}

func getAllOrderItems(c *fiber.Ctx) error {
	var items []models.OrderItem

	if err := db.DB.Preload("Product").Find(&items).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get order items",
		})
	}

	return c.JSON(items)
}

func createOrderItem(c *fiber.Ctx) error {
	item := new(models.OrderItem)
	if err := c.BodyParser(item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	item.ID = 0
	item.Product = models.Product{}

	if err := validate.Struct(item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(validationErrors(err))
	}

	var order models.Order
	if err := db.DB.First(&order, item.OrderID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order not found",
		})
	}
	var product models.Product
	if err := db.DB.First(&product, item.ProductID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	// One establishment per order: surcharge policy must resolve uniquely
	resolved, err := orderEstablishmentID(db.DB, order.ID, 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check order items",
		})
	}
	if resolved != 0 && resolved != product.EstablishmentID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"product_id": "product belongs to a different establishment than the order",
		})
	}

	tx := db.DB.Begin()

	if err := tx.Create(&item).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create order item",
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

	var created models.OrderItem
	if err := db.DB.Preload("Product").First(&created, item.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Order item created but failed to load full details",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func getOrderItem(c *fiber.Ctx) error {
	id := c.Params("id")

	var item models.OrderItem
	if err := db.DB.Preload("Product").First(&item, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order item not found",
		})
	}

	return c.JSON(item)
}

// PUT replaces the product reference and amount; both are required.
func updateOrderItem(c *fiber.Ctx) error {
	return applyOrderItemUpdate(c, true)
}

// PATCH updates whichever of product_id/amount is provided.
func patchOrderItem(c *fiber.Ctx) error {
	return applyOrderItemUpdate(c, false)
}

func applyOrderItemUpdate(c *fiber.Ctx, required bool) error {
	id := c.Params("id")

	var item models.OrderItem
	if err := db.DB.First(&item, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order item not found",
		})
	}

	type orderItemUpdate struct {
		ProductID uint `json:"product_id"`
		Amount    int  `json:"amount"`
	}
	var req orderItemUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	if required && (req.ProductID == 0 || req.Amount == 0) {
		fields := fiber.Map{}
		if req.ProductID == 0 {
			fields["product_id"] = "is required"
		}
		if req.Amount == 0 {
			fields["amount"] = "is required"
		}
		return c.Status(fiber.StatusBadRequest).JSON(fields)
	}
	if req.Amount != 0 && req.Amount < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"amount": "must be 1 or greater",
		})
	}

	productID := item.ProductID
	if req.ProductID != 0 {
		productID = req.ProductID
	}
	amount := item.Amount
	if req.Amount != 0 {
		amount = req.Amount
	}

	var product models.Product
	if err := db.DB.First(&product, productID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	// The retargeted product must still match the order's establishment
	resolved, err := orderEstablishmentID(db.DB, item.OrderID, item.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check order items",
		})
	}
	if resolved != 0 && resolved != product.EstablishmentID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"product_id": "product belongs to a different establishment than the order",
		})
	}

	tx := db.DB.Begin()

	if err := tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).
		Updates(map[string]interface{}{"product_id": productID, "amount": amount}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update order item",
		})
	}
	if err := touchOrder(tx, item.OrderID); err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update order",
		})
	}
	if _, err := recomputeTotal(tx, item.OrderID); err != nil {
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

	notifyOrder("order.updated", item.OrderID)

	var updated models.OrderItem
	if err := db.DB.Preload("Product").First(&updated, item.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Order item updated but failed to load full details",
		})
	}
	return c.JSON(updated)
}

func deleteOrderItem(c *fiber.Ctx) error {
	id := c.Params("id")

	var item models.OrderItem
	if err := db.DB.First(&item, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order item not found",
		})
	}

	tx := db.DB.Begin()

	if err := tx.Delete(&item).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete order item",
		})
	}
	if err := touchOrder(tx, item.OrderID); err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update order",
		})
	}
	if _, err := recomputeTotal(tx, item.OrderID); err != nil {
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

	notifyOrder("order.updated", item.OrderID)
	return c.SendStatus(fiber.StatusNoContent)
}
