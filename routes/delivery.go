package routes

import (
	"cafeorder/db"
	"cafeorder/models"

	"github.com/gofiber/fiber/v2"
)

func getAllDeliveries(c *fiber.Ctx) error {
	var deliveries []models.Delivery

	if err := db.DB.Find(&deliveries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get deliveries",
		})
	}

	return c.JSON(deliveries)
}

func createDelivery(c *fiber.Ctx) error {
	delivery := new(models.Delivery)
	if err := c.BodyParser(delivery); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	delivery.ID = 0

	if err := validate.Struct(delivery); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(validationErrors(err))
	}

	var order models.Order
	if err := db.DB.First(&order, delivery.OrderID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order not found",
		})
	}

	tx := db.DB.Begin()

	if err := tx.Create(&delivery).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create delivery",
		})
	}

	// Attaching an address makes this a delivery order, whatever it was
	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("order_type", models.OrderTypeDelivery).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update order type",
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
	return c.Status(fiber.StatusCreated).JSON(delivery)
}

func getDelivery(c *fiber.Ctx) error {
	id := c.Params("id")

	var delivery models.Delivery
	if err := db.DB.First(&delivery, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Delivery not found",
		})
	}

	return c.JSON(delivery)
}

func updateDelivery(c *fiber.Ctx) error {
	return applyDeliveryUpdate(c, true)
}

func patchDelivery(c *fiber.Ctx) error {
	return applyDeliveryUpdate(c, false)
}

func applyDeliveryUpdate(c *fiber.Ctx, full bool) error {
	id := c.Params("id")

	var existing models.Delivery
	if err := db.DB.First(&existing, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Delivery not found",
		})
	}

	delivery := new(models.Delivery)
	if err := c.BodyParser(delivery); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	// Deliveries stay attached to their order
	delivery.OrderID = 0

	if full {
		if err := validate.Struct(delivery); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(validationErrors(err))
		}
	}

	if err := db.DB.Model(&existing).Updates(delivery).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update delivery",
		})
	}

	return c.JSON(existing)
}

func deleteDelivery(c *fiber.Ctx) error {
	id := c.Params("id")

	var delivery models.Delivery
	if err := db.DB.First(&delivery, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Delivery not found",
		})
	}

	if err := db.DB.Delete(&delivery).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete delivery",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
