package routes

import (
	"cafeorder/db"
	"cafeorder/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ordersReferencingProducts collects the distinct orders holding items for
// the given products, so their totals can be recomputed after a cascade.
func ordersReferencingProducts(tx *gorm.DB, productIDs []uint) ([]uint, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var orderIDs []uint
	err := tx.Model(&models.OrderItem{}).
		Where("product_id IN ?", productIDs).
		Distinct().
		Pluck("order_id", &orderIDs).Error
	return orderIDs, err
}

func getAllProducts(c *fiber.Ctx) error {
	var products []models.Product

	if err := db.DB.Preload("Establishment").Find(&products).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get products",
		})
	}

	return c.JSON(products)
}

func createProduct(c *fiber.Ctx) error {
	product := new(models.Product)
	if err := c.BodyParser(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	product.ID = 0
	product.Establishment = models.Establishment{}

	if err := validate.Struct(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(validationErrors(err))
	}

	var establishment models.Establishment
	if err := db.DB.First(&establishment, product.EstablishmentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Establishment not found",
		})
	}

	if err := db.DB.Create(&product).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create product",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

func getProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	var product models.Product
	if err := db.DB.Preload("Establishment").First(&product, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	return c.JSON(product)
}

func updateProduct(c *fiber.Ctx) error {
	return applyProductUpdate(c, true)
}

func patchProduct(c *fiber.Ctx) error {
	return applyProductUpdate(c, false)
}

func applyProductUpdate(c *fiber.Ctx, full bool) error {
	id := c.Params("id")

	var existing models.Product
	if err := db.DB.First(&existing, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	product := new(models.Product)
	if err := c.BodyParser(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	product.Establishment = models.Establishment{}

	if full {
		if err := validate.Struct(product); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(validationErrors(err))
		}
	}
	if product.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"price": "must be 0 or greater",
		})
	}

	// A retargeted establishment must exist
	if product.EstablishmentID != 0 && product.EstablishmentID != existing.EstablishmentID {
		var establishment models.Establishment
		if err := db.DB.First(&establishment, product.EstablishmentID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Establishment not found",
			})
		}
	}

	if err := db.DB.Model(&existing).Updates(product).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update product",
		})
	}

	// Cached order totals pick the new price up on the next order read
	var updated models.Product
	if err := db.DB.Preload("Establishment").First(&updated, existing.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Product updated but failed to load full details",
		})
	}
	return c.JSON(updated)
}

func deleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	var product models.Product
	if err := db.DB.First(&product, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	tx := db.DB.Begin()

	orderIDs, err := ordersReferencingProducts(tx, []uint{product.ID})
	if err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to collect affected orders",
		})
	}

	if err := tx.Where("product_id = ?", product.ID).Delete(&models.OrderItem{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete order items",
		})
	}
	if err := tx.Delete(&product).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete product",
		})
	}

	// Orders that lost items keep a correct total
	for _, orderID := range orderIDs {
		if _, err := recomputeTotal(tx, orderID); err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to recompute order total",
			})
		}
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to commit transaction",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
