package routes

import (
	"cafeorder/db"
	"cafeorder/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func getAllEstablishments(c *fiber.Ctx) error {
	var establishments []models.Establishment

	if err := db.DB.Preload("Products").Find(&establishments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get establishments",
		})
	}

	return c.JSON(establishments)
}

func createEstablishment(c *fiber.Ctx) error {
	establishment := new(models.Establishment)
	if err := c.BodyParser(establishment); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	establishment.ID = 0
	establishment.Products = nil

	if err := validate.Struct(establishment); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(validationErrors(err))
	}

	// Names are unique
	var existing models.Establishment
	if err := db.DB.Where("name = ?", establishment.Name).First(&existing).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to check establishment name",
			})
		}
	} else {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"name": "establishment name already in use",
		})
	}

	if err := db.DB.Create(&establishment).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"name": "establishment name already in use",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create establishment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(establishment)
}

func getEstablishment(c *fiber.Ctx) error {
	id := c.Params("id")

	var establishment models.Establishment
	if err := db.DB.Preload("Products").First(&establishment, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Establishment not found",
		})
	}

	return c.JSON(establishment)
}

func updateEstablishment(c *fiber.Ctx) error {
	return applyEstablishmentUpdate(c, true)
}

func patchEstablishment(c *fiber.Ctx) error {
	return applyEstablishmentUpdate(c, false)
}

func applyEstablishmentUpdate(c *fiber.Ctx, full bool) error {
	id := c.Params("id")

	var existing models.Establishment
	if err := db.DB.First(&existing, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Establishment not found",
		})
	}

	establishment := new(models.Establishment)
	if err := c.BodyParser(establishment); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	establishment.Products = nil

	if full {
		if err := validate.Struct(establishment); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(validationErrors(err))
		}
	}
	if establishment.ServicePrice < 0 || establishment.DeliveryPrice < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "surcharges must be 0 or greater",
		})
	}

	if establishment.Name != "" && establishment.Name != existing.Name {
		var conflicting models.Establishment
		if err := db.DB.Where("name = ? AND id <> ?", establishment.Name, existing.ID).
			First(&conflicting).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to check establishment name",
				})
			}
		} else {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"name": "establishment name already in use",
			})
		}
	}

	if err := db.DB.Model(&existing).Updates(establishment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update establishment",
		})
	}

	return c.JSON(existing)
}

func deleteEstablishment(c *fiber.Ctx) error {
	id := c.Params("id")

	var establishment models.Establishment
	if err := db.DB.First(&establishment, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Establishment not found",
		})
	}

	tx := db.DB.Begin()

	var productIDs []uint
	if err := tx.Model(&models.Product{}).
		Where("establishment_id = ?", establishment.ID).
		Pluck("id", &productIDs).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to collect products",
		})
	}

	orderIDs, err := ordersReferencingProducts(tx, productIDs)
	if err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to collect affected orders",
		})
	}

	// Cascade: products go, and with them every item referencing them
	if len(productIDs) > 0 {
		if err := tx.Where("product_id IN ?", productIDs).Delete(&models.OrderItem{}).Error; err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete order items",
			})
		}
		if err := tx.Where("establishment_id = ?", establishment.ID).Delete(&models.Product{}).Error; err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete products",
			})
		}
	}
	if err := tx.Delete(&establishment).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete establishment",
		})
	}

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
