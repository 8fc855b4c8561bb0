package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cafeorder/db"
	"cafeorder/models"

	"github.com/gofiber/fiber/v2"
)

// newTestApp wires the full route table against a fresh in-memory database.
// Each test gets its own named shared-cache database so state never leaks
// between tests.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db.InitDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))

	app := fiber.New()
	SetupRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

// seedCatalog creates the establishment/product pair the pricing scenarios
// are written against: 10% service surcharge, 500 delivery fee, product at
// 1000 minor units.
func seedCatalog(t *testing.T) (models.Establishment, models.Product) {
	t.Helper()

	establishment := models.Establishment{Name: "Test Cafe", ServicePrice: 10, DeliveryPrice: 500}
	if err := db.DB.Create(&establishment).Error; err != nil {
		t.Fatalf("seed establishment: %v", err)
	}

	product := models.Product{Name: "Plov", Price: 1000, EstablishmentID: establishment.ID}
	if err := db.DB.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	return establishment, product
}

func createTestOrder(t *testing.T, app *fiber.App, orderType int) models.Order {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/order/", map[string]interface{}{"order_type": orderType})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var order models.Order
	decodeJSON(t, resp, &order)
	return order
}

func addTestItem(t *testing.T, app *fiber.App, orderID, productID uint, amount int) models.OrderItem {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/order-item/", map[string]interface{}{
		"order_id":   orderID,
		"product_id": productID,
		"amount":     amount,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order item status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var item models.OrderItem
	decodeJSON(t, resp, &item)
	return item
}

func fetchOrder(t *testing.T, app *fiber.App, orderID uint) models.Order {
	t.Helper()

	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/order/%d/", orderID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get order status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var order models.Order
	decodeJSON(t, resp, &order)
	return order
}
