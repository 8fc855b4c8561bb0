package routes

import (
	"fmt"
	"net/http"
	"testing"

	"cafeorder/db"
	"cafeorder/models"
)

func TestCreateOrderDefaults(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/order/", map[string]interface{}{})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var order models.Order
	decodeJSON(t, resp, &order)
	if order.OrderType != models.OrderTypeService {
		t.Errorf("order_type = %d, want %d", order.OrderType, models.OrderTypeService)
	}
	if order.Total != 0 {
		t.Errorf("total = %d, want 0", order.Total)
	}
	if order.Paid {
		t.Error("new order is marked paid")
	}
}

func TestCreateOrderInvalidType(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/order/", map[string]interface{}{"order_type": 5})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestOrderTotals(t *testing.T) {
	tests := []struct {
		name      string
		orderType int
		amount    int
		want      int
	}{
		// subtotal + (subtotal/100)*service_price
		{"service adds percentage surcharge", models.OrderTypeService, 2, 2200},
		// subtotal + delivery_price
		{"delivery adds flat surcharge", models.OrderTypeDelivery, 1, 1500},
		// plain subtotal
		{"pickup has no surcharge", models.OrderTypePickup, 3, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			_, product := seedCatalog(t)

			order := createTestOrder(t, app, tt.orderType)
			addTestItem(t, app, order.ID, product.ID, tt.amount)

			got := fetchOrder(t, app, order.ID)
			if got.Total != tt.want {
				t.Errorf("total = %d, want %d", got.Total, tt.want)
			}
		})
	}
}

func TestOrderTotalIdempotent(t *testing.T) {
	app := newTestApp(t)
	_, product := seedCatalog(t)

	order := createTestOrder(t, app, models.OrderTypeService)
	addTestItem(t, app, order.ID, product.ID, 2)

	first := fetchOrder(t, app, order.ID)
	second := fetchOrder(t, app, order.ID)
	if first.Total != second.Total {
		t.Errorf("totals differ across reads: %d then %d", first.Total, second.Total)
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	app := newTestApp(t)
	seedCatalog(t)

	order := createTestOrder(t, app, models.OrderTypeService)

	resp := doJSON(t, app, http.MethodPost, "/order-item/", map[string]interface{}{
		"order_id":   order.ID,
		"product_id": 9999,
		"amount":     1,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	// The failed insert left the order untouched
	got := fetchOrder(t, app, order.ID)
	if len(got.OrderItems) != 0 {
		t.Errorf("order has %d items, want 0", len(got.OrderItems))
	}
	if got.Total != 0 {
		t.Errorf("total = %d, want 0", got.Total)
	}
}

func TestAddItemUnknownOrder(t *testing.T) {
	app := newTestApp(t)
	_, product := seedCatalog(t)

	resp := doJSON(t, app, http.MethodPost, "/order-item/", map[string]interface{}{
		"order_id":   9999,
		"product_id": product.ID,
		"amount":     1,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestAddItemInvalidAmount(t *testing.T) {
	app := newTestApp(t)
	_, product := seedCatalog(t)

	order := createTestOrder(t, app, models.OrderTypeService)

	resp := doJSON(t, app, http.MethodPost, "/order-item/", map[string]interface{}{
		"order_id":   order.ID,
		"product_id": product.ID,
		"amount":     0,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestMixedEstablishmentRejected(t *testing.T) {
	app := newTestApp(t)
	_, product := seedCatalog(t)

	other := models.Establishment{Name: "Other Cafe", ServicePrice: 5, DeliveryPrice: 300}
	if err := db.DB.Create(&other).Error; err != nil {
		t.Fatalf("seed establishment: %v", err)
	}
	otherProduct := models.Product{Name: "Lagman", Price: 800, EstablishmentID: other.ID}
	if err := db.DB.Create(&otherProduct).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	order := createTestOrder(t, app, models.OrderTypeService)
	addTestItem(t, app, order.ID, product.ID, 1)

	resp := doJSON(t, app, http.MethodPost, "/order-item/", map[string]interface{}{
		"order_id":   order.ID,
		"product_id": otherProduct.ID,
		"amount":     1,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	got := fetchOrder(t, app, order.ID)
	if len(got.OrderItems) != 1 {
		t.Errorf("order has %d items, want 1", len(got.OrderItems))
	}
}

func TestUpdateItemRecomputesTotal(t *testing.T) {
	app := newTestApp(t)
	_, product := seedCatalog(t)

	order := createTestOrder(t, app, models.OrderTypeService)
	item := addTestItem(t, app, order.ID, product.ID, 1)

	if got := fetchOrder(t, app, order.ID); got.Total != 1100 {
		t.Fatalf("total before update = %d, want 1100", got.Total)
	}

	resp := doJSON(t, app, http.MethodPatch, fmt.Sprintf("/order-item/%d/", item.ID),
		map[string]interface{}{"amount": 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	if got := fetchOrder(t, app, order.ID); got.Total != 2200 {
		t.Errorf("total after update = %d, want 2200", got.Total)
	}
}

func TestRemoveItemRecomputesTotal(t *testing.T) {
	app := newTestApp(t)
	_, product := seedCatalog(t)

	order := createTestOrder(t, app, models.OrderTypePickup)
	item := addTestItem(t, app, order.ID, product.ID, 2)

	resp := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/order-item/%d/", item.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	got := fetchOrder(t, app, order.ID)
	if len(got.OrderItems) != 0 {
		t.Errorf("order has %d items, want 0", len(got.OrderItems))
	}
	if got.Total != 0 {
		t.Errorf("total = %d, want 0", got.Total)
	}
}

func TestOrderTypeChangeRecomputes(t *testing.T) {
	app := newTestApp(t)
	_, product := seedCatalog(t)

	order := createTestOrder(t, app, models.OrderTypeService)
	addTestItem(t, app, order.ID, product.ID, 1)

	resp := doJSON(t, app, http.MethodPatch, fmt.Sprintf("/order/%d/", order.ID),
		map[string]interface{}{"order_type": models.OrderTypeDelivery})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var updated models.Order
	decodeJSON(t, resp, &updated)
	if updated.Total != 1500 {
		t.Errorf("total after switching to delivery = %d, want 1500", updated.Total)
	}

	resp = doJSON(t, app, http.MethodPatch, fmt.Sprintf("/order/%d/", order.ID),
		map[string]interface{}{"order_type": models.OrderTypePickup})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	decodeJSON(t, resp, &updated)
	if updated.Total != 1000 {
		t.Errorf("total after switching to pickup = %d, want 1000", updated.Total)
	}
}

func TestUpdateOrderRequiresType(t *testing.T) {
	app := newTestApp(t)

	order := createTestOrder(t, app, models.OrderTypeService)

	resp := doJSON(t, app, http.MethodPut, fmt.Sprintf("/order/%d/", order.ID),
		map[string]interface{}{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestAttachDeliveryForcesType(t *testing.T) {
	app := newTestApp(t)
	_, product := seedCatalog(t)

	order := createTestOrder(t, app, models.OrderTypePickup)
	addTestItem(t, app, order.ID, product.ID, 1)

	resp := doJSON(t, app, http.MethodPost, "/delivery/", map[string]interface{}{
		"order_id": order.ID,
		"address":  "12 Navoi Street",
		"phone":    "+998901234567",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	got := fetchOrder(t, app, order.ID)
	if got.OrderType != models.OrderTypeDelivery {
		t.Errorf("order_type = %d, want %d", got.OrderType, models.OrderTypeDelivery)
	}
	if got.Total != 1500 {
		t.Errorf("total = %d, want 1500", got.Total)
	}
	if len(got.DeliveryAddress) != 1 {
		t.Errorf("order has %d delivery records, want 1", len(got.DeliveryAddress))
	}
}

func TestDeliveryValidation(t *testing.T) {
	app := newTestApp(t)

	order := createTestOrder(t, app, models.OrderTypeService)

	resp := doJSON(t, app, http.MethodPost, "/delivery/", map[string]interface{}{
		"order_id": order.ID,
		"phone":    "+998901234567",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var fields map[string]string
	decodeJSON(t, resp, &fields)
	if _, ok := fields["address"]; !ok {
		t.Errorf("error map %v has no address entry", fields)
	}
}

func TestDeleteOrderCascades(t *testing.T) {
	app := newTestApp(t)
	_, product := seedCatalog(t)

	order := createTestOrder(t, app, models.OrderTypeService)
	addTestItem(t, app, order.ID, product.ID, 2)
	doJSON(t, app, http.MethodPost, "/delivery/", map[string]interface{}{
		"order_id": order.ID,
		"address":  "12 Navoi Street",
		"phone":    "+998901234567",
	})

	resp := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/order/%d/", order.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	var itemCount, deliveryCount int64
	db.DB.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&itemCount)
	db.DB.Model(&models.Delivery{}).Where("order_id = ?", order.ID).Count(&deliveryCount)
	if itemCount != 0 {
		t.Errorf("%d order items survived the delete", itemCount)
	}
	if deliveryCount != 0 {
		t.Errorf("%d delivery records survived the delete", deliveryCount)
	}

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/order/%d/", order.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted order status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestCreateOrderWithItem(t *testing.T) {
	app := newTestApp(t)
	_, product := seedCatalog(t)

	resp := doJSON(t, app, http.MethodPost, "/api/create-order/", map[string]interface{}{
		"product_id": product.ID,
		"amount":     2,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var order models.Order
	decodeJSON(t, resp, &order)
	if order.OrderType != models.OrderTypeService {
		t.Errorf("order_type = %d, want %d", order.OrderType, models.OrderTypeService)
	}
	if len(order.OrderItems) != 1 {
		t.Fatalf("order has %d items, want 1", len(order.OrderItems))
	}
	if order.Total != 2200 {
		t.Errorf("total = %d, want 2200", order.Total)
	}
}

func TestCreateOrderWithItemUnknownProduct(t *testing.T) {
	app := newTestApp(t)
	seedCatalog(t)

	resp := doJSON(t, app, http.MethodPost, "/api/create-order/", map[string]interface{}{
		"product_id": 9999,
		"amount":     1,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	var orderCount int64
	db.DB.Model(&models.Order{}).Count(&orderCount)
	if orderCount != 0 {
		t.Errorf("%d orders created despite missing product", orderCount)
	}
}
