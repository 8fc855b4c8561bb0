package routes

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust this for production
	},
}

// Connected clients map with mutex for thread safety
var wsClients = make(map[*websocket.Conn]bool)
var broadcast = make(chan []byte, 100) // Buffered channel to prevent blocking
var mutex = &sync.Mutex{}
var broadcastOnce sync.Once

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report failures under the JSON field names, not the Go ones
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationErrors flattens validator output into a field -> message map for
// 400 responses.
func validationErrors(err error) fiber.Map {
	fields := fiber.Map{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields[fe.Field()] = "failed on the '" + fe.Tag() + "' rule"
		}
		return fields
	}
	return fiber.Map{"error": err.Error()}
}

// orderEvent is pushed to websocket subscribers whenever an order changes.
type orderEvent struct {
	Event   string `json:"event"`
	OrderID uint   `json:"order_id"`
}

func notifyOrder(event string, orderID uint) {
	payload, err := json.Marshal(orderEvent{Event: event, OrderID: orderID})
	if err != nil {
		return
	}
	select {
	case broadcast <- payload:
	default: // drop when nobody is draining the feed
	}
}

func SetupRoutes(app *fiber.App) {

	wsHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("Error upgrading:", err)
			return
		}
		defer conn.Close()

		mutex.Lock()
		wsClients[conn] = true
		mutex.Unlock()
		log.Println("Client connected:", conn.RemoteAddr())

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket read error: %v", err)
				}
				mutex.Lock()
				delete(wsClients, conn)
				mutex.Unlock()
				log.Println("Client disconnected:", conn.RemoteAddr())
				break
			}
			log.Printf("Received message from %v: %s", conn.RemoteAddr(), string(message))
			broadcast <- message
		}
	})

	// Handle broadcasting messages to all clients
	broadcastOnce.Do(func() {
		go func() {
			for message := range broadcast {
				mutex.Lock()
				for client := range wsClients {
					err := client.WriteMessage(websocket.TextMessage, message)
					if err != nil {
						log.Printf("WebSocket write error: %v", err)
						client.Close()
						delete(wsClients, client)
					}
				}
				mutex.Unlock()
			}
		}()
	})

	// Live order feed
	app.Get("/ws", wsHandler)
	// Image upload route
	app.Post("/upload", uploadImage)

	// Order routes
	orders := app.Group("/order")
	orders.Get("/", getAllOrders)
	orders.Post("/", createOrder)
	orders.Get("/:id", getOrder)
	orders.Put("/:id", updateOrder)
	orders.Patch("/:id", patchOrder)
	orders.Delete("/:id", deleteOrder)

	// Order item routes
	items := app.Group("/order-item")
	items.Get("/", getAllOrderItems)
	items.Post("/", createOrderItem)
	items.Get("/:id", getOrderItem)
	items.Put("/:id", updateOrderItem)
	items.Patch("/:id", patchOrderItem)
	items.Delete("/:id", deleteOrderItem)

	// Product routes
	products := app.Group("/product")
	products.Get("/", getAllProducts)
	products.Post("/", createProduct)
	products.Get("/:id", getProduct)
	products.Put("/:id", updateProduct)
	products.Patch("/:id", patchProduct)
	products.Delete("/:id", deleteProduct)

	// Delivery routes
	deliveries := app.Group("/delivery")
	deliveries.Get("/", getAllDeliveries)
	deliveries.Post("/", createDelivery)
	deliveries.Get("/:id", getDelivery)
	deliveries.Put("/:id", updateDelivery)
	deliveries.Patch("/:id", patchDelivery)
	deliveries.Delete("/:id", deleteDelivery)

	// Establishment routes
	establishments := app.Group("/establishment")
	establishments.Get("/", getAllEstablishments)
	establishments.Post("/", createEstablishment)
	establishments.Get("/:id", getEstablishment)
	establishments.Put("/:id", updateEstablishment)
	establishments.Patch("/:id", patchEstablishment)
	establishments.Delete("/:id", deleteEstablishment)

	// Filtered order lists
	filters := app.Group("/get")
	filters.Get("/delivery-orders", getDeliveryOrders)
	filters.Get("/in-place-orders", getInPlaceOrders)
	filters.Get("/pick-up-orders", getPickUpOrders)
	filters.Get("/establishment-orders/:id", getEstablishmentOrders)

	// Combined create-order-with-item shortcut
	api := app.Group("/api")
	api.Post("/create-order", createOrderWithItem)
}

// Image upload handler
func uploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to get uploaded file",
		})
	}

	// Generate unique filename
	ext := filepath.Ext(file.Filename)
	uniqueID := uuid.New().String()
	filename := uniqueID + ext
	filepath := "./uploads/" + filename

	// Save the file
	if err := c.SaveFile(file, filepath); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save file",
		})
	}

	// Return the file path that can be stored in the database
	return c.JSON(fiber.Map{
		"filename": filename,
		"path":     "/uploads/" + filename,
	})
}
