package models

import (
	"time"
)

// Order types, mirrored in the order_type column.
const (
	OrderTypeService  = 1 // dine-in, percentage surcharge
	OrderTypeDelivery = 2 // flat delivery surcharge
	OrderTypePickup   = 3 // no surcharge
)

func ValidOrderType(t int) bool {
	return t == OrderTypeService || t == OrderTypeDelivery || t == OrderTypePickup
}

type Order struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	OrderType       int         `gorm:"column:order_type;default:1" json:"order_type"`
	Total           int         `gorm:"default:0" json:"total"`
	Paid            bool        `gorm:"default:false" json:"paid"`
	CreatedAt       time.Time   `gorm:"autoCreateTime" json:"created_at"`
	ModifiedAt      time.Time   `gorm:"autoCreateTime" json:"modified_at"`
	OrderItems      []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
	DeliveryAddress []Delivery  `gorm:"foreignKey:OrderID" json:"delivery_address"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `json:"order_id"`
	ProductID uint    `json:"product_id"`
	Amount    int     `json:"amount" validate:"required,min=1"`
	Product   Product `gorm:"foreignKey:ProductID" json:"product" validate:"-"`
}
