package models

import "time"

type Delivery struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Address     string    `json:"address" validate:"required,max=100"`
	Phone       string    `json:"phone" validate:"required,max=13"`
	Description string    `json:"description" validate:"max=255"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	OrderID     uint      `json:"order_id"`
}
