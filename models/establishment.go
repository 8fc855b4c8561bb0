package models

import "time"

type Establishment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"unique" json:"name" validate:"required,max=30"`
	Description   string    `json:"description"`
	ServicePrice  int       `json:"service_price" validate:"min=0"`  // percent added per 100 of subtotal
	DeliveryPrice int       `json:"delivery_price" validate:"min=0"` // flat surcharge in minor units
	Image         string    `json:"image"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Products      []Product `gorm:"foreignKey:EstablishmentID" json:"products,omitempty"`
}
