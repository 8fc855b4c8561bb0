package models

import "time"

type Product struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Name            string        `json:"name" validate:"required,max=100"`
	Price           int           `json:"price" validate:"min=0"`
	Image           string        `json:"image"`
	CreatedAt       time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	EstablishmentID uint          `json:"establishment_id"` // Foreign key to Establishment
	Establishment   Establishment `gorm:"foreignKey:EstablishmentID" json:"establishment" validate:"-"`
}
