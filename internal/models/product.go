package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a single product in the catalog.
// The ID is assigned by the database on creation and never changes.
type Product struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"size:100;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Description string          `gorm:"type:text;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides GORM's pluralized default.
func (Product) TableName() string {
	return "produtos"
}
