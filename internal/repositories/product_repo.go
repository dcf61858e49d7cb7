package repositories

import (
	"errors"

	"loja/internal/models"
)

// ErrProductNotFound is returned when no product matches the given ID.
// Callers should check for it with errors.Is.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
}
