package serializers

import (
	"github.com/shopspring/decimal"

	"loja/internal/models"
)

// ProductResponse is the external JSON representation of a product.
// Price marshals as a quoted decimal string, e.g. "19.90".
type ProductResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// ProductInput carries the client-supplied fields for create and update.
// Price is accepted as either a JSON string or a number.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Description string          `json:"description" validate:"required"`
}

// ToProductResponse maps a product model to its external representation.
func ToProductResponse(product *models.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Description: product.Description,
	}
}

// ToProductResponses maps a slice of product models for list responses.
func ToProductResponses(products []models.Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, ToProductResponse(&products[i]))
	}
	return responses
}

// ToModel builds a product model from validated input. The ID is left
// zero; the repository or the caller fills it in.
func (in *ProductInput) ToModel() models.Product {
	return models.Product{
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
	}
}
