package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"loja/internal/repositories"
	"loja/internal/serializers"
	"loja/internal/services"
)

// EventPublisher publishes product lifecycle events to a message broker.
// A nil publisher disables publishing entirely.
type EventPublisher interface {
	PublishProductEvent(action string, product serializers.ProductResponse) error
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service   *services.ProductService
	publisher EventPublisher
	validate  *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, publisher EventPublisher) *ProductHandler {
	return &ProductHandler{
		service:   service,
		publisher: publisher,
		validate:  validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/produtos")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		log.Printf("Error getting all products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(serializers.ToProductResponses(products))
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := parseProductID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product ID",
		})
	}

	product, err := h.service.GetProductByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %d not found", id),
			})
		}
		log.Printf("Error getting product by ID %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	return c.JSON(serializers.ToProductResponse(product))
}

// HandleCreateProduct creates a new product from the request body.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	input, errResp := h.bindProductInput(c)
	if input == nil {
		return errResp
	}

	product := input.ToModel()
	if err := h.service.CreateProduct(&product); err != nil {
		log.Printf("Error creating product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
			"error":   err.Error(),
		})
	}

	response := serializers.ToProductResponse(&product)
	h.publishEvent("created", response)
	return c.Status(fiber.StatusCreated).JSON(response)
}

// HandleUpdateProduct overwrites every field of an existing product.
// Partial updates are not supported.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := parseProductID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product ID",
		})
	}

	input, errResp := h.bindProductInput(c)
	if input == nil {
		return errResp
	}

	product := input.ToModel()
	product.ID = id
	if err := h.service.UpdateProduct(&product); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %d not found", id),
			})
		}
		log.Printf("Error updating product %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update product",
			"error":   err.Error(),
		})
	}

	response := serializers.ToProductResponse(&product)
	h.publishEvent("updated", response)
	return c.JSON(response)
}

// HandleDeleteProduct removes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := parseProductID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product ID",
		})
	}

	if err := h.service.DeleteProduct(id); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %d not found", id),
			})
		}
		log.Printf("Error deleting product %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete product",
			"error":   err.Error(),
		})
	}

	// Delete events carry only the ID; the record is already gone.
	h.publishEvent("deleted", serializers.ProductResponse{ID: id})
	return c.SendStatus(fiber.StatusNoContent)
}

// bindProductInput parses and validates the request body. On failure the
// 400 response has already been written; the caller returns the write
// result and a nil input signals failure.
func (h *ProductHandler) bindProductInput(c *fiber.Ctx) (*serializers.ProductInput, error) {
	var input serializers.ProductInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing product request body: %v", err)
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(&input); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return &input, nil
}

// publishEvent sends a product event when a publisher is configured.
// Publish failures are logged, never surfaced to the client.
func (h *ProductHandler) publishEvent(action string, product serializers.ProductResponse) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishProductEvent(action, product); err != nil {
		log.Printf("Error publishing product %s event for product %d: %v", action, product.ID, err)
	}
}

func parseProductID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil {
		return 0, err
	}
	if id < 1 {
		return 0, fmt.Errorf("product ID must be positive, got %d", id)
	}
	return uint(id), nil
}
