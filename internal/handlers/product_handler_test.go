package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"loja/internal/handlers"
	"loja/internal/models"
	"loja/internal/repositories"
	"loja/internal/serializers"
	"loja/internal/services"
)

// recordingPublisher captures published events instead of talking to a broker.
type recordingPublisher struct {
	actions []string
}

func (p *recordingPublisher) PublishProductEvent(action string, product serializers.ProductResponse) error {
	p.actions = append(p.actions, action)
	return nil
}

// setupApp builds a Fiber app backed by a fresh in-memory SQLite database.
func setupApp(t *testing.T) (*fiber.App, *recordingPublisher) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "failed to open in-memory database")
	require.NoError(t, db.AutoMigrate(&models.Product{}), "failed to migrate database")

	productRepo := repositories.NewGORMProductRepository(db)
	productService := services.NewProductService(productRepo)

	publisher := &recordingPublisher{}
	productHandler := handlers.NewProductHandler(productService, publisher)

	app := fiber.New()
	api := app.Group("/api")
	productHandler.RegisterRoutes(api)

	return app, publisher
}

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeProduct(t *testing.T, resp *http.Response) serializers.ProductResponse {
	t.Helper()
	var product serializers.ProductResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&product))
	return product
}

func createProduct(t *testing.T, app *fiber.App, name, price, description string) serializers.ProductResponse {
	t.Helper()
	req := jsonRequest(http.MethodPost, "/api/produtos", map[string]string{
		"name":        name,
		"price":       price,
		"description": description,
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeProduct(t, resp)
}

func TestCreateProduct(t *testing.T) {
	app, publisher := setupApp(t)

	req := jsonRequest(http.MethodPost, "/api/produtos", map[string]string{
		"name":        "Caneca",
		"price":       "19.90",
		"description": "Caneca de ceramica",
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// The submitted fields come back unchanged, plus the assigned id.
	assert.Contains(t, string(body), `"price":"19.90"`)

	var product serializers.ProductResponse
	require.NoError(t, json.Unmarshal(body, &product))
	assert.NotZero(t, product.ID, "response should contain a system-assigned id")
	assert.Equal(t, "Caneca", product.Name)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("19.90")))
	assert.Equal(t, "Caneca de ceramica", product.Description)

	assert.Equal(t, []string{"created"}, publisher.actions)
}

func TestCreateProductAcceptsNumericPrice(t *testing.T) {
	app, _ := setupApp(t)

	req := jsonRequest(http.MethodPost, "/api/produtos", map[string]interface{}{
		"name":        "Adesivo",
		"price":       4.5,
		"description": "Adesivo de vinil",
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	product := decodeProduct(t, resp)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("4.5")))
}

func TestCreateProductValidation(t *testing.T) {
	app, publisher := setupApp(t)

	// Missing required fields
	req := jsonRequest(http.MethodPost, "/api/produtos", map[string]string{
		"price": "19.90",
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Validation failed")

	// Malformed JSON body
	req = httptest.NewRequest(http.MethodPost, "/api/produtos", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Empty(t, publisher.actions, "no events should be published for rejected requests")
}

func TestGetProducts(t *testing.T) {
	app, _ := setupApp(t)

	names := []string{"Caneca", "Camiseta", "Adesivo"}
	for _, name := range names {
		createProduct(t, app, name, "10.00", "Produto de teste")
	}

	req := jsonRequest(http.MethodGet, "/api/produtos", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var products []serializers.ProductResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Len(t, products, len(names))

	var foundNames []string
	for _, p := range products {
		foundNames = append(foundNames, p.Name)
	}
	assert.ElementsMatch(t, names, foundNames)
}

func TestGetProductByID(t *testing.T) {
	app, _ := setupApp(t)

	created := createProduct(t, app, "Caneca", "19.90", "Caneca de ceramica")

	req := jsonRequest(http.MethodGet, fmt.Sprintf("/api/produtos/%d", created.ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	product := decodeProduct(t, resp)
	assert.Equal(t, created.ID, product.ID)
	assert.Equal(t, "Caneca", product.Name)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("19.90")))
	assert.Equal(t, "Caneca de ceramica", product.Description)
}

func TestGetProductByIDNotFound(t *testing.T) {
	app, _ := setupApp(t)

	req := jsonRequest(http.MethodGet, "/api/produtos/999999", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetProductByIDInvalid(t *testing.T) {
	app, _ := setupApp(t)

	req := jsonRequest(http.MethodGet, "/api/produtos/abc", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateProduct(t *testing.T) {
	app, publisher := setupApp(t)

	created := createProduct(t, app, "Caneca", "19.90", "Caneca de ceramica")

	req := jsonRequest(http.MethodPut, fmt.Sprintf("/api/produtos/%d", created.ID), map[string]string{
		"name":        "Caneca grande",
		"price":       "24.90",
		"description": "Caneca de ceramica 500ml",
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	product := decodeProduct(t, resp)
	assert.Equal(t, created.ID, product.ID)
	assert.Equal(t, "Caneca grande", product.Name)

	// A subsequent read must see every field overwritten.
	req = jsonRequest(http.MethodGet, fmt.Sprintf("/api/produtos/%d", created.ID), nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	product = decodeProduct(t, resp)
	assert.Equal(t, "Caneca grande", product.Name)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("24.90")))
	assert.Equal(t, "Caneca de ceramica 500ml", product.Description)

	assert.Equal(t, []string{"created", "updated"}, publisher.actions)
}

func TestUpdateProductNotFound(t *testing.T) {
	app, _ := setupApp(t)

	req := jsonRequest(http.MethodPut, "/api/produtos/999999", map[string]string{
		"name":        "Inexistente",
		"price":       "1.00",
		"description": "Nada",
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteProduct(t *testing.T) {
	app, publisher := setupApp(t)

	created := createProduct(t, app, "Caneca", "19.90", "Caneca de ceramica")

	req := jsonRequest(http.MethodDelete, fmt.Sprintf("/api/produtos/%d", created.ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, body, "delete response body should be empty")

	req = jsonRequest(http.MethodGet, fmt.Sprintf("/api/produtos/%d", created.ID), nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, []string{"created", "deleted"}, publisher.actions)
}

func TestDeleteProductNotFound(t *testing.T) {
	app, _ := setupApp(t)

	req := jsonRequest(http.MethodDelete, "/api/produtos/999999", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
