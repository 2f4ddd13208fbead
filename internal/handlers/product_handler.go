package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/safebite/safebite-backend/internal/dto"
	"github.com/safebite/safebite-backend/internal/scan"
	"github.com/safebite/safebite-backend/internal/services"
)

type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// GetByBarcode resolves a product without recording a scan or spending
// quota. Cache hit or an Open Food Facts fetch, same as the scan path.
func (h *ProductHandler) GetByBarcode(c *fiber.Ctx) error {
	barcode := c.Params("barcode")
	if !barcodePattern.MatchString(barcode) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Barcode must be 8-14 digits"})
	}

	product, err := h.products.ByBarcode(barcode)
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrProductNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Product not found"})
		case errors.Is(err, scan.ErrUpstreamTimeout):
			return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{Error: true, Message: "Product database request timed out"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to look up product"})
		}
	}
	return c.JSON(productResponse(product))
}

func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid product ID"})
	}

	product, err := h.products.ByID(id)
	if err != nil {
		if errors.Is(err, scan.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to look up product"})
	}
	return c.JSON(productResponse(product))
}
