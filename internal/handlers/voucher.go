package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nusalink/backend/internal/database"
	"github.com/nusalink/backend/internal/middleware"
	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/services"
)

type VoucherHandler struct {
	vouchers *services.VoucherService
}

func NewVoucherHandler(vouchers *services.VoucherService) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers}
}

// List returns vouchers, optionally by batch or status
func (h *VoucherHandler) List(c *fiber.Ctx) error {
	query := database.DB.Order("id DESC")
	if batch := c.Query("batch"); batch != "" {
		query = query.Where("batch_id = ?", batch)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var vouchers []models.Voucher
	if err := query.Limit(1000).Find(&vouchers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch vouchers",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    vouchers,
	})
}

// GenerateRequest represents batch generation request
type GenerateRequest struct {
	Count   int     `json:"count"`
	Profile string  `json:"profile"`
	Price   float64 `json:"price"`
}

// Generate creates a voucher batch
func (h *VoucherHandler) Generate(c *fiber.Ctx) error {
	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	batchID, vouchers, err := h.vouchers.GenerateBatch(req.Count, req.Profile, req.Price, middleware.GetCurrentUserID(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Batch generated",
		"batch":   batchID,
		"data":    vouchers,
	})
}

// RedeemRequest represents redemption request
type RedeemRequest struct {
	Code       string `json:"code"`
	CustomerID uint   `json:"customer_id"`
}

// Redeem burns a voucher into a customer's saldo
func (h *VoucherHandler) Redeem(c *fiber.Ctx) error {
	var req RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if req.Code == "" || req.CustomerID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Code and customer_id are required",
		})
	}

	result := h.vouchers.Redeem(req.Code, req.CustomerID, middleware.GetCurrentUserID(c))
	if !result.Success {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": result.Message,
			"data":    result,
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Voucher redeemed",
		"data":    result,
	})
}
