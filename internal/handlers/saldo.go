package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/nusalink/backend/internal/database"
	"github.com/nusalink/backend/internal/middleware"
	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/services"
)

type SaldoHandler struct {
	saldo *services.SaldoService
}

func NewSaldoHandler(saldo *services.SaldoService) *SaldoHandler {
	return &SaldoHandler{saldo: saldo}
}

// MutationRequest represents a manual saldo mutation
type MutationRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Topup credits a customer's balance
func (h *SaldoHandler) Topup(c *fiber.Ctx) error {
	return h.mutate(c, "topup", h.saldo.AddCredit)
}

// Deduct debits a customer's balance (manual adjustment)
func (h *SaldoHandler) Deduct(c *fiber.Ctx) error {
	return h.mutate(c, "adjustment", h.saldo.AddDebit)
}

func (h *SaldoHandler) mutate(c *fiber.Ctx, category string,
	op func(uint, float64, string, string, string, *uint, uint) (*models.Transaction, error)) error {
	customerID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid customer ID",
		})
	}

	var req MutationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Amount must be positive",
		})
	}

	txn, err := op(uint(customerID), req.Amount, category, req.Description, "", nil, middleware.GetCurrentUserID(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    txn,
	})
}

// History returns a customer's ledger, newest first
func (h *SaldoHandler) History(c *fiber.Ctx) error {
	customerID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid customer ID",
		})
	}

	var entries []models.Transaction
	query := database.DB.Where("customer_id = ?", customerID).Order("id DESC").Limit(200)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch transactions",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
	})
}
