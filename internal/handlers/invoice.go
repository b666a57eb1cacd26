package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nusalink/backend/internal/database"
	"github.com/nusalink/backend/internal/middleware"
	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/services"
)

type InvoiceHandler struct {
	billing *services.BillingService
	saldo   *services.SaldoService
}

func NewInvoiceHandler(billing *services.BillingService, saldo *services.SaldoService) *InvoiceHandler {
	return &InvoiceHandler{billing: billing, saldo: saldo}
}

// List returns invoices, optionally filtered by status, period or customer
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	query := database.DB.Preload("Items").Order("id DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if period := c.Query("period"); period != "" {
		query = query.Where("period = ?", period)
	}
	if customerID := c.QueryInt("customer_id"); customerID > 0 {
		query = query.Where("customer_id = ?", customerID)
	}

	var invoices []models.Invoice
	if err := query.Limit(500).Find(&invoices).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch invoices",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    invoices,
	})
}

// Get returns a single invoice with line items
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid invoice ID",
		})
	}

	var invoice models.Invoice
	if err := database.DB.Preload("Items").First(&invoice, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Invoice not found",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    invoice,
		"overdue": invoice.IsOverdue(time.Now()),
	})
}

// Generate creates this period's invoice for a customer on demand
func (h *InvoiceHandler) Generate(c *fiber.Ctx) error {
	customerID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid customer ID",
		})
	}

	var customer models.Customer
	if err := database.DB.Preload("Plan").First(&customer, customerID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Customer not found",
		})
	}

	invoice, err := h.billing.GenerateInvoiceForCustomer(&customer, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to generate invoice",
		})
	}
	if invoice == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Invoice for this period already exists",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Invoice generated",
		"data":    invoice,
	})
}

// PayWithSaldo settles an invoice from the customer's balance
func (h *InvoiceHandler) PayWithSaldo(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid invoice ID",
		})
	}

	var invoice models.Invoice
	if err := database.DB.First(&invoice, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Invoice not found",
		})
	}

	result := h.saldo.PayWithSaldo(invoice.CustomerID, invoice.ID, middleware.GetCurrentUserID(c))
	if !result.Success {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": result.Message,
			"data":    result,
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Invoice paid",
		"data":    result,
	})
}

// RunBilling triggers the daily billing cycle manually
func (h *InvoiceHandler) RunBilling(c *fiber.Ctx) error {
	now := time.Now()
	created := h.billing.GenerateInvoicesForToday(now)
	suspended, failed := h.billing.SuspendOverdueCustomers(now)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"invoices_created":    created,
			"customers_suspended": suspended,
			"errors":              failed,
		},
	})
}
