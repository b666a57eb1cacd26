package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/nusalink/backend/internal/database"
	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/services"
)

type RequestHandler struct {
	provisioning *services.ProvisioningService
}

func NewRequestHandler(provisioning *services.ProvisioningService) *RequestHandler {
	return &RequestHandler{provisioning: provisioning}
}

// List returns service requests, newest first
func (h *RequestHandler) List(c *fiber.Ctx) error {
	query := database.DB.Order("id DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := c.QueryInt("customer_id"); customerID > 0 {
		query = query.Where("customer_id = ?", customerID)
	}

	var requests []models.ServiceRequest
	if err := query.Limit(200).Find(&requests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch service requests",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    requests,
	})
}

// Get returns a single service request
func (h *RequestHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request ID",
		})
	}

	var request models.ServiceRequest
	if err := database.DB.First(&request, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Service request not found",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    request,
	})
}

// CreateRequestBody represents create service request body
type CreateRequestBody struct {
	CustomerID uint                    `json:"customer_id"`
	Type       string                  `json:"type"`
	Details    services.RequestDetails `json:"details"`
	Execute    bool                    `json:"execute"`
}

// Create files a work order, optionally executing it immediately
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var body CreateRequestBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	reqType := models.ServiceRequestType(body.Type)
	switch reqType {
	case models.ServiceRequestActivation, models.ServiceRequestUpgrade, models.ServiceRequestCancellation:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Type must be Activation, Upgrade or Cancellation",
		})
	}

	var customerCount int64
	database.DB.Model(&models.Customer{}).Where("id = ?", body.CustomerID).Count(&customerCount)
	if customerCount == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Customer not found",
		})
	}

	detailsJSON, err := json.Marshal(body.Details)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid details",
		})
	}

	request := models.ServiceRequest{
		CustomerID: body.CustomerID,
		Type:       reqType,
		Details:    string(detailsJSON),
		Status:     models.ServiceRequestPending,
	}
	if err := database.DB.Create(&request).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create service request",
		})
	}

	executed := false
	if body.Execute {
		executed = h.provisioning.Execute(request.ID)
		database.DB.First(&request, request.ID)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "Service request created",
		"data":     request,
		"executed": executed,
	})
}

// Execute runs (or retries) a service request
func (h *RequestHandler) Execute(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request ID",
		})
	}

	var request models.ServiceRequest
	if err := database.DB.First(&request, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Service request not found",
		})
	}

	ok := h.provisioning.Execute(request.ID)
	database.DB.First(&request, request.ID)

	if !ok {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "Provisioning failed",
			"data":    request,
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Provisioning completed",
		"data":    request,
	})
}
