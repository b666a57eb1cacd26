package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/nusalink/backend/internal/database"
	"github.com/nusalink/backend/internal/models"
)

type PlanHandler struct{}

func NewPlanHandler() *PlanHandler {
	return &PlanHandler{}
}

// List returns all plans
func (h *PlanHandler) List(c *fiber.Ctx) error {
	var plans []models.Plan
	if err := database.DB.Order("price ASC").Find(&plans).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch plans",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    plans,
	})
}

// PlanRequest represents create/update plan request
type PlanRequest struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	MikrotikGroup string  `json:"mikrotik_group"`
	RateLimit     string  `json:"rate_limit"`
	SessionMode   string  `json:"session_mode"`
}

// Create adds a plan
func (h *PlanHandler) Create(c *fiber.Ctx) error {
	var req PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if req.Name == "" || req.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Name and a positive price are required",
		})
	}

	mode := models.SessionMode(req.SessionMode)
	if mode == "" {
		mode = models.SessionModeDual
	}

	plan := models.Plan{
		Name:          req.Name,
		Price:         req.Price,
		MikrotikGroup: req.MikrotikGroup,
		RateLimit:     req.RateLimit,
		SessionMode:   mode,
		IsActive:      true,
	}
	if err := database.DB.Create(&plan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create plan",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Plan created",
		"data":    plan,
	})
}

// Update modifies a plan. Price changes affect invoices generated after the
// change only; existing invoices are immutable.
func (h *PlanHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid plan ID",
		})
	}

	var plan models.Plan
	if err := database.DB.First(&plan, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Plan not found",
		})
	}

	var req PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Name != "" {
		plan.Name = req.Name
	}
	if req.Price > 0 {
		plan.Price = req.Price
	}
	if req.MikrotikGroup != "" {
		plan.MikrotikGroup = req.MikrotikGroup
	}
	if req.RateLimit != "" {
		plan.RateLimit = req.RateLimit
	}
	if req.SessionMode != "" {
		plan.SessionMode = models.SessionMode(req.SessionMode)
	}

	if err := database.DB.Save(&plan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update plan",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Plan updated",
		"data":    plan,
	})
}
