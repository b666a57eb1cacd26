package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/nusalink/backend/internal/database"
	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/router"
)

type CustomerHandler struct {
	gateway *router.Gateway
}

func NewCustomerHandler(gateway *router.Gateway) *CustomerHandler {
	return &CustomerHandler{gateway: gateway}
}

// List returns all customers, optionally filtered by status
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	query := database.DB.Preload("Plan").Order("id DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if routerID := c.QueryInt("router_id"); routerID > 0 {
		query = query.Where("router_id = ?", routerID)
	}

	var customers []models.Customer
	if err := query.Find(&customers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch customers",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    customers,
	})
}

// Get returns a single customer with plan and devices
func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid customer ID",
		})
	}

	var customer models.Customer
	if err := database.DB.Preload("Plan").First(&customer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Customer not found",
		})
	}

	var devices []models.CustomerDevice
	database.DB.Where("customer_id = ?", customer.ID).Find(&devices)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    customer,
		"devices": devices,
	})
}

// CreateCustomerRequest represents create customer request
type CreateCustomerRequest struct {
	FullName          string  `json:"full_name"`
	Phone             string  `json:"phone"`
	Address           string  `json:"address"`
	MikrotikLogin     string  `json:"mikrotik_login"`
	MikrotikPassword  string  `json:"mikrotik_password"`
	RouterID          uint    `json:"router_id"`
	OltID             *uint   `json:"olt_id"`
	BillingPlanID     uint    `json:"billing_plan_id"`
	BillingCycleStart int     `json:"billing_cycle_start"`
	IsTaxed           bool    `json:"is_taxed"`
	UniqueCode        int     `json:"unique_code"`
	Saldo             float64 `json:"saldo"`
}

// Create registers a customer and pushes the credentials to the router
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var req CreateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.MikrotikLogin == "" || req.MikrotikPassword == "" || req.RouterID == 0 || req.BillingPlanID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Login, password, router and plan are required",
		})
	}

	var existingCount int64
	database.DB.Model(&models.Customer{}).Where("mikrotik_login = ?", req.MikrotikLogin).Count(&existingCount)
	if existingCount > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Customer with this login already exists",
		})
	}

	cycleStart := req.BillingCycleStart
	if cycleStart < 1 || cycleStart > 28 {
		cycleStart = 1
	}

	customer := models.Customer{
		FullName:          req.FullName,
		Phone:             req.Phone,
		Address:           req.Address,
		MikrotikLogin:     req.MikrotikLogin,
		MikrotikPassword:  req.MikrotikPassword,
		RouterID:          req.RouterID,
		OltID:             req.OltID,
		BillingPlanID:     req.BillingPlanID,
		Status:            models.CustomerStatusActive,
		Saldo:             req.Saldo,
		BillingCycleStart: cycleStart,
		IsTaxed:           req.IsTaxed,
		UniqueCode:        req.UniqueCode,
	}

	if err := database.DB.Create(&customer).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create customer",
		})
	}
	database.DB.Preload("Plan").First(&customer, customer.ID)

	// Best-effort push; the record stands even if the router is down.
	routerResult := h.pushToRouter(&customer, h.gateway.CreateCustomer)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":       true,
		"message":       "Customer created",
		"data":          customer,
		"router_synced": routerResult.OK,
	})
}

// UpdateCustomerRequest represents update customer request
type UpdateCustomerRequest struct {
	FullName         *string `json:"full_name"`
	Phone            *string `json:"phone"`
	Address          *string `json:"address"`
	MikrotikPassword *string `json:"mikrotik_password"`
	BillingPlanID    *uint   `json:"billing_plan_id"`
	IsTaxed          *bool   `json:"is_taxed"`
	UniqueCode       *int    `json:"unique_code"`
}

// Update modifies a customer and re-syncs the router
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid customer ID",
		})
	}

	var customer models.Customer
	if err := database.DB.Preload("Plan").First(&customer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Customer not found",
		})
	}

	var req UpdateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.FullName != nil {
		customer.FullName = *req.FullName
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.Address != nil {
		customer.Address = *req.Address
	}
	if req.MikrotikPassword != nil && *req.MikrotikPassword != "" {
		customer.MikrotikPassword = *req.MikrotikPassword
	}
	if req.BillingPlanID != nil {
		customer.BillingPlanID = *req.BillingPlanID
	}
	if req.IsTaxed != nil {
		customer.IsTaxed = *req.IsTaxed
	}
	if req.UniqueCode != nil {
		customer.UniqueCode = *req.UniqueCode
	}

	if err := database.DB.Save(&customer).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update customer",
		})
	}
	database.DB.Preload("Plan").First(&customer, customer.ID)

	routerResult := h.pushToRouter(&customer, h.gateway.UpdateCustomer)

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "Customer updated",
		"data":          customer,
		"router_synced": routerResult.OK,
	})
}

// Suspend disables the customer on the router and flips the DB status
func (h *CustomerHandler) Suspend(c *fiber.Ctx) error {
	return h.setAccess(c, models.CustomerStatusSuspended, h.gateway.SuspendCustomer, "Customer suspended")
}

// Reactivate re-enables the customer on the router and flips the DB status
func (h *CustomerHandler) Reactivate(c *fiber.Ctx) error {
	return h.setAccess(c, models.CustomerStatusActive, h.gateway.ReactivateCustomer, "Customer reactivated")
}

// Delete tears the customer down from the router and soft-deletes the record
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid customer ID",
		})
	}

	var customer models.Customer
	if err := database.DB.Preload("Plan").First(&customer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Customer not found",
		})
	}

	routerResult := h.pushToRouter(&customer, h.gateway.DeleteCustomer)

	if err := database.DB.Delete(&customer).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete customer",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "Customer deleted",
		"router_synced": routerResult.OK,
	})
}

// Session returns the customer's live session, if any
func (h *CustomerHandler) Session(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid customer ID",
		})
	}

	var customer models.Customer
	if err := database.DB.First(&customer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Customer not found",
		})
	}

	var node models.ServiceNode
	if err := database.DB.First(&node, customer.RouterID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Router not found",
		})
	}

	session := h.gateway.FindActiveSessionByLogin(&node, customer.MikrotikLogin)
	return c.JSON(fiber.Map{
		"success": true,
		"online":  session != nil,
		"data":    session,
	})
}

func (h *CustomerHandler) setAccess(c *fiber.Ctx, status models.CustomerStatus,
	op func(*models.ServiceNode, *models.Customer) router.OpResult, message string) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid customer ID",
		})
	}

	var customer models.Customer
	if err := database.DB.Preload("Plan").First(&customer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Customer not found",
		})
	}

	if err := database.DB.Model(&customer).Update("status", status).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update status",
		})
	}
	customer.Status = status

	routerResult := h.pushToRouter(&customer, op)

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       message,
		"router_synced": routerResult.OK,
		"router_code":   routerResult.Code,
	})
}

func (h *CustomerHandler) pushToRouter(customer *models.Customer,
	op func(*models.ServiceNode, *models.Customer) router.OpResult) router.OpResult {
	var node models.ServiceNode
	if err := database.DB.First(&node, customer.RouterID).Error; err != nil {
		return router.OpResult{OK: false, Code: router.CodeMisconfigured, Err: err}
	}
	return op(&node, customer)
}
