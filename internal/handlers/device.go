package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/nusalink/backend/internal/database"
	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/olt"
	"github.com/nusalink/backend/internal/services"
)

type DeviceHandler struct {
	olt *olt.Service
	acs *services.AcsService
}

func NewDeviceHandler(oltService *olt.Service, acs *services.AcsService) *DeviceHandler {
	return &DeviceHandler{olt: oltService, acs: acs}
}

// List returns customer devices
func (h *DeviceHandler) List(c *fiber.Ctx) error {
	query := database.DB.Order("id DESC")
	if customerID := c.QueryInt("customer_id"); customerID > 0 {
		query = query.Where("customer_id = ?", customerID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var devices []models.CustomerDevice
	if err := query.Find(&devices).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch devices",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    devices,
	})
}

// CreateDeviceRequest represents device registration
type CreateDeviceRequest struct {
	CustomerID   uint   `json:"customer_id"`
	SerialNumber string `json:"serial_number"`
}

// Create records a device for a customer (inactive until provisioned)
func (h *DeviceHandler) Create(c *fiber.Ctx) error {
	var req CreateDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if req.CustomerID == 0 || req.SerialNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "customer_id and serial_number are required",
		})
	}

	var existingCount int64
	database.DB.Model(&models.CustomerDevice{}).Where("serial_number = ?", req.SerialNumber).Count(&existingCount)
	if existingCount > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Device with this serial already exists",
		})
	}

	device := models.CustomerDevice{
		CustomerID:   req.CustomerID,
		SerialNumber: req.SerialNumber,
		Status:       models.DeviceStatusInactive,
	}
	if err := database.DB.Create(&device).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create device",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Device registered",
		"data":    device,
	})
}

// Signal reads the optical levels for a device from its OLT
func (h *DeviceHandler) Signal(c *fiber.Ctx) error {
	device, node, errResp := h.resolveDevice(c)
	if device == nil {
		return errResp
	}
	if node == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Customer has no OLT bound",
		})
	}

	signal := h.olt.GetSignal(node, device.SerialNumber)
	if signal == nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "Could not read signal",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    signal,
	})
}

// Reboot power-cycles the ONU through its OLT
func (h *DeviceHandler) Reboot(c *fiber.Ctx) error {
	device, node, errResp := h.resolveDevice(c)
	if device == nil {
		return errResp
	}
	if node == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Customer has no OLT bound",
		})
	}

	if !h.olt.RebootONU(node, device.SerialNumber) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "Reboot failed",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Reboot sent",
	})
}

// CpeReboot reboots the CPE through the ACS (TR-069) instead of the OLT
func (h *DeviceHandler) CpeReboot(c *fiber.Ctx) error {
	device, _, errResp := h.resolveDevice(c)
	if device == nil {
		return errResp
	}

	acsDevice, err := h.acs.FindDeviceBySerial(device.SerialNumber)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	if err := h.acs.Reboot(acsDevice.ID); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "CPE reboot queued",
	})
}

// SetWifiRequest represents a WiFi reconfiguration
type SetWifiRequest struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// SetWifi pushes new WiFi settings to the CPE over TR-069
func (h *DeviceHandler) SetWifi(c *fiber.Ctx) error {
	device, _, errResp := h.resolveDevice(c)
	if device == nil {
		return errResp
	}

	var req SetWifiRequest
	if err := c.BodyParser(&req); err != nil || req.SSID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "ssid is required",
		})
	}

	acsDevice, err := h.acs.FindDeviceBySerial(device.SerialNumber)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	params := map[string]interface{}{
		"InternetGatewayDevice.LANDevice.1.WLANConfiguration.1.SSID": req.SSID,
	}
	if req.Password != "" {
		params["InternetGatewayDevice.LANDevice.1.WLANConfiguration.1.PreSharedKey.1.KeyPassphrase"] = req.Password
	}
	if err := h.acs.SetParameterValues(acsDevice.ID, params); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "WiFi settings queued",
	})
}

// resolveDevice loads the device and its customer's OLT node. On failure the
// returned device is nil and the error response has already been written.
func (h *DeviceHandler) resolveDevice(c *fiber.Ctx) (*models.CustomerDevice, *models.ServiceNode, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid device ID",
		})
	}

	var device models.CustomerDevice
	if err := database.DB.First(&device, id).Error; err != nil {
		return nil, nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Device not found",
		})
	}

	var customer models.Customer
	if err := database.DB.First(&customer, device.CustomerID).Error; err != nil {
		return nil, nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Customer not found",
		})
	}
	// ACS operations work without an OLT binding.
	if customer.OltID == nil {
		return &device, nil, nil
	}

	var node models.ServiceNode
	if err := database.DB.First(&node, *customer.OltID).Error; err != nil {
		return nil, nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "OLT node not found",
		})
	}

	return &device, &node, nil
}
