package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nusalink/backend/internal/database"
	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/router"
)

type NodeHandler struct {
	gateway *router.Gateway
}

func NewNodeHandler(gateway *router.Gateway) *NodeHandler {
	return &NodeHandler{gateway: gateway}
}

// List returns all service nodes
func (h *NodeHandler) List(c *fiber.Ctx) error {
	var nodes []models.ServiceNode
	query := database.DB.Order("name ASC")
	if nodeType := c.Query("type"); nodeType != "" {
		query = query.Where("type = ?", nodeType)
	}
	if err := query.Find(&nodes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch nodes",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    nodes,
	})
}

// Get returns a single node
func (h *NodeHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid node ID",
		})
	}

	var node models.ServiceNode
	if err := database.DB.First(&node, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Node not found",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    node,
	})
}

// CreateNodeRequest represents create node request
type CreateNodeRequest struct {
	Name             string `json:"name"`
	IPAddress        string `json:"ip_address"`
	Type             string `json:"type"`
	ConnectionMethod string `json:"connection_method"`
	Description      string `json:"description"`
	APIUsername      string `json:"api_username"`
	APIPassword      string `json:"api_password"`
	APIPort          int    `json:"api_port"`
	SNMPPort         int    `json:"snmp_port"`
	SNMPCommunity    string `json:"snmp_community"`
	CoAPort          int    `json:"coa_port"`
	CoASecret        string `json:"coa_secret"`
	OltVendor        string `json:"olt_vendor"`
	CLIPort          int    `json:"cli_port"`
}

// Create registers a node in the inventory
func (h *NodeHandler) Create(c *fiber.Ctx) error {
	var req CreateNodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Name == "" || req.IPAddress == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Name and IP address are required",
		})
	}

	var existingCount int64
	database.DB.Model(&models.ServiceNode{}).Where("ip_address = ?", req.IPAddress).Count(&existingCount)
	if existingCount > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Node with this IP address already exists",
		})
	}

	node := models.ServiceNode{
		Name:             req.Name,
		IPAddress:        req.IPAddress,
		Type:             req.Type,
		ConnectionMethod: models.ConnectionMethod(req.ConnectionMethod),
		Description:      req.Description,
		APIUsername:      req.APIUsername,
		APIPassword:      req.APIPassword,
		APIPort:          req.APIPort,
		SNMPPort:         req.SNMPPort,
		SNMPCommunity:    req.SNMPCommunity,
		CoAPort:          req.CoAPort,
		CoASecret:        req.CoASecret,
		OltVendor:        req.OltVendor,
		CLIPort:          req.CLIPort,
		IsActive:         true,
	}

	// Defaults
	if node.Type == "" {
		node.Type = "mikrotik"
	}
	if node.ConnectionMethod == "" {
		node.ConnectionMethod = models.ConnectionMethodAPI
	}
	if node.APIPort == 0 {
		node.APIPort = 8728
	}
	if node.SNMPPort == 0 {
		node.SNMPPort = 161
	}
	if node.CoAPort == 0 {
		node.CoAPort = 1700
	}
	if node.CLIPort == 0 {
		node.CLIPort = 23
	}

	if err := database.DB.Create(&node).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create node",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Node created",
		"data":    node,
	})
}

// Update modifies a node
func (h *NodeHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid node ID",
		})
	}

	var node models.ServiceNode
	if err := database.DB.First(&node, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Node not found",
		})
	}

	var req CreateNodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Name != "" {
		node.Name = req.Name
	}
	if req.IPAddress != "" {
		node.IPAddress = req.IPAddress
	}
	if req.Type != "" {
		node.Type = req.Type
	}
	if req.ConnectionMethod != "" {
		node.ConnectionMethod = models.ConnectionMethod(req.ConnectionMethod)
	}
	if req.Description != "" {
		node.Description = req.Description
	}
	if req.APIUsername != "" {
		node.APIUsername = req.APIUsername
	}
	if req.APIPassword != "" {
		node.APIPassword = req.APIPassword
	}
	if req.APIPort != 0 {
		node.APIPort = req.APIPort
	}
	if req.SNMPPort != 0 {
		node.SNMPPort = req.SNMPPort
	}
	if req.SNMPCommunity != "" {
		node.SNMPCommunity = req.SNMPCommunity
	}
	if req.CoAPort != 0 {
		node.CoAPort = req.CoAPort
	}
	if req.CoASecret != "" {
		node.CoASecret = req.CoASecret
	}
	if req.OltVendor != "" {
		node.OltVendor = req.OltVendor
	}
	if req.CLIPort != 0 {
		node.CLIPort = req.CLIPort
	}

	if err := database.DB.Save(&node).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update node",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Node updated",
		"data":    node,
	})
}

// Delete removes a node from the inventory
func (h *NodeHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid node ID",
		})
	}

	var boundCustomers int64
	database.DB.Model(&models.Customer{}).Where("router_id = ?", id).Count(&boundCustomers)
	if boundCustomers > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Node still has customers bound to it",
		})
	}

	if err := database.DB.Delete(&models.ServiceNode{}, id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete node",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Node deleted",
	})
}

// Test probes the node and updates its online flag
func (h *NodeHandler) Test(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid node ID",
		})
	}

	var node models.ServiceNode
	if err := database.DB.First(&node, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Node not found",
		})
	}

	online := h.gateway.CheckConnectivity(&node)
	updates := map[string]interface{}{"is_online": online}
	if online {
		now := time.Now().UTC()
		updates["last_seen"] = &now
	}
	database.DB.Model(&node).Updates(updates)

	return c.JSON(fiber.Map{
		"success": true,
		"online":  online,
	})
}

// Diagnostics returns a health snapshot: connectivity, system resources and
// live session count in one call.
func (h *NodeHandler) Diagnostics(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid node ID",
		})
	}

	var node models.ServiceNode
	if err := database.DB.First(&node, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Node not found",
		})
	}

	online := h.gateway.CheckConnectivity(&node)
	diag := fiber.Map{
		"online": online,
	}
	if online && node.ConnectionMethod == models.ConnectionMethodAPI {
		diag["resource"] = h.gateway.GetSystemResource(&node)
		diag["active_sessions"] = h.gateway.GetActiveClientCount(&node)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    diag,
	})
}

// Sessions lists live subscriber sessions on the node
func (h *NodeHandler) Sessions(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid node ID",
		})
	}

	var node models.ServiceNode
	if err := database.DB.First(&node, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Node not found",
		})
	}

	sessions := h.gateway.GetActiveSessions(&node)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    sessions,
		"count":   len(sessions),
	})
}

// Traffic returns one live traffic sample for an interface
func (h *NodeHandler) Traffic(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid node ID",
		})
	}
	iface := c.Query("interface")
	if iface == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "interface query parameter is required",
		})
	}

	var node models.ServiceNode
	if err := database.DB.First(&node, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Node not found",
		})
	}

	sample := h.gateway.GetInterfaceTraffic(&node, iface)
	if sample == nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "Could not sample traffic",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    sample,
	})
}
