package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/nusalink/backend/internal/database"
	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/services"
)

type BgpHandler struct {
	bgp *services.BgpService
}

func NewBgpHandler(bgp *services.BgpService) *BgpHandler {
	return &BgpHandler{bgp: bgp}
}

// AsOverview looks up an ASN on RIPEstat
func (h *BgpHandler) AsOverview(c *fiber.Ctx) error {
	asn, err := strconv.Atoi(c.Params("asn"))
	if err != nil || asn <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid ASN",
		})
	}

	overview, err := h.bgp.GetAsOverview(asn)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "RIPEstat lookup failed",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    overview,
	})
}

// Prefixes lists the prefixes announced by an ASN
func (h *BgpHandler) Prefixes(c *fiber.Ctx) error {
	asn, err := strconv.Atoi(c.Params("asn"))
	if err != nil || asn <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid ASN",
		})
	}

	prefixes, err := h.bgp.GetAnnouncedPrefixes(asn)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "RIPEstat lookup failed",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    prefixes,
		"count":   len(prefixes),
	})
}

// PushRequest represents an address-list push
type PushRequest struct {
	NodeID   uint   `json:"node_id"`
	ASN      int    `json:"asn"`
	ListName string `json:"list_name"`
}

// Push renders an ASN's prefixes into an address-list script and uploads it
// to the router's file store for import.
func (h *BgpHandler) Push(c *fiber.Ctx) error {
	var req PushRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if req.NodeID == 0 || req.ASN <= 0 || req.ListName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "node_id, asn and list_name are required",
		})
	}

	var node models.ServiceNode
	if err := database.DB.First(&node, req.NodeID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Node not found",
		})
	}

	count, err := h.bgp.PushPrefixList(&node, req.ASN, req.ListName)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Address list uploaded",
		"prefixes": count,
	})
}
