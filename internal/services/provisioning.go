package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/olt"
	"github.com/nusalink/backend/internal/radiusdb"
	"gorm.io/gorm"
)

// RequestDetails is the JSON payload carried by a service request
type RequestDetails struct {
	RateLimit  string `json:"rate_limit,omitempty"`
	OltProfile string `json:"olt_profile,omitempty"`
	Vlan       int    `json:"vlan,omitempty"`
}

// ProvisioningService consumes service requests and drives the external
// systems in order: RADIUS credentials, then OLT registration, then the
// device record flip. RADIUS is best-effort (repaired by the next re-sync);
// an OLT failure fails the request so an operator retries it.
type ProvisioningService struct {
	db     *gorm.DB
	radius *radiusdb.Bridge
	olt    *olt.Service
}

func NewProvisioningService(db *gorm.DB, bridge *radiusdb.Bridge, oltService *olt.Service) *ProvisioningService {
	return &ProvisioningService{db: db, radius: bridge, olt: oltService}
}

// Execute runs one service request to completion. Completed requests are a
// no-op; any failure marks the request failed with the reason and returns
// false. Nothing escapes this boundary as a panic or error.
func (s *ProvisioningService) Execute(requestID uint) bool {
	var request models.ServiceRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		log.Printf("Provisioning: request %d not found: %v", requestID, err)
		return false
	}

	if request.Status == models.ServiceRequestCompleted {
		log.Printf("Provisioning: request %d already completed, skipping", requestID)
		return true
	}

	var customer models.Customer
	if err := s.db.Preload("Plan").First(&customer, request.CustomerID).Error; err != nil {
		s.fail(&request, fmt.Errorf("customer %d: %w", request.CustomerID, err))
		return false
	}

	var details RequestDetails
	if request.Details != "" {
		if err := json.Unmarshal([]byte(request.Details), &details); err != nil {
			s.fail(&request, fmt.Errorf("bad details payload: %w", err))
			return false
		}
	}

	var err error
	switch request.Type {
	case models.ServiceRequestActivation, models.ServiceRequestUpgrade:
		err = s.activate(&customer, &details)
	case models.ServiceRequestCancellation:
		err = s.cancel(&customer)
	default:
		err = fmt.Errorf("unknown request type %q", request.Type)
	}
	if err != nil {
		s.fail(&request, err)
		return false
	}

	now := time.Now().UTC()
	if err := s.db.Model(&request).Updates(map[string]interface{}{
		"status":       models.ServiceRequestCompleted,
		"last_error":   "",
		"completed_at": &now,
	}).Error; err != nil {
		log.Printf("Provisioning: request %d done but status update failed: %v", requestID, err)
		return false
	}

	log.Printf("Provisioning: request %d (%s) for customer %d completed", requestID, request.Type, customer.ID)
	return true
}

// activate pushes credentials to RADIUS, registers the ONU when the customer
// is bound to an OLT and flips the device record active. Upgrade is the same
// flow; every step is an upsert so replays converge instead of duplicating.
func (s *ProvisioningService) activate(customer *models.Customer, details *RequestDetails) error {
	rateLimit := details.RateLimit
	if rateLimit == "" {
		rateLimit = customer.Plan.RateLimit
	}

	attrs := map[string]string{}
	if rateLimit != "" {
		attrs["Mikrotik-Rate-Limit"] = rateLimit
	}
	if !s.radius.SyncUser(customer.MikrotikLogin, customer.MikrotikPassword, attrs) {
		log.Printf("Provisioning: RADIUS sync for %s failed, continuing (next re-sync repairs)", customer.MikrotikLogin)
	} else if customer.Plan.MikrotikGroup != "" {
		s.radius.AssignGroup(customer.MikrotikLogin, customer.Plan.MikrotikGroup)
	}

	device, err := s.findDevice(customer.ID)
	if err != nil {
		return err
	}

	if customer.OltID != nil && device != nil {
		var node models.ServiceNode
		if err := s.db.First(&node, *customer.OltID).Error; err != nil {
			return fmt.Errorf("olt node %d: %w", *customer.OltID, err)
		}
		if !s.olt.RegisterONU(&node, device.SerialNumber, details.OltProfile, details.Vlan) {
			return fmt.Errorf("ONU registration for %s on node %d failed", device.SerialNumber, node.ID)
		}
	}

	if device != nil {
		now := time.Now().UTC()
		if err := s.db.Model(device).Updates(map[string]interface{}{
			"status":          models.DeviceStatusActive,
			"activated_at":    &now,
			"expiration_date": nil,
		}).Error; err != nil {
			return fmt.Errorf("activate device %d: %w", device.ID, err)
		}
	}
	return nil
}

// cancel retires the device and removes the subscriber from RADIUS
func (s *ProvisioningService) cancel(customer *models.Customer) error {
	device, err := s.findDevice(customer.ID)
	if err != nil {
		return err
	}

	if device != nil {
		now := time.Now().UTC()
		if err := s.db.Model(device).Updates(map[string]interface{}{
			"status":          models.DeviceStatusInactive,
			"expiration_date": &now,
		}).Error; err != nil {
			return fmt.Errorf("deactivate device %d: %w", device.ID, err)
		}
	}

	if !s.radius.RemoveUser(customer.MikrotikLogin) {
		log.Printf("Provisioning: RADIUS removal for %s incomplete, continuing", customer.MikrotikLogin)
	}
	return nil
}

// findDevice returns the customer's device, nil if they have none
func (s *ProvisioningService) findDevice(customerID uint) (*models.CustomerDevice, error) {
	var device models.CustomerDevice
	err := s.db.Where("customer_id = ?", customerID).First(&device).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("device for customer %d: %w", customerID, err)
	}
	return &device, nil
}

func (s *ProvisioningService) fail(request *models.ServiceRequest, cause error) {
	log.Printf("Provisioning: request %d (%s) failed: %v", request.ID, request.Type, cause)
	if err := s.db.Model(request).Updates(map[string]interface{}{
		"status":     models.ServiceRequestFailed,
		"last_error": truncate(cause.Error(), 500),
	}).Error; err != nil {
		log.Printf("Provisioning: cannot record failure on request %d: %v", request.ID, err)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
