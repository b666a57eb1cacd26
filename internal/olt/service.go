package olt

import (
	"errors"
	"log"

	"github.com/nusalink/backend/internal/models"
)

// Service wraps driver calls so callers never see driver-layer errors:
// transient faults are logged and converted to false/nil results. The one
// exception is an unregistered vendor tag, which is misconfiguration and is
// returned as a real error by GetDriver.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// GetDriver resolves the driver for a node. Unknown vendors are an error.
func (s *Service) GetDriver(node *models.ServiceNode) (Driver, error) {
	return NewDriver(node)
}

// RegisterONU registers an ONU on the node's OLT. Returns false on any
// driver failure; re-registering the same serial is an upsert, not an error.
func (s *Service) RegisterONU(node *models.ServiceNode, serial, profile string, vlan int) bool {
	driver, err := s.GetDriver(node)
	if err != nil {
		log.Printf("OLT: node %d (%s): %v", node.ID, node.IPAddress, err)
		return false
	}
	if err := driver.RegisterONU(serial, profile, vlan); err != nil {
		log.Printf("OLT: RegisterONU %s on node %d (%s) failed: %v", serial, node.ID, node.IPAddress, err)
		return false
	}
	log.Printf("OLT: registered ONU %s on node %d (profile=%s vlan=%d)", serial, node.ID, profile, vlan)
	return true
}

// GetSignal reads the optical signal for an ONU, nil on failure
func (s *Service) GetSignal(node *models.ServiceNode, serial string) *Signal {
	driver, err := s.GetDriver(node)
	if err != nil {
		log.Printf("OLT: node %d (%s): %v", node.ID, node.IPAddress, err)
		return nil
	}
	sig, err := driver.GetSignal(serial)
	if err != nil {
		log.Printf("OLT: GetSignal %s on node %d (%s) failed: %v", serial, node.ID, node.IPAddress, err)
		return nil
	}
	return sig
}

// RebootONU reboots an ONU, false on failure
func (s *Service) RebootONU(node *models.ServiceNode, serial string) bool {
	driver, err := s.GetDriver(node)
	if err != nil {
		log.Printf("OLT: node %d (%s): %v", node.ID, node.IPAddress, err)
		return false
	}
	if err := driver.RebootONU(serial); err != nil {
		log.Printf("OLT: RebootONU %s on node %d (%s) failed: %v", serial, node.ID, node.IPAddress, err)
		return false
	}
	return true
}

// IsUnsupportedVendor reports whether err is the misconfiguration case
func IsUnsupportedVendor(err error) bool {
	return errors.Is(err, ErrUnsupportedVendor)
}
