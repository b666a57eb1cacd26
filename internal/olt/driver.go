package olt

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nusalink/backend/internal/models"
)

// ErrUnsupportedVendor is returned when no driver is registered for a
// node's vendor tag. This indicates misconfiguration, not a transient fault.
var ErrUnsupportedVendor = errors.New("unsupported OLT vendor")

// Signal is an optical signal readout for one ONU
type Signal struct {
	RxPowerDBm  float64 `json:"rx_power_dbm"`
	TxPowerDBm  float64 `json:"tx_power_dbm"`
	Temperature float64 `json:"temperature"`
}

// Driver is the per-vendor capability set
type Driver interface {
	RegisterONU(serial, profile string, vlan int) error
	GetSignal(serial string) (*Signal, error)
	RebootONU(serial string) error
}

// Factory builds a driver bound to one OLT node
type Factory func(node *models.ServiceNode) Driver

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a vendor driver factory under a normalized tag. Adding a
// vendor means registering here, not editing a dispatch switch.
func Register(vendor string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(vendor)] = f
}

// NewDriver dispatches on the node's vendor tag, case-insensitively
func NewDriver(node *models.ServiceNode) (Driver, error) {
	vendor := node.OltVendor
	if vendor == "" {
		vendor = node.Type
	}

	registryMu.RLock()
	f, ok := registry[strings.ToLower(vendor)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (node %d)", ErrUnsupportedVendor, vendor, node.ID)
	}
	return f(node), nil
}

func init() {
	Register("zte", NewZTEDriver)
	Register("mock", NewMockDriver)
}
