package olt

import (
	"fmt"
	"sync"

	"github.com/nusalink/backend/internal/models"
)

// mockDriver is a deterministic stand-in for environments without OLT
// hardware. Registered ONUs live in memory for the process lifetime.
type mockDriver struct {
	mu         sync.Mutex
	registered map[string]mockONU
}

type mockONU struct {
	profile string
	vlan    int
	reboots int
}

var sharedMock = &mockDriver{registered: make(map[string]mockONU)}

// NewMockDriver returns the shared in-memory driver regardless of node, so
// registrations survive across service calls within one process.
func NewMockDriver(_ *models.ServiceNode) Driver {
	return sharedMock
}

func (d *mockDriver) RegisterONU(serial, profile string, vlan int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	// Upsert by serial, same as real OLTs: re-registering is not an error.
	onu := d.registered[serial]
	onu.profile = profile
	onu.vlan = vlan
	d.registered[serial] = onu
	return nil
}

func (d *mockDriver) GetSignal(serial string) (*Signal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.registered[serial]; !ok {
		return nil, fmt.Errorf("ONU %s not registered", serial)
	}
	return &Signal{RxPowerDBm: -19.5, TxPowerDBm: 2.4, Temperature: 45.0}, nil
}

func (d *mockDriver) RebootONU(serial string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	onu, ok := d.registered[serial]
	if !ok {
		return fmt.Errorf("ONU %s not registered", serial)
	}
	onu.reboots++
	d.registered[serial] = onu
	return nil
}

// RegisteredCount reports how many ONUs the mock holds (test helper)
func (d *mockDriver) RegisteredCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.registered)
}
