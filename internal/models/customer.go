package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// CustomerStatus represents the status of a customer subscription
type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "active"
	CustomerStatusSuspended CustomerStatus = "suspended"
	CustomerStatusInactive  CustomerStatus = "inactive"
)

// Customer represents a subscriber. status=suspended must imply router and
// RADIUS access is disabled; the billing/provisioning services maintain that
// by idempotent re-sync, not by cross-system transactions.
type Customer struct {
	ID       uint   `gorm:"column:id;primaryKey" json:"id"`
	FullName string `gorm:"column:full_name;size:255" json:"full_name"`
	Phone    string `gorm:"column:phone;size:50" json:"phone"`
	Address  string `gorm:"column:address;size:500" json:"address"`

	// Credentials pushed to router and RADIUS
	MikrotikLogin    string `gorm:"column:mikrotik_login;size:100;not null;uniqueIndex" json:"mikrotik_login"`
	MikrotikPassword string `gorm:"column:mikrotik_password;size:255;not null" json:"-"`

	// Network bindings
	RouterID uint  `gorm:"column:router_id;not null;index" json:"router_id"`
	OltID    *uint `gorm:"column:olt_id;index" json:"olt_id"`

	// Service & billing
	BillingPlanID     uint           `gorm:"column:billing_plan_id;not null" json:"billing_plan_id"`
	Plan              Plan           `gorm:"foreignKey:BillingPlanID" json:"plan"`
	Status            CustomerStatus `gorm:"column:status;size:20;default:active;index" json:"status"`
	Saldo             float64        `gorm:"column:saldo;type:decimal(15,2);default:0" json:"saldo"`
	BillingCycleStart int            `gorm:"column:billing_cycle_start;default:1" json:"billing_cycle_start"` // day of month
	IsTaxed           bool           `gorm:"column:is_taxed;default:false" json:"is_taxed"`
	UniqueCode        int            `gorm:"column:unique_code;default:0" json:"unique_code"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}

// DeviceStatus represents the lifecycle state of a customer device
type DeviceStatus string

const (
	DeviceStatusActive   DeviceStatus = "active"
	DeviceStatusInactive DeviceStatus = "inactive"
)

// CustomerDevice is an ONU or CPE bound to a customer. Lifecycle transitions
// are driven only by the provisioning orchestrator.
type CustomerDevice struct {
	ID             uint         `gorm:"column:id;primaryKey" json:"id"`
	CustomerID     uint         `gorm:"column:customer_id;not null;index" json:"customer_id"`
	SerialNumber   string       `gorm:"column:serial_number;size:100;not null;uniqueIndex" json:"serial_number"`
	Status         DeviceStatus `gorm:"column:status;size:20;default:inactive;index" json:"status"`
	ActivatedAt    *time.Time   `gorm:"column:activated_at" json:"activated_at"`
	ExpirationDate *time.Time   `gorm:"column:expiration_date" json:"expiration_date"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (CustomerDevice) TableName() string {
	return "customer_devices"
}

// ServiceRequestType represents the kind of work order
type ServiceRequestType string

const (
	ServiceRequestActivation   ServiceRequestType = "Activation"
	ServiceRequestUpgrade      ServiceRequestType = "Upgrade"
	ServiceRequestCancellation ServiceRequestType = "Cancellation"
)

// ServiceRequestStatus tracks orchestrator consumption
type ServiceRequestStatus string

const (
	ServiceRequestPending   ServiceRequestStatus = "pending"
	ServiceRequestCompleted ServiceRequestStatus = "completed"
	ServiceRequestFailed    ServiceRequestStatus = "failed"
)

// ServiceRequest is a work order consumed by the provisioning orchestrator.
// Re-running a completed request is a no-op.
type ServiceRequest struct {
	ID          uint                 `gorm:"column:id;primaryKey" json:"id"`
	CustomerID  uint                 `gorm:"column:customer_id;not null;index" json:"customer_id"`
	Type        ServiceRequestType   `gorm:"column:type;size:20;not null" json:"type"`
	Details     string               `gorm:"column:details;type:text" json:"details"` // JSON: rate_limit, olt_profile, vlan
	Status      ServiceRequestStatus `gorm:"column:status;size:20;default:pending;index" json:"status"`
	LastError   string               `gorm:"column:last_error;size:500" json:"last_error"`
	CompletedAt *time.Time           `gorm:"column:completed_at" json:"completed_at"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ServiceRequest) TableName() string {
	return "service_requests"
}

func joinHostPort(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
