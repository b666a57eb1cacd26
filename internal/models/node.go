package models

import (
	"time"

	"gorm.io/gorm"
)

// ConnectionMethod is how the backend reaches a service node
type ConnectionMethod string

const (
	ConnectionMethodAPI  ConnectionMethod = "api"
	ConnectionMethodSNMP ConnectionMethod = "snmp"
)

// ServiceNode represents a router, OLT or gateway in the network inventory
type ServiceNode struct {
	ID               uint             `gorm:"column:id;primaryKey" json:"id"`
	Name             string           `gorm:"column:name;size:100;not null" json:"name"`
	IPAddress        string           `gorm:"column:ip_address;size:50;not null;uniqueIndex" json:"ip_address"`
	Type             string           `gorm:"column:type;size:50;default:mikrotik" json:"type"`
	ConnectionMethod ConnectionMethod `gorm:"column:connection_method;size:10;default:api" json:"connection_method"`
	Description      string           `gorm:"column:description;size:255" json:"description"`

	// RouterOS API
	APIUsername string `gorm:"column:api_username;size:100" json:"api_username"`
	APIPassword string `gorm:"column:api_password;size:255" json:"-"`
	APIPort     int    `gorm:"column:api_port;default:8728" json:"api_port"`

	// SNMP fallback probing
	SNMPPort      int    `gorm:"column:snmp_port;default:161" json:"snmp_port"`
	SNMPCommunity string `gorm:"column:snmp_community;size:100" json:"-"`

	// RADIUS CoA (session kick when API teardown is unavailable)
	CoAPort   int    `gorm:"column:coa_port;default:1700" json:"coa_port"`
	CoASecret string `gorm:"column:coa_secret;size:100" json:"-"`

	// OLT driver settings
	OltVendor string `gorm:"column:olt_vendor;size:50" json:"olt_vendor"`
	CLIPort   int    `gorm:"column:cli_port;default:23" json:"cli_port"`

	// Status (mutated by health-check jobs, never auto-deleted)
	IsActive bool       `gorm:"column:is_active;default:true" json:"is_active"`
	IsOnline bool       `gorm:"column:is_online;default:false" json:"is_online"`
	LastSeen *time.Time `gorm:"column:last_seen" json:"last_seen"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (ServiceNode) TableName() string {
	return "service_nodes"
}

// APIAddress returns the host:port for the RouterOS API
func (n *ServiceNode) APIAddress() string {
	port := n.APIPort
	if port == 0 {
		port = 8728
	}
	return joinHostPort(n.IPAddress, port)
}
