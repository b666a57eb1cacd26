package models

import (
	"time"
)

// SessionMode controls which subscriber mechanisms a plan provisions on the
// router. Dual preserves the historical behavior of creating both a PPPoE
// secret and a Hotspot user.
type SessionMode string

const (
	SessionModePPPoE   SessionMode = "pppoe"
	SessionModeHotspot SessionMode = "hotspot"
	SessionModeDual    SessionMode = "dual"
)

// Plan represents a billing/service plan
type Plan struct {
	ID            uint        `gorm:"column:id;primaryKey" json:"id"`
	Name          string      `gorm:"column:name;size:100;not null" json:"name"`
	Price         float64     `gorm:"column:price;type:decimal(15,2);not null" json:"price"`
	MikrotikGroup string      `gorm:"column:mikrotik_group;size:100" json:"mikrotik_group"`
	RateLimit     string      `gorm:"column:rate_limit;size:50" json:"rate_limit"` // e.g. "10M/10M"
	SessionMode   SessionMode `gorm:"column:session_mode;size:10;default:dual" json:"session_mode"`
	IsActive      bool        `gorm:"column:is_active;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// ProvisionsPPPoE reports whether the plan creates a PPPoE secret
func (p *Plan) ProvisionsPPPoE() bool {
	return p.SessionMode == SessionModePPPoE || p.SessionMode == SessionModeDual || p.SessionMode == ""
}

// ProvisionsHotspot reports whether the plan creates a Hotspot user
func (p *Plan) ProvisionsHotspot() bool {
	return p.SessionMode == SessionModeHotspot || p.SessionMode == SessionModeDual || p.SessionMode == ""
}
