package models

// FreeRADIUS schema models. These live in the separate RADIUS database
// (database.RadiusDB), never in the core schema.

// RadCheck represents RADIUS check attributes
type RadCheck struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"size:64;not null;index" json:"username"`
	Attribute string `gorm:"size:64;not null" json:"attribute"`
	Op        string `gorm:"size:2;not null;default:':='" json:"op"`
	Value     string `gorm:"size:253;not null" json:"value"`
}

// RadReply represents RADIUS reply attributes
type RadReply struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"size:64;not null;index" json:"username"`
	Attribute string `gorm:"size:64;not null" json:"attribute"`
	Op        string `gorm:"size:2;not null;default:':='" json:"op"`
	Value     string `gorm:"size:253;not null" json:"value"`
}

// RadUserGroup represents user to group mapping
type RadUserGroup struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"size:64;not null;index" json:"username"`
	GroupName string `gorm:"size:64;not null" json:"groupname"`
	Priority  int    `gorm:"default:1" json:"priority"`
}

func (RadCheck) TableName() string {
	return "radcheck"
}

func (RadReply) TableName() string {
	return "radreply"
}

func (RadUserGroup) TableName() string {
	return "radusergroup"
}
