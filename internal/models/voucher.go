package models

import (
	"time"
)

// VoucherStatus represents redemption state
type VoucherStatus string

const (
	VoucherStatusAvailable VoucherStatus = "Available"
	VoucherStatusUsed      VoucherStatus = "Used"
)

// Voucher is a prepaid code generated in batches and redeemed at most once
type Voucher struct {
	ID      uint          `gorm:"column:id;primaryKey" json:"id"`
	Code    string        `gorm:"column:code;size:50;uniqueIndex;not null" json:"code"`
	Profile string        `gorm:"column:profile;size:100" json:"profile"`
	Price   float64       `gorm:"column:price;type:decimal(15,2);not null" json:"price"`
	Status  VoucherStatus `gorm:"column:status;size:20;default:Available;index" json:"status"`
	BatchID string        `gorm:"column:batch_id;size:50;index" json:"batch_id"`

	UsedBy *uint      `gorm:"column:used_by" json:"used_by"`
	UsedAt *time.Time `gorm:"column:used_at" json:"used_at"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	CreatedBy uint      `gorm:"column:created_by" json:"created_by"`
}

func (Voucher) TableName() string {
	return "vouchers"
}
