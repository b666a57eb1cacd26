package models

import (
	"time"

	"gorm.io/gorm"
)

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

// Invoice represents one billing period for one customer. The composite
// unique index on (customer_id, period) enforces at-most-one invoice per
// customer per calendar period at the schema level; the billing engine also
// checks before creating.
type Invoice struct {
	ID            uint   `gorm:"column:id;primaryKey" json:"id"`
	InvoiceNumber string `gorm:"column:invoice_number;size:50;uniqueIndex;not null" json:"invoice_number"`
	CustomerID    uint   `gorm:"column:customer_id;not null;index:idx_invoice_customer_period,unique" json:"customer_id"`
	Period        string `gorm:"column:period;size:7;not null;index:idx_invoice_customer_period,unique" json:"period"` // YYYY-MM

	// Amounts. amount = subtotal + tax + unique_code; unique_code is the
	// payment-matching surcharge and is never taxed.
	Subtotal   float64 `gorm:"column:subtotal;type:decimal(15,2);not null" json:"subtotal"`
	Tax        float64 `gorm:"column:tax;type:decimal(15,2);default:0" json:"tax"`
	UniqueCode int     `gorm:"column:unique_code;default:0" json:"unique_code"`
	Amount     float64 `gorm:"column:amount;type:decimal(15,2);not null" json:"amount"`

	Status  InvoiceStatus `gorm:"column:status;size:20;default:unpaid;index" json:"status"`
	DueDate time.Time     `gorm:"column:due_date;index" json:"due_date"`
	PaidAt  *time.Time    `gorm:"column:paid_at" json:"paid_at"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// IsOverdue reports whether the invoice is unpaid past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == InvoiceStatusUnpaid && now.After(i.DueDate)
}

// InvoiceItem is a line item under an invoice, immutable after creation
type InvoiceItem struct {
	ID          uint    `gorm:"column:id;primaryKey" json:"id"`
	InvoiceID   uint    `gorm:"column:invoice_id;not null;index" json:"invoice_id"`
	Description string  `gorm:"column:description;size:255;not null" json:"description"`
	Quantity    int     `gorm:"column:quantity;default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"column:unit_price;type:decimal(15,2);not null" json:"unit_price"`
	Total       float64 `gorm:"column:total;type:decimal(15,2);not null" json:"total"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}
