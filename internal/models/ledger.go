package models

import (
	"time"
)

// TransactionType represents the direction of a ledger entry
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// Transaction is an append-only saldo ledger entry. Balances are snapshotted
// at write time and never recomputed: saldo_after of a customer's latest row
// must always equal the live Customer.saldo.
type Transaction struct {
	ID            uint            `gorm:"column:id;primaryKey" json:"id"`
	CustomerID    uint            `gorm:"column:customer_id;not null;index" json:"customer_id"`
	Type          TransactionType `gorm:"column:type;size:10;not null;index" json:"type"`
	Amount        float64         `gorm:"column:amount;type:decimal(15,2);not null" json:"amount"`
	SaldoBefore   float64         `gorm:"column:saldo_before;type:decimal(15,2)" json:"saldo_before"`
	SaldoAfter    float64         `gorm:"column:saldo_after;type:decimal(15,2)" json:"saldo_after"`
	Category      string          `gorm:"column:category;size:50;index" json:"category"` // topup, invoice_payment, voucher, adjustment
	Description   string          `gorm:"column:description;size:500" json:"description"`
	ReferenceType string          `gorm:"column:reference_type;size:50" json:"reference_type"` // e.g. invoice
	ReferenceID   *uint           `gorm:"column:reference_id" json:"reference_id"`
	CreatedBy     uint            `gorm:"column:created_by" json:"created_by"` // operator user id, 0 = system

	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
