package services

import (
	"fmt"
	"log"
	"time"

	"github.com/nusalink/backend/internal/models"
	"gorm.io/gorm"
)

// SaldoService is the append-only balance ledger. Every mutation runs in a
// single DB transaction that reads the live saldo, persists the new value
// and inserts a Transaction snapshotting before/after, so the ledger can
// always be replayed and the latest saldo_after equals Customer.saldo.
type SaldoService struct {
	db *gorm.DB
}

func NewSaldoService(db *gorm.DB) *SaldoService {
	return &SaldoService{db: db}
}

// PaymentResult is the structured outcome of a saldo payment attempt
type PaymentResult struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	TransactionID uint    `json:"transaction_id,omitempty"`
	NewSaldo      float64 `json:"new_saldo"`
}

// AddCredit credits the customer balance
func (s *SaldoService) AddCredit(customerID uint, amount float64, category, description string, refType string, refID *uint, createdBy uint) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.creditInTx(tx, customerID, amount, category, description, refType, refID, createdBy)
		return err
	})
	return txn, err
}

// AddDebit debits the customer balance; refuses to overdraw
func (s *SaldoService) AddDebit(customerID uint, amount float64, category, description string, refType string, refID *uint, createdBy uint) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.debitInTx(tx, customerID, amount, category, description, refType, refID, createdBy)
		return err
	})
	return txn, err
}

// creditInTx applies a credit inside an existing transaction. Exposed to
// sibling services (voucher redemption) so a credit and its trigger commit
// atomically.
func (s *SaldoService) creditInTx(tx *gorm.DB, customerID uint, amount float64, category, description, refType string, refID *uint, createdBy uint) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %.2f", amount)
	}

	var customer models.Customer
	if err := tx.First(&customer, customerID).Error; err != nil {
		return nil, fmt.Errorf("customer %d: %w", customerID, err)
	}

	before := customer.Saldo
	after := before + amount
	if err := tx.Model(&customer).Update("saldo", after).Error; err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		CustomerID:    customerID,
		Type:          models.TransactionTypeCredit,
		Amount:        amount,
		SaldoBefore:   before,
		SaldoAfter:    after,
		Category:      category,
		Description:   description,
		ReferenceType: refType,
		ReferenceID:   refID,
		CreatedBy:     createdBy,
	}
	if err := tx.Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *SaldoService) debitInTx(tx *gorm.DB, customerID uint, amount float64, category, description, refType string, refID *uint, createdBy uint) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive, got %.2f", amount)
	}

	var customer models.Customer
	if err := tx.First(&customer, customerID).Error; err != nil {
		return nil, fmt.Errorf("customer %d: %w", customerID, err)
	}

	before := customer.Saldo
	if before < amount {
		return nil, fmt.Errorf("insufficient saldo: have %.2f, need %.2f", before, amount)
	}

	after := before - amount
	if err := tx.Model(&customer).Update("saldo", after).Error; err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		CustomerID:    customerID,
		Type:          models.TransactionTypeDebit,
		Amount:        amount,
		SaldoBefore:   before,
		SaldoAfter:    after,
		Category:      category,
		Description:   description,
		ReferenceType: refType,
		ReferenceID:   refID,
		CreatedBy:     createdBy,
	}
	if err := tx.Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

// PayWithSaldo pays an unpaid invoice from the customer balance. Refuses
// without mutating anything when the balance is insufficient; on success
// the debit and the invoice flip commit in one transaction.
func (s *SaldoService) PayWithSaldo(customerID, invoiceID, operatorID uint) PaymentResult {
	result := PaymentResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.First(&invoice, invoiceID).Error; err != nil {
			result.Message = "invoice not found"
			return err
		}
		if invoice.CustomerID != customerID {
			result.Message = "invoice does not belong to customer"
			return fmt.Errorf("invoice %d belongs to customer %d", invoiceID, invoice.CustomerID)
		}
		if invoice.Status == models.InvoiceStatusPaid {
			result.Message = "invoice already paid"
			return fmt.Errorf("invoice %d already paid", invoiceID)
		}

		var customer models.Customer
		if err := tx.First(&customer, customerID).Error; err != nil {
			result.Message = "customer not found"
			return err
		}
		if customer.Saldo < invoice.Amount {
			result.Message = fmt.Sprintf("insufficient saldo: have %.2f, invoice is %.2f", customer.Saldo, invoice.Amount)
			return fmt.Errorf("%s", result.Message)
		}

		txn, err := s.debitInTx(tx, customerID, invoice.Amount, "invoice_payment",
			fmt.Sprintf("Payment for invoice %s", invoice.InvoiceNumber), "invoice", &invoice.ID, operatorID)
		if err != nil {
			result.Message = err.Error()
			return err
		}

		now := time.Now().UTC()
		if err := tx.Model(&invoice).Updates(map[string]interface{}{
			"status":  models.InvoiceStatusPaid,
			"paid_at": &now,
		}).Error; err != nil {
			result.Message = "failed to mark invoice paid"
			return err
		}

		result.Success = true
		result.Message = "paid"
		result.TransactionID = txn.ID
		result.NewSaldo = txn.SaldoAfter
		return nil
	})
	if err != nil {
		log.Printf("Saldo: PayWithSaldo customer=%d invoice=%d refused: %v", customerID, invoiceID, err)
	}
	return result
}
