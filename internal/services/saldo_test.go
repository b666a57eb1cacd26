package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/nusalink/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, saldo float64) *models.Customer {
	t.Helper()
	plan := models.Plan{Name: "Home 10M", Price: 150000, MikrotikGroup: "10M", RateLimit: "10M/10M"}
	require.NoError(t, db.Create(&plan).Error)

	customer := models.Customer{
		FullName:          "Budi Santoso",
		Phone:             "6281234567890",
		MikrotikLogin:     "budi01",
		MikrotikPassword:  "pw",
		RouterID:          1,
		BillingPlanID:     plan.ID,
		Plan:              plan,
		Status:            models.CustomerStatusActive,
		Saldo:             saldo,
		BillingCycleStart: 1,
		UniqueCode:        123,
	}
	require.NoError(t, db.Create(&customer).Error)
	return &customer
}

func TestLedgerSnapshotsReplayToLiveSaldo(t *testing.T) {
	db := openTestDB(t)
	svc := NewSaldoService(db)
	customer := seedCustomer(t, db, 0)

	_, err := svc.AddCredit(customer.ID, 100000, "topup", "initial topup", "", nil, 1)
	require.NoError(t, err)
	_, err = svc.AddDebit(customer.ID, 40000, "adjustment", "correction", "", nil, 1)
	require.NoError(t, err)
	_, err = svc.AddCredit(customer.ID, 25000, "topup", "second topup", "", nil, 1)
	require.NoError(t, err)

	var entries []models.Transaction
	require.NoError(t, db.Where("customer_id = ?", customer.ID).Order("id").Find(&entries).Error)
	require.Len(t, entries, 3)

	// Replay: each entry's after must chain into the next entry's before.
	replayed := 0.0
	for _, e := range entries {
		assert.Equal(t, replayed, e.SaldoBefore)
		switch e.Type {
		case models.TransactionTypeCredit:
			replayed += e.Amount
		case models.TransactionTypeDebit:
			replayed -= e.Amount
		}
		assert.Equal(t, replayed, e.SaldoAfter)
	}

	var live models.Customer
	require.NoError(t, db.First(&live, customer.ID).Error)
	assert.Equal(t, 85000.0, live.Saldo)
	assert.Equal(t, live.Saldo, entries[len(entries)-1].SaldoAfter,
		"latest ledger snapshot must equal the live balance")
}

func TestDebitRefusesOverdraw(t *testing.T) {
	db := openTestDB(t)
	svc := NewSaldoService(db)
	customer := seedCustomer(t, db, 50000)

	_, err := svc.AddDebit(customer.ID, 60000, "adjustment", "too much", "", nil, 1)
	require.Error(t, err)

	var live models.Customer
	require.NoError(t, db.First(&live, customer.ID).Error)
	assert.Equal(t, 50000.0, live.Saldo, "refused debit must not touch the balance")

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("customer_id = ?", customer.ID).Count(&count).Error)
	assert.Zero(t, count, "refused debit must not write a ledger entry")
}

func TestRejectsNonPositiveAmounts(t *testing.T) {
	db := openTestDB(t)
	svc := NewSaldoService(db)
	customer := seedCustomer(t, db, 10000)

	_, err := svc.AddCredit(customer.ID, 0, "topup", "zero", "", nil, 1)
	assert.Error(t, err)
	_, err = svc.AddCredit(customer.ID, -500, "topup", "negative", "", nil, 1)
	assert.Error(t, err)
	_, err = svc.AddDebit(customer.ID, -500, "adjustment", "negative", "", nil, 1)
	assert.Error(t, err)
}

func TestPayWithSaldoHappyPath(t *testing.T) {
	db := openTestDB(t)
	svc := NewSaldoService(db)
	customer := seedCustomer(t, db, 200000)

	invoice := models.Invoice{
		InvoiceNumber: "INV-202609-TEST01",
		CustomerID:    customer.ID,
		Period:        "2026-09",
		Subtotal:      150000,
		UniqueCode:    123,
		Amount:        150123,
		Status:        models.InvoiceStatusUnpaid,
		DueDate:       time.Now().AddDate(0, 0, 7),
	}
	require.NoError(t, db.Create(&invoice).Error)

	result := svc.PayWithSaldo(customer.ID, invoice.ID, 1)
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 200000.0-150123.0, result.NewSaldo)

	var paid models.Invoice
	require.NoError(t, db.First(&paid, invoice.ID).Error)
	assert.Equal(t, models.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	var txn models.Transaction
	require.NoError(t, db.First(&txn, result.TransactionID).Error)
	assert.Equal(t, models.TransactionTypeDebit, txn.Type)
	assert.Equal(t, "invoice", txn.ReferenceType)
	require.NotNil(t, txn.ReferenceID)
	assert.Equal(t, invoice.ID, *txn.ReferenceID)
}

func TestPayWithSaldoRefusesWithoutMutating(t *testing.T) {
	db := openTestDB(t)
	svc := NewSaldoService(db)
	customer := seedCustomer(t, db, 1000)

	invoice := models.Invoice{
		InvoiceNumber: "INV-202609-TEST02",
		CustomerID:    customer.ID,
		Period:        "2026-09",
		Subtotal:      150000,
		Amount:        150000,
		Status:        models.InvoiceStatusUnpaid,
		DueDate:       time.Now().AddDate(0, 0, 7),
	}
	require.NoError(t, db.Create(&invoice).Error)

	result := svc.PayWithSaldo(customer.ID, invoice.ID, 1)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "insufficient saldo")

	var live models.Customer
	require.NoError(t, db.First(&live, customer.ID).Error)
	assert.Equal(t, 1000.0, live.Saldo)

	var unpaid models.Invoice
	require.NoError(t, db.First(&unpaid, invoice.ID).Error)
	assert.Equal(t, models.InvoiceStatusUnpaid, unpaid.Status, "refusal must not flip the invoice")

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPayWithSaldoRefusesDoublePayment(t *testing.T) {
	db := openTestDB(t)
	svc := NewSaldoService(db)
	customer := seedCustomer(t, db, 500000)

	invoice := models.Invoice{
		InvoiceNumber: "INV-202609-TEST03",
		CustomerID:    customer.ID,
		Period:        "2026-09",
		Subtotal:      150000,
		Amount:        150000,
		Status:        models.InvoiceStatusUnpaid,
		DueDate:       time.Now().AddDate(0, 0, 7),
	}
	require.NoError(t, db.Create(&invoice).Error)

	require.True(t, svc.PayWithSaldo(customer.ID, invoice.ID, 1).Success)
	result := svc.PayWithSaldo(customer.ID, invoice.ID, 1)
	assert.False(t, result.Success)
	assert.Equal(t, "invoice already paid", result.Message)

	var live models.Customer
	require.NoError(t, db.First(&live, customer.ID).Error)
	assert.Equal(t, 350000.0, live.Saldo, "second attempt must not debit again")
}
