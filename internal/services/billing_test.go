package services

import (
	"errors"
	"testing"
	"time"

	"github.com/nusalink/backend/internal/config"
	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGateway struct {
	suspends []uint
	fail     bool
}

func (g *fakeGateway) SuspendCustomer(node *models.ServiceNode, customer *models.Customer) router.OpResult {
	g.suspends = append(g.suspends, customer.ID)
	if g.fail {
		return router.OpResult{OK: false, Code: router.CodeUnreachable, Err: errors.New("connection refused")}
	}
	return router.OpResult{OK: true, Code: router.CodeOK}
}

type fakeNotifier struct {
	notices []uint
}

func (n *fakeNotifier) NotifySuspension(customer *models.Customer, invoice *models.Invoice) error {
	n.notices = append(n.notices, customer.ID)
	return nil
}

func testRates() config.BillingRates {
	return config.BillingRates{
		PPNRate:       0.11,
		BHPRate:       0.005,
		USORate:       0.0125,
		GraceDays:     7,
		UniqueCodeMax: 999,
	}
}

func seedNode(t *testing.T, db *gorm.DB) *models.ServiceNode {
	t.Helper()
	node := models.ServiceNode{
		Name:             "core-router",
		IPAddress:        "10.0.0.1",
		Type:             "mikrotik",
		ConnectionMethod: models.ConnectionMethodAPI,
		APIUsername:      "admin",
		APIPassword:      "secret",
		APIPort:          8728,
		IsActive:         true,
	}
	require.NoError(t, db.Create(&node).Error)
	return &node
}

func TestGenerateInvoiceTaxedCustomer(t *testing.T) {
	db := openTestDB(t)
	svc := NewBillingService(db, testRates(), &fakeGateway{}, nil)
	customer := seedCustomer(t, db, 0)
	customer.IsTaxed = true
	require.NoError(t, db.Save(customer).Error)

	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	invoice, err := svc.GenerateInvoiceForCustomer(customer, now)
	require.NoError(t, err)
	require.NotNil(t, invoice)

	// 150000 * (0.11 + 0.005 + 0.0125) = 19125, unique code 123 untaxed
	assert.Equal(t, 150000.0, invoice.Subtotal)
	assert.InDelta(t, 19125.0, invoice.Tax, 0.01)
	assert.Equal(t, 123, invoice.UniqueCode)
	assert.InDelta(t, 169248.0, invoice.Amount, 0.01)
	assert.Equal(t, "2026-09", invoice.Period)
	assert.Equal(t, now.AddDate(0, 0, 7), invoice.DueDate)
	assert.Contains(t, invoice.InvoiceNumber, "INV-202609-")

	var items []models.InvoiceItem
	require.NoError(t, db.Where("invoice_id = ?", invoice.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, 150000.0, items[0].Total)
}

func TestGenerateInvoiceUntaxedCustomer(t *testing.T) {
	db := openTestDB(t)
	svc := NewBillingService(db, testRates(), &fakeGateway{}, nil)
	customer := seedCustomer(t, db, 0)

	invoice, err := svc.GenerateInvoiceForCustomer(customer, time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, invoice)
	assert.Zero(t, invoice.Tax)
	assert.Equal(t, 150123.0, invoice.Amount)
}

func TestGenerateInvoiceIsOncePerPeriod(t *testing.T) {
	db := openTestDB(t)
	svc := NewBillingService(db, testRates(), &fakeGateway{}, nil)
	customer := seedCustomer(t, db, 0)
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	first, err := svc.GenerateInvoiceForCustomer(customer, now)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.GenerateInvoiceForCustomer(customer, now.Add(6*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, second, "re-running the billing day must be a no-op")

	var count int64
	require.NoError(t, db.Model(&models.Invoice{}).Where("customer_id = ?", customer.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Next month is a fresh period.
	third, err := svc.GenerateInvoiceForCustomer(customer, now.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.NotNil(t, third)
}

func TestGenerateInvoicesForTodayFiltersByCycleDay(t *testing.T) {
	db := openTestDB(t)
	svc := NewBillingService(db, testRates(), &fakeGateway{}, nil)

	due := seedCustomer(t, db, 0)
	due.BillingCycleStart = 15
	require.NoError(t, db.Save(due).Error)

	notDue := models.Customer{
		MikrotikLogin:     "siti01",
		MikrotikPassword:  "pw",
		RouterID:          1,
		BillingPlanID:     due.BillingPlanID,
		Status:            models.CustomerStatusActive,
		BillingCycleStart: 20,
	}
	require.NoError(t, db.Create(&notDue).Error)

	suspendedCustomer := models.Customer{
		MikrotikLogin:     "agus01",
		MikrotikPassword:  "pw",
		RouterID:          1,
		BillingPlanID:     due.BillingPlanID,
		Status:            models.CustomerStatusSuspended,
		BillingCycleStart: 15,
	}
	require.NoError(t, db.Create(&suspendedCustomer).Error)

	created := svc.GenerateInvoicesForToday(time.Date(2026, 9, 15, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, created, "only active customers on their cycle day get invoiced")

	var invoices []models.Invoice
	require.NoError(t, db.Find(&invoices).Error)
	require.Len(t, invoices, 1)
	assert.Equal(t, due.ID, invoices[0].CustomerID)
}

func TestSuspendOverdueCustomers(t *testing.T) {
	db := openTestDB(t)
	gateway := &fakeGateway{}
	notifier := &fakeNotifier{}
	svc := NewBillingService(db, testRates(), gateway, notifier)

	node := seedNode(t, db)
	customer := seedCustomer(t, db, 0)
	customer.RouterID = node.ID
	require.NoError(t, db.Save(customer).Error)

	now := time.Date(2026, 9, 20, 3, 0, 0, 0, time.UTC)
	invoice := models.Invoice{
		InvoiceNumber: "INV-202609-OVRDUE",
		CustomerID:    customer.ID,
		Period:        "2026-09",
		Subtotal:      150000,
		Amount:        150000,
		Status:        models.InvoiceStatusUnpaid,
		DueDate:       now.AddDate(0, 0, -3),
	}
	require.NoError(t, db.Create(&invoice).Error)

	suspended, failed := svc.SuspendOverdueCustomers(now)
	assert.Equal(t, 1, suspended)
	assert.Zero(t, failed)
	assert.Equal(t, []uint{customer.ID}, gateway.suspends)
	assert.Equal(t, []uint{customer.ID}, notifier.notices)

	var live models.Customer
	require.NoError(t, db.First(&live, customer.ID).Error)
	assert.Equal(t, models.CustomerStatusSuspended, live.Status)

	// Sweep again: the customer is no longer active, nothing to do.
	suspended, failed = svc.SuspendOverdueCustomers(now)
	assert.Zero(t, suspended)
	assert.Zero(t, failed)
	assert.Len(t, gateway.suspends, 1, "already-suspended customer must not be pushed again")
}

func TestSuspendFlipSurvivesRouterFailure(t *testing.T) {
	db := openTestDB(t)
	gateway := &fakeGateway{fail: true}
	svc := NewBillingService(db, testRates(), gateway, nil)

	node := seedNode(t, db)
	customer := seedCustomer(t, db, 0)
	customer.RouterID = node.ID
	require.NoError(t, db.Save(customer).Error)

	now := time.Date(2026, 9, 20, 3, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Invoice{
		InvoiceNumber: "INV-202609-OVRDU2",
		CustomerID:    customer.ID,
		Period:        "2026-09",
		Subtotal:      150000,
		Amount:        150000,
		Status:        models.InvoiceStatusUnpaid,
		DueDate:       now.AddDate(0, 0, -1),
	}).Error)

	suspended, failed := svc.SuspendOverdueCustomers(now)
	assert.Equal(t, 1, suspended)
	assert.Equal(t, 1, failed)

	var live models.Customer
	require.NoError(t, db.First(&live, customer.ID).Error)
	assert.Equal(t, models.CustomerStatusSuspended, live.Status,
		"the DB flip is authoritative even when the router push fails")
}

func TestSkippedPaidAndFutureInvoices(t *testing.T) {
	db := openTestDB(t)
	gateway := &fakeGateway{}
	svc := NewBillingService(db, testRates(), gateway, nil)

	node := seedNode(t, db)
	customer := seedCustomer(t, db, 0)
	customer.RouterID = node.ID
	require.NoError(t, db.Save(customer).Error)

	now := time.Date(2026, 9, 20, 3, 0, 0, 0, time.UTC)
	paidAt := now.AddDate(0, 0, -2)
	require.NoError(t, db.Create(&models.Invoice{
		InvoiceNumber: "INV-202608-PAID01",
		CustomerID:    customer.ID,
		Period:        "2026-08",
		Subtotal:      150000,
		Amount:        150000,
		Status:        models.InvoiceStatusPaid,
		DueDate:       now.AddDate(0, 0, -10),
		PaidAt:        &paidAt,
	}).Error)
	require.NoError(t, db.Create(&models.Invoice{
		InvoiceNumber: "INV-202609-FUTURE",
		CustomerID:    customer.ID,
		Period:        "2026-09",
		Subtotal:      150000,
		Amount:        150000,
		Status:        models.InvoiceStatusUnpaid,
		DueDate:       now.AddDate(0, 0, 3),
	}).Error)

	suspended, failed := svc.SuspendOverdueCustomers(now)
	assert.Zero(t, suspended)
	assert.Zero(t, failed)
	assert.Empty(t, gateway.suspends)
}
