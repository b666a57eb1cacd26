package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nusalink/backend/internal/config"
	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/router"
	"gorm.io/gorm"
)

// SubscriberGateway is the slice of the router gateway the billing engine
// needs: flipping access off for delinquent subscribers.
type SubscriberGateway interface {
	SuspendCustomer(node *models.ServiceNode, customer *models.Customer) router.OpResult
}

// SuspendNotifier tells the subscriber their service was cut. Best effort.
type SuspendNotifier interface {
	NotifySuspension(customer *models.Customer, invoice *models.Invoice) error
}

// BillingService generates monthly invoices and suspends overdue customers.
// Tax rates come from the injected snapshot and are resolved once; a rate
// change applies from the next run, never mid-batch.
type BillingService struct {
	db       *gorm.DB
	rates    config.BillingRates
	gateway  SubscriberGateway
	notifier SuspendNotifier
}

func NewBillingService(db *gorm.DB, rates config.BillingRates, gateway SubscriberGateway, notifier SuspendNotifier) *BillingService {
	return &BillingService{db: db, rates: rates, gateway: gateway, notifier: notifier}
}

// GenerateInvoicesForToday invoices every active customer whose billing
// cycle day matches today. Per-customer failures are logged and skipped so
// one bad record cannot stall the whole batch.
func (s *BillingService) GenerateInvoicesForToday(now time.Time) int {
	var customers []models.Customer
	if err := s.db.Preload("Plan").
		Where("status = ? AND billing_cycle_start = ?", models.CustomerStatusActive, now.Day()).
		Find(&customers).Error; err != nil {
		log.Printf("Billing: cannot list customers due today: %v", err)
		return 0
	}

	created := 0
	for i := range customers {
		invoice, err := s.GenerateInvoiceForCustomer(&customers[i], now)
		if err != nil {
			log.Printf("Billing: invoice for customer %d failed: %v", customers[i].ID, err)
			continue
		}
		if invoice != nil {
			created++
		}
	}
	log.Printf("Billing: generated %d invoice(s) for cycle day %d", created, now.Day())
	return created
}

// GenerateInvoiceForCustomer creates this period's invoice for one customer.
// Returns (nil, nil) when the invoice already exists: re-running a billing
// day must never double-bill.
func (s *BillingService) GenerateInvoiceForCustomer(customer *models.Customer, now time.Time) (*models.Invoice, error) {
	period := now.Format("2006-01")

	var count int64
	if err := s.db.Model(&models.Invoice{}).
		Where("customer_id = ? AND period = ?", customer.ID, period).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	plan := customer.Plan
	if plan.ID == 0 {
		if err := s.db.First(&plan, customer.BillingPlanID).Error; err != nil {
			return nil, fmt.Errorf("plan %d: %w", customer.BillingPlanID, err)
		}
	}

	subtotal := plan.Price
	tax := 0.0
	if customer.IsTaxed {
		tax = subtotal * (s.rates.PPNRate + s.rates.BHPRate + s.rates.USORate)
	}
	uniqueCode := customer.UniqueCode
	if uniqueCode > s.rates.UniqueCodeMax {
		uniqueCode = uniqueCode % (s.rates.UniqueCodeMax + 1)
	}

	invoice := &models.Invoice{
		InvoiceNumber: newInvoiceNumber(now),
		CustomerID:    customer.ID,
		Period:        period,
		Subtotal:      subtotal,
		Tax:           tax,
		UniqueCode:    uniqueCode,
		Amount:        subtotal + tax + float64(uniqueCode),
		Status:        models.InvoiceStatusUnpaid,
		DueDate:       now.AddDate(0, 0, s.rates.GraceDays),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		item := &models.InvoiceItem{
			InvoiceID:   invoice.ID,
			Description: fmt.Sprintf("%s (%s)", plan.Name, period),
			Quantity:    1,
			UnitPrice:   subtotal,
			Total:       subtotal,
		}
		return tx.Create(item).Error
	})
	if err != nil {
		// A concurrent run may have won the (customer, period) unique index.
		if isDuplicateKey(err) {
			return nil, nil
		}
		return nil, err
	}

	log.Printf("Billing: invoice %s for customer %d, amount %.2f (tax %.2f, code %d)",
		invoice.InvoiceNumber, customer.ID, invoice.Amount, tax, uniqueCode)
	return invoice, nil
}

// SuspendOverdueCustomers flips every active customer with an unpaid invoice
// past due to suspended and pushes the cut to their router. The status flip
// is authoritative: a router failure is logged for retry, never rolled back,
// so access state converges to billing state rather than the other way
// around.
func (s *BillingService) SuspendOverdueCustomers(now time.Time) (suspended, failed int) {
	var invoices []models.Invoice
	if err := s.db.Where("status = ? AND due_date < ?", models.InvoiceStatusUnpaid, now).
		Find(&invoices).Error; err != nil {
		log.Printf("Billing: cannot list overdue invoices: %v", err)
		return 0, 0
	}

	for i := range invoices {
		invoice := &invoices[i]

		var customer models.Customer
		if err := s.db.Preload("Plan").First(&customer, invoice.CustomerID).Error; err != nil {
			log.Printf("Billing: overdue invoice %s: customer %d missing: %v", invoice.InvoiceNumber, invoice.CustomerID, err)
			failed++
			continue
		}
		if customer.Status != models.CustomerStatusActive {
			continue
		}

		if err := s.db.Model(&customer).Update("status", models.CustomerStatusSuspended).Error; err != nil {
			log.Printf("Billing: cannot flip customer %d to suspended: %v", customer.ID, err)
			failed++
			continue
		}
		customer.Status = models.CustomerStatusSuspended
		suspended++

		var node models.ServiceNode
		if err := s.db.First(&node, customer.RouterID).Error; err != nil {
			log.Printf("Billing: customer %d suspended in DB but router %d not found: %v", customer.ID, customer.RouterID, err)
			failed++
			continue
		}

		if res := s.gateway.SuspendCustomer(&node, &customer); !res.OK {
			log.Printf("Billing: customer %d suspended in DB but router push failed (%s): %v", customer.ID, res.Code, res.Err)
			failed++
		}

		if s.notifier != nil {
			if err := s.notifier.NotifySuspension(&customer, invoice); err != nil {
				log.Printf("Billing: suspension notice for customer %d failed: %v", customer.ID, err)
			}
		}
	}

	log.Printf("Billing: overdue sweep done, %d suspended, %d with errors", suspended, failed)
	return suspended, failed
}

// newInvoiceNumber builds INV-YYYYMM-XXXXXX with a random suffix. The
// uniqueIndex on invoice_number backstops the negligible collision chance.
func newInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("INV-%s-%s", now.Format("200601"), suffix)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
