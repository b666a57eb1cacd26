package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/nusalink/backend/internal/database"
)

// BillingScheduler runs the daily billing cycle: invoice generation for
// customers whose cycle day is today, then the overdue suspension sweep.
// Each job takes a Redis lease first so two instances cannot run the same
// batch concurrently.
type BillingScheduler struct {
	billing  *BillingService
	stopChan chan struct{}
	wg       sync.WaitGroup

	invoiceLock *database.JobLock
	overdueLock *database.JobLock
}

func NewBillingScheduler(billing *BillingService) *BillingScheduler {
	return &BillingScheduler{
		billing:     billing,
		stopChan:    make(chan struct{}),
		invoiceLock: database.NewJobLock("invoice_generation", 30*time.Minute),
		overdueLock: database.NewJobLock("overdue_suspension", 30*time.Minute),
	}
}

// Start launches the scheduler loop. It runs one cycle immediately, then
// every hour; RunDailyCycle itself is idempotent per day so firing hourly
// only catches instances that were down at the cycle boundary.
func (s *BillingScheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Println("Billing: scheduler started")
		s.RunDailyCycle(time.Now())

		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunDailyCycle(time.Now())
			case <-s.stopChan:
				log.Println("Billing: scheduler stopped")
				return
			}
		}
	}()
}

// Stop signals the loop and waits for the in-flight cycle to finish
func (s *BillingScheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

// RunDailyCycle executes both billing jobs under their leases
func (s *BillingScheduler) RunDailyCycle(now time.Time) {
	ctx := context.Background()

	if s.invoiceLock.Acquire(ctx) {
		s.billing.GenerateInvoicesForToday(now)
		s.invoiceLock.Release(ctx)
	} else {
		log.Println("Billing: invoice generation already running elsewhere, skipping")
	}

	if s.overdueLock.Acquire(ctx) {
		s.billing.SuspendOverdueCustomers(now)
		s.overdueLock.Release(ctx)
	} else {
		log.Println("Billing: overdue sweep already running elsewhere, skipping")
	}
}
