package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/nusalink/backend/internal/models"
)

// WhatsAppService sends subscriber notifications through an external
// WhatsApp gateway. Delivery is best-effort everywhere it is used.
type WhatsAppService struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewWhatsAppService(apiURL, apiKey string) *WhatsAppService {
	return &WhatsAppService{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether a gateway URL is configured
func (s *WhatsAppService) Enabled() bool {
	return s.apiURL != ""
}

// SendMessage delivers one text message to a phone number
func (s *WhatsAppService) SendMessage(phone, message string) error {
	if !s.Enabled() {
		return fmt.Errorf("whatsapp gateway not configured")
	}
	if phone == "" {
		return fmt.Errorf("customer has no phone number")
	}

	payload, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("whatsapp gateway returned %d", resp.StatusCode)
	}
	return nil
}

// NotifySuspension tells the subscriber their service was cut for the
// unpaid invoice. Satisfies the billing engine's notifier.
func (s *WhatsAppService) NotifySuspension(customer *models.Customer, invoice *models.Invoice) error {
	if !s.Enabled() {
		return nil
	}
	msg := fmt.Sprintf(
		"Yth. %s, layanan internet Anda telah dinonaktifkan sementara karena tagihan %s sebesar Rp %.0f belum dibayar. Mohon segera lakukan pembayaran untuk mengaktifkan kembali.",
		customer.FullName, invoice.InvoiceNumber, invoice.Amount)
	if err := s.SendMessage(customer.Phone, msg); err != nil {
		return err
	}
	log.Printf("WhatsApp: suspension notice sent to customer %d", customer.ID)
	return nil
}

// NotifyInvoice sends a new-invoice notice with the exact transfer amount
// (the unique code makes the amount matchable to the customer).
func (s *WhatsAppService) NotifyInvoice(customer *models.Customer, invoice *models.Invoice) error {
	if !s.Enabled() {
		return nil
	}
	msg := fmt.Sprintf(
		"Yth. %s, tagihan %s periode %s telah terbit sebesar Rp %.0f, jatuh tempo %s. Mohon transfer sesuai nominal agar pembayaran tercatat otomatis.",
		customer.FullName, invoice.InvoiceNumber, invoice.Period, invoice.Amount,
		invoice.DueDate.Format("02-01-2006"))
	return s.SendMessage(customer.Phone, msg)
}
