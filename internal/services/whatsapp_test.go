package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nusalink/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessagePostsJSON(t *testing.T) {
	var got map[string]string
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewWhatsAppService(server.URL, "testkey")
	require.NoError(t, svc.SendMessage("6281234567890", "halo"))

	assert.Equal(t, "Bearer testkey", auth)
	assert.Equal(t, "6281234567890", got["phone"])
	assert.Equal(t, "halo", got["message"])
}

func TestSendMessageErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewWhatsAppService(server.URL, "badkey")
	assert.Error(t, svc.SendMessage("628123", "halo"))

	unconfigured := NewWhatsAppService("", "")
	assert.Error(t, unconfigured.SendMessage("628123", "halo"))
	assert.Error(t, svc.SendMessage("", "no phone"))
}

func TestNotifySuspensionIsQuietWhenDisabled(t *testing.T) {
	svc := NewWhatsAppService("", "")
	customer := &models.Customer{ID: 1, FullName: "Budi", Phone: "628123"}
	invoice := &models.Invoice{InvoiceNumber: "INV-202609-ABC123", Amount: 150000, DueDate: time.Now()}

	assert.NoError(t, svc.NotifySuspension(customer, invoice),
		"an unconfigured gateway must not fail the suspend sweep")
}
