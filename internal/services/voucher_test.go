package services

import (
	"testing"

	"github.com/nusalink/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBatch(t *testing.T) {
	db := openTestDB(t)
	svc := NewVoucherService(db, NewSaldoService(db))

	batchID, vouchers, err := svc.GenerateBatch(50, "hotspot-1day", 5000, 1)
	require.NoError(t, err)
	require.Len(t, vouchers, 50)

	seen := make(map[string]bool)
	for _, v := range vouchers {
		assert.Len(t, v.Code, 12)
		assert.False(t, seen[v.Code], "codes must be unique within a batch")
		seen[v.Code] = true
		assert.Equal(t, batchID, v.BatchID)
		assert.Equal(t, models.VoucherStatusAvailable, v.Status)
		assert.NotContains(t, v.Code, "0")
		assert.NotContains(t, v.Code, "O")
		assert.NotContains(t, v.Code, "1")
		assert.NotContains(t, v.Code, "I")
	}
}

func TestGenerateBatchRejectsBadInput(t *testing.T) {
	db := openTestDB(t)
	svc := NewVoucherService(db, NewSaldoService(db))

	_, _, err := svc.GenerateBatch(0, "p", 5000, 1)
	assert.Error(t, err)
	_, _, err = svc.GenerateBatch(10, "p", -1, 1)
	assert.Error(t, err)
}

func TestRedeemCreditsSaldoOnce(t *testing.T) {
	db := openTestDB(t)
	svc := NewVoucherService(db, NewSaldoService(db))
	customer := seedCustomer(t, db, 10000)

	_, vouchers, err := svc.GenerateBatch(1, "hotspot-1day", 5000, 1)
	require.NoError(t, err)
	code := vouchers[0].Code

	result := svc.Redeem(code, customer.ID, 1)
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 15000.0, result.NewSaldo)

	var burned models.Voucher
	require.NoError(t, db.Where("code = ?", code).First(&burned).Error)
	assert.Equal(t, models.VoucherStatusUsed, burned.Status)
	require.NotNil(t, burned.UsedBy)
	assert.Equal(t, customer.ID, *burned.UsedBy)
	assert.NotNil(t, burned.UsedAt)

	// Second redemption of the same code is refused without a second credit.
	again := svc.Redeem(code, customer.ID, 1)
	assert.False(t, again.Success)
	assert.Equal(t, "voucher already used", again.Message)

	var live models.Customer
	require.NoError(t, db.First(&live, customer.ID).Error)
	assert.Equal(t, 15000.0, live.Saldo)

	var ledger int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("customer_id = ? AND category = ?", customer.ID, "voucher").Count(&ledger).Error)
	assert.Equal(t, int64(1), ledger)
}

func TestRedeemUnknownCode(t *testing.T) {
	db := openTestDB(t)
	svc := NewVoucherService(db, NewSaldoService(db))
	customer := seedCustomer(t, db, 0)

	result := svc.Redeem("NOSUCHCODE42", customer.ID, 1)
	assert.False(t, result.Success)
	assert.Equal(t, "voucher not found", result.Message)
}
