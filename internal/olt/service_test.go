package olt

import (
	"testing"

	"github.com/nusalink/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDriverUnknownVendor(t *testing.T) {
	svc := NewService()

	node := &models.ServiceNode{ID: 7, OltVendor: "Huawei"}
	driver, err := svc.GetDriver(node)

	require.Error(t, err)
	assert.Nil(t, driver)
	assert.ErrorIs(t, err, ErrUnsupportedVendor)
	assert.Contains(t, err.Error(), "Huawei")
}

func TestGetDriverCaseInsensitive(t *testing.T) {
	svc := NewService()

	for _, vendor := range []string{"zte", "ZTE", "Zte"} {
		node := &models.ServiceNode{OltVendor: vendor, IPAddress: "10.0.0.1"}
		driver, err := svc.GetDriver(node)
		require.NoError(t, err, vendor)
		assert.NotNil(t, driver, vendor)
	}
}

func TestMockDriverRegisterIsUpsert(t *testing.T) {
	node := &models.ServiceNode{OltVendor: "mock"}
	driver, err := NewDriver(node)
	require.NoError(t, err)

	mock := driver.(*mockDriver)
	before := mock.RegisteredCount()

	require.NoError(t, driver.RegisterONU("ZTEG11112222", "bridge", 100))
	require.NoError(t, driver.RegisterONU("ZTEG11112222", "router", 200))
	assert.Equal(t, before+1, mock.RegisteredCount(), "re-registering the same serial must not duplicate")

	sig, err := driver.GetSignal("ZTEG11112222")
	require.NoError(t, err)
	assert.Negative(t, sig.RxPowerDBm)
}

func TestParseZTESignal(t *testing.T) {
	output := "OnuIndex: gpon-onu_1/1/1:1\n  Rx:-18.54(dbm)  Tx:2.31(dbm)\n"
	sig, err := parseZTESignal(output)
	require.NoError(t, err)
	assert.InDelta(t, -18.54, sig.RxPowerDBm, 0.001)
	assert.InDelta(t, 2.31, sig.TxPowerDBm, 0.001)

	_, err = parseZTESignal("no readings here")
	assert.Error(t, err)
}
