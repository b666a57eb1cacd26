package services

import (
	"testing"

	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/olt"
	"github.com/nusalink/backend/internal/radiusdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openRadiusTestDB migrates the FreeRADIUS tables into a throwaway sqlite.
// Production never migrates these; tests own their schema.
func openRadiusTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.RadCheck{}, &models.RadReply{}, &models.RadUserGroup{}))
	return db
}

func newProvisioningFixture(t *testing.T) (*ProvisioningService, *gorm.DB, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	radiusDB := openRadiusTestDB(t)
	svc := NewProvisioningService(db, radiusdb.NewBridge(radiusDB), olt.NewService())
	return svc, db, radiusDB
}

func seedOltNode(t *testing.T, db *gorm.DB) *models.ServiceNode {
	t.Helper()
	node := models.ServiceNode{
		Name:             "olt-01",
		IPAddress:        "10.0.1.1",
		Type:             "olt",
		ConnectionMethod: models.ConnectionMethodSNMP,
		OltVendor:        "mock",
	}
	require.NoError(t, db.Create(&node).Error)
	return &node
}

func seedRequest(t *testing.T, db *gorm.DB, customerID uint, reqType models.ServiceRequestType, details string) *models.ServiceRequest {
	t.Helper()
	req := models.ServiceRequest{
		CustomerID: customerID,
		Type:       reqType,
		Details:    details,
		Status:     models.ServiceRequestPending,
	}
	require.NoError(t, db.Create(&req).Error)
	return &req
}

func TestActivationProvisionsRadiusOltAndDevice(t *testing.T) {
	svc, db, radiusDB := newProvisioningFixture(t)

	oltNode := seedOltNode(t, db)
	customer := seedCustomer(t, db, 0)
	customer.OltID = &oltNode.ID
	require.NoError(t, db.Save(customer).Error)

	device := models.CustomerDevice{
		CustomerID:   customer.ID,
		SerialNumber: "ZTEG11223344",
		Status:       models.DeviceStatusInactive,
	}
	require.NoError(t, db.Create(&device).Error)

	req := seedRequest(t, db, customer.ID, models.ServiceRequestActivation,
		`{"rate_limit":"20M/20M","olt_profile":"HOME-20M","vlan":100}`)

	require.True(t, svc.Execute(req.ID))

	var done models.ServiceRequest
	require.NoError(t, db.First(&done, req.ID).Error)
	assert.Equal(t, models.ServiceRequestCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)
	assert.Empty(t, done.LastError)

	var activated models.CustomerDevice
	require.NoError(t, db.First(&activated, device.ID).Error)
	assert.Equal(t, models.DeviceStatusActive, activated.Status)
	assert.NotNil(t, activated.ActivatedAt)
	assert.Nil(t, activated.ExpirationDate)

	// RADIUS got the password and the request's rate limit override.
	var check models.RadCheck
	require.NoError(t, radiusDB.Where("username = ? AND attribute = ?",
		customer.MikrotikLogin, "Cleartext-Password").First(&check).Error)
	assert.Equal(t, customer.MikrotikPassword, check.Value)

	var reply models.RadReply
	require.NoError(t, radiusDB.Where("username = ? AND attribute = ?",
		customer.MikrotikLogin, "Mikrotik-Rate-Limit").First(&reply).Error)
	assert.Equal(t, "20M/20M", reply.Value)

	var group models.RadUserGroup
	require.NoError(t, radiusDB.Where("username = ?", customer.MikrotikLogin).First(&group).Error)
	assert.Equal(t, "10M", group.GroupName)
}

func TestCompletedRequestIsNoOp(t *testing.T) {
	svc, db, _ := newProvisioningFixture(t)
	customer := seedCustomer(t, db, 0)

	req := seedRequest(t, db, customer.ID, models.ServiceRequestActivation, "")
	require.True(t, svc.Execute(req.ID))

	var first models.ServiceRequest
	require.NoError(t, db.First(&first, req.ID).Error)
	completedAt := first.CompletedAt

	require.True(t, svc.Execute(req.ID), "re-running a completed request must succeed as a no-op")

	var second models.ServiceRequest
	require.NoError(t, db.First(&second, req.ID).Error)
	assert.Equal(t, completedAt, second.CompletedAt, "no-op must not touch the record")
}

func TestUpgradeReusesRadiusRows(t *testing.T) {
	svc, db, radiusDB := newProvisioningFixture(t)
	customer := seedCustomer(t, db, 0)

	first := seedRequest(t, db, customer.ID, models.ServiceRequestActivation, `{"rate_limit":"10M/10M"}`)
	require.True(t, svc.Execute(first.ID))

	upgrade := seedRequest(t, db, customer.ID, models.ServiceRequestUpgrade, `{"rate_limit":"50M/50M"}`)
	require.True(t, svc.Execute(upgrade.ID))

	var replies []models.RadReply
	require.NoError(t, radiusDB.Where("username = ? AND attribute = ?",
		customer.MikrotikLogin, "Mikrotik-Rate-Limit").Find(&replies).Error)
	require.Len(t, replies, 1, "upgrade must update the attribute row, not add a second one")
	assert.Equal(t, "50M/50M", replies[0].Value)
}

func TestCancellationRetiresDeviceAndRadius(t *testing.T) {
	svc, db, radiusDB := newProvisioningFixture(t)
	customer := seedCustomer(t, db, 0)

	device := models.CustomerDevice{
		CustomerID:   customer.ID,
		SerialNumber: "ZTEG55667788",
		Status:       models.DeviceStatusActive,
	}
	require.NoError(t, db.Create(&device).Error)

	activation := seedRequest(t, db, customer.ID, models.ServiceRequestActivation, "")
	require.True(t, svc.Execute(activation.ID))

	cancellation := seedRequest(t, db, customer.ID, models.ServiceRequestCancellation, "")
	require.True(t, svc.Execute(cancellation.ID))

	var retired models.CustomerDevice
	require.NoError(t, db.First(&retired, device.ID).Error)
	assert.Equal(t, models.DeviceStatusInactive, retired.Status)
	assert.NotNil(t, retired.ExpirationDate)

	var count int64
	require.NoError(t, radiusDB.Model(&models.RadCheck{}).
		Where("username = ?", customer.MikrotikLogin).Count(&count).Error)
	assert.Zero(t, count, "cancellation must remove the RADIUS credentials")
}

func TestBadDetailsFailsTheRequest(t *testing.T) {
	svc, db, _ := newProvisioningFixture(t)
	customer := seedCustomer(t, db, 0)

	req := seedRequest(t, db, customer.ID, models.ServiceRequestActivation, "{not json")
	assert.False(t, svc.Execute(req.ID))

	var failed models.ServiceRequest
	require.NoError(t, db.First(&failed, req.ID).Error)
	assert.Equal(t, models.ServiceRequestFailed, failed.Status)
	assert.NotEmpty(t, failed.LastError)
}

func TestUnknownOltVendorFailsActivation(t *testing.T) {
	svc, db, _ := newProvisioningFixture(t)

	node := models.ServiceNode{
		Name:             "olt-02",
		IPAddress:        "10.0.1.2",
		Type:             "olt",
		ConnectionMethod: models.ConnectionMethodSNMP,
		OltVendor:        "huawei",
	}
	require.NoError(t, db.Create(&node).Error)

	customer := seedCustomer(t, db, 0)
	customer.OltID = &node.ID
	require.NoError(t, db.Save(customer).Error)
	require.NoError(t, db.Create(&models.CustomerDevice{
		CustomerID:   customer.ID,
		SerialNumber: "HWTC99887766",
		Status:       models.DeviceStatusInactive,
	}).Error)

	req := seedRequest(t, db, customer.ID, models.ServiceRequestActivation, `{"olt_profile":"HOME","vlan":100}`)
	assert.False(t, svc.Execute(req.ID))

	var failed models.ServiceRequest
	require.NoError(t, db.First(&failed, req.ID).Error)
	assert.Equal(t, models.ServiceRequestFailed, failed.Status)
	assert.Contains(t, failed.LastError, "ONU registration")

	var device models.CustomerDevice
	require.NoError(t, db.Where("customer_id = ?", customer.ID).First(&device).Error)
	assert.Equal(t, models.DeviceStatusInactive, device.Status, "device must not flip when the OLT step fails")
}
