package router

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/routeros"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRouterOS is an in-memory RouterOS holding PPP secrets, hotspot users
// and active sessions, addressed through the same command sentences the
// real client sends.
type fakeRouterOS struct {
	secrets       []map[string]string
	hotspotUsers  []map[string]string
	pppActive     []map[string]string
	hotspotActive []map[string]string
	idSeq         int
	closed        int
}

func (f *fakeRouterOS) nextID() string {
	f.idSeq++
	return fmt.Sprintf("*%X", f.idSeq)
}

func argMap(args []string) map[string]string {
	m := make(map[string]string)
	for _, a := range args {
		a = strings.TrimPrefix(strings.TrimPrefix(a, "="), "?")
		parts := strings.SplitN(a, "=", 2)
		if len(parts) == 2 {
			m[parts[0]] = parts[1]
		} else {
			m[parts[0]] = ""
		}
	}
	return m
}

func (f *fakeRouterOS) table(command string) *[]map[string]string {
	switch {
	case strings.HasPrefix(command, "/ppp/secret"):
		return &f.secrets
	case strings.HasPrefix(command, "/ip/hotspot/user"):
		return &f.hotspotUsers
	case strings.HasPrefix(command, "/ppp/active"):
		return &f.pppActive
	case strings.HasPrefix(command, "/ip/hotspot/active"):
		return &f.hotspotActive
	}
	return nil
}

func (f *fakeRouterOS) Run(command string, args ...string) ([]map[string]string, error) {
	table := f.table(command)
	if table == nil {
		return nil, nil
	}
	params := argMap(args)

	switch {
	case strings.HasSuffix(command, "/print"):
		var out []map[string]string
		for _, rec := range *table {
			match := true
			for k, v := range params {
				if rec[k] != v {
					match = false
					break
				}
			}
			if match {
				out = append(out, rec)
			}
		}
		return out, nil

	case strings.HasSuffix(command, "/add"):
		rec := map[string]string{".id": f.nextID(), "disabled": "false"}
		for k, v := range params {
			rec[k] = v
		}
		*table = append(*table, rec)
		return nil, nil

	case strings.HasSuffix(command, "/set"):
		for _, rec := range *table {
			if rec[".id"] == params[".id"] {
				for k, v := range params {
					if k != ".id" {
						if k == "disabled" {
							if v == "yes" {
								rec[k] = "true"
							} else {
								rec[k] = "false"
							}
							continue
						}
						rec[k] = v
					}
				}
				return nil, nil
			}
		}
		return nil, &routeros.TrapError{Message: "no such item"}

	case strings.HasSuffix(command, "/remove"):
		for i, rec := range *table {
			if rec[".id"] == params[".id"] {
				*table = append((*table)[:i], (*table)[i+1:]...)
				return nil, nil
			}
		}
		return nil, &routeros.TrapError{Message: "no such item"}
	}
	return nil, nil
}

func (f *fakeRouterOS) Close() error {
	f.closed++
	return nil
}

type fakeDialer struct {
	router  *fakeRouterOS
	failure error
	dials   int
}

func (d *fakeDialer) Dial(address, username, password string) (routeros.Conn, error) {
	d.dials++
	if d.failure != nil {
		return nil, d.failure
	}
	return d.router, nil
}

func testNode() *models.ServiceNode {
	return &models.ServiceNode{
		ID:               1,
		IPAddress:        "10.0.0.1",
		ConnectionMethod: models.ConnectionMethodAPI,
		APIUsername:      "admin",
		APIPassword:      "secret",
		APIPort:          8728,
	}
}

func testCustomer() *models.Customer {
	return &models.Customer{
		ID:               42,
		MikrotikLogin:    "cust042",
		MikrotikPassword: "pw042",
		Plan:             models.Plan{MikrotikGroup: "10M", SessionMode: models.SessionModeDual},
	}
}

func TestSyncCustomerIsIdempotent(t *testing.T) {
	fake := &fakeRouterOS{}
	gw := NewGateway(&fakeDialer{router: fake})
	node, customer := testNode(), testCustomer()

	res := gw.SyncCustomer(node, customer)
	require.True(t, res.OK)

	res = gw.SyncCustomer(node, customer)
	require.True(t, res.OK)

	assert.Len(t, fake.secrets, 1, "second sync must not duplicate the PPPoE secret")
	assert.Len(t, fake.hotspotUsers, 1, "second sync must not duplicate the hotspot user")
	assert.Equal(t, "pw042", fake.secrets[0]["password"])
	assert.Equal(t, "10M", fake.secrets[0]["profile"])
}

func TestSyncRespectsSessionMode(t *testing.T) {
	fake := &fakeRouterOS{}
	gw := NewGateway(&fakeDialer{router: fake})
	node, customer := testNode(), testCustomer()
	customer.Plan.SessionMode = models.SessionModePPPoE

	res := gw.SyncCustomer(node, customer)
	require.True(t, res.OK)
	assert.Len(t, fake.secrets, 1)
	assert.Empty(t, fake.hotspotUsers, "pppoe-only plan must not create a hotspot user")
}

func TestSuspendReactivateRoundTrip(t *testing.T) {
	fake := &fakeRouterOS{}
	gw := NewGateway(&fakeDialer{router: fake})
	node, customer := testNode(), testCustomer()

	require.True(t, gw.SyncCustomer(node, customer).OK)
	preSuspend := fake.secrets[0]["disabled"]

	// Give the subscriber a live session of each kind.
	fake.pppActive = append(fake.pppActive, map[string]string{
		".id": fake.nextID(), "name": "cust042", "session-id": "0x8100004A",
	})
	fake.hotspotActive = append(fake.hotspotActive, map[string]string{
		".id": fake.nextID(), "user": "cust042",
	})

	res := gw.SuspendCustomer(node, customer)
	require.True(t, res.OK)
	assert.Equal(t, "true", fake.secrets[0]["disabled"], "secret must be disabled, not deleted")
	assert.Equal(t, "true", fake.hotspotUsers[0]["disabled"])
	assert.Len(t, fake.secrets, 1)
	assert.Empty(t, fake.pppActive, "active PPPoE session must be kicked at suspend")
	assert.Empty(t, fake.hotspotActive, "active hotspot session must be kicked at suspend")

	res = gw.ReactivateCustomer(node, customer)
	require.True(t, res.OK)
	assert.Equal(t, preSuspend, fake.secrets[0]["disabled"], "reactivate must restore the pre-suspend flag")
	assert.Empty(t, fake.pppActive, "reactivate must not recreate sessions")
}

func TestSuspendIsIdempotent(t *testing.T) {
	fake := &fakeRouterOS{}
	gw := NewGateway(&fakeDialer{router: fake})
	node, customer := testNode(), testCustomer()

	require.True(t, gw.SyncCustomer(node, customer).OK)
	require.True(t, gw.SuspendCustomer(node, customer).OK)
	require.True(t, gw.SuspendCustomer(node, customer).OK, "re-suspending must be a no-op, not a failure")
	assert.Equal(t, "true", fake.secrets[0]["disabled"])
}

func TestDeleteCustomerFullTeardown(t *testing.T) {
	fake := &fakeRouterOS{}
	gw := NewGateway(&fakeDialer{router: fake})
	node, customer := testNode(), testCustomer()

	require.True(t, gw.SyncCustomer(node, customer).OK)
	fake.pppActive = append(fake.pppActive, map[string]string{
		".id": fake.nextID(), "name": "cust042",
	})

	res := gw.DeleteCustomer(node, customer)
	require.True(t, res.OK)
	assert.Empty(t, fake.secrets)
	assert.Empty(t, fake.hotspotUsers)
	assert.Empty(t, fake.pppActive)
}

func TestRefusesNonAPINode(t *testing.T) {
	dialer := &fakeDialer{router: &fakeRouterOS{}}
	gw := NewGateway(dialer)
	node, customer := testNode(), testCustomer()
	node.ConnectionMethod = models.ConnectionMethodSNMP

	res := gw.SyncCustomer(node, customer)
	assert.False(t, res.OK)
	assert.Equal(t, CodeMisconfigured, res.Code)
	assert.Zero(t, dialer.dials, "misconfigured node must not be dialed")
}

func TestConnectFailureIsTypedNotFatal(t *testing.T) {
	dialer := &fakeDialer{failure: errors.New("connection refused")}
	gw := NewGateway(dialer)

	res := gw.SuspendCustomer(testNode(), testCustomer())
	assert.False(t, res.OK)
	assert.Equal(t, CodeUnreachable, res.Code)
	assert.Error(t, res.Err)
}

func TestConnectionClosedAfterEachOperation(t *testing.T) {
	fake := &fakeRouterOS{}
	gw := NewGateway(&fakeDialer{router: fake})
	node, customer := testNode(), testCustomer()

	gw.SyncCustomer(node, customer)
	gw.SuspendCustomer(node, customer)
	gw.ReactivateCustomer(node, customer)

	assert.Equal(t, 3, fake.closed, "every operation opens and closes its own connection")
}
