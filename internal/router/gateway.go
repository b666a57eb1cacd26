package router

import (
	"fmt"
	"log"

	"github.com/nusalink/backend/internal/models"
	"github.com/nusalink/backend/internal/radius"
	"github.com/nusalink/backend/internal/routeros"
)

// Gateway performs subscriber operations against MikroTik routers. Every
// operation resolves the bound node, opens a fresh connection through the
// Dialer, does its work and disconnects; no connection is reused across
// calls. Connect failures are logged and returned as typed results, never
// raised past this boundary.
type Gateway struct {
	dialer routeros.Dialer

	// disconnectFn sends a RADIUS Disconnect for nodes that carry a CoA
	// secret. Swappable in tests.
	disconnectFn func(node *models.ServiceNode, username, sessionID string) error
}

// NewGateway creates a gateway using the given connection provider
func NewGateway(dialer routeros.Dialer) *Gateway {
	return &Gateway{
		dialer: dialer,
		disconnectFn: func(node *models.ServiceNode, username, sessionID string) error {
			return radius.NewCOAClient(node.IPAddress, node.CoAPort, node.CoASecret).
				DisconnectUser(username, sessionID)
		},
	}
}

// open checks the node configuration and dials it. The caller must Close
// the returned conn when err is nil.
func (g *Gateway) open(node *models.ServiceNode) (routeros.Conn, OpResult) {
	if node.ConnectionMethod != models.ConnectionMethodAPI {
		return nil, resultFail(CodeMisconfigured,
			fmt.Errorf("node %d (%s) uses connection method %q, not api", node.ID, node.IPAddress, node.ConnectionMethod))
	}

	conn, err := g.dialer.Dial(node.APIAddress(), node.APIUsername, node.APIPassword)
	if err != nil {
		log.Printf("Router: cannot connect to node %d (%s): %v", node.ID, node.IPAddress, err)
		return nil, resultFail(CodeUnreachable, err)
	}
	return conn, OpResult{}
}

// findID returns the .id of the first record matching the query, "" if none
func findID(conn routeros.Conn, command string, query ...string) (string, error) {
	records, err := conn.Run(command, query...)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}
	return records[0][".id"], nil
}

// SyncCustomer upserts the customer's PPPoE secret and Hotspot user on the
// router. It probes for existing records before deciding add vs set, so
// calling it repeatedly never creates duplicates. Which mechanisms are
// provisioned follows the plan's session mode.
func (g *Gateway) SyncCustomer(node *models.ServiceNode, customer *models.Customer) OpResult {
	conn, res := g.open(node)
	if conn == nil {
		return res
	}
	defer conn.Close()

	if customer.Plan.ProvisionsPPPoE() {
		if err := g.syncSecret(conn, customer); err != nil {
			log.Printf("Router: sync PPPoE secret for %s on node %d failed: %v", customer.MikrotikLogin, node.ID, err)
			return resultFail(CodeProtocolError, err)
		}
	}
	if customer.Plan.ProvisionsHotspot() {
		if err := g.syncHotspotUser(conn, customer); err != nil {
			log.Printf("Router: sync hotspot user for %s on node %d failed: %v", customer.MikrotikLogin, node.ID, err)
			return resultFail(CodeProtocolError, err)
		}
	}

	log.Printf("Router: synced %s on node %d (%s)", customer.MikrotikLogin, node.ID, node.IPAddress)
	return resultOK()
}

// CreateCustomer provisions a new subscriber. It is the same upsert as
// SyncCustomer so a retried create cannot duplicate records.
func (g *Gateway) CreateCustomer(node *models.ServiceNode, customer *models.Customer) OpResult {
	return g.SyncCustomer(node, customer)
}

// UpdateCustomer pushes changed credentials/profile to the router
func (g *Gateway) UpdateCustomer(node *models.ServiceNode, customer *models.Customer) OpResult {
	return g.SyncCustomer(node, customer)
}

func (g *Gateway) syncSecret(conn routeros.Conn, customer *models.Customer) error {
	id, err := findID(conn, "/ppp/secret/print", "?name="+customer.MikrotikLogin)
	if err != nil {
		return err
	}

	profile := customer.Plan.MikrotikGroup
	if profile == "" {
		profile = "default"
	}

	if id == "" {
		_, err = conn.Run("/ppp/secret/add",
			"=name="+customer.MikrotikLogin,
			"=password="+customer.MikrotikPassword,
			"=service=pppoe",
			"=profile="+profile,
		)
		return err
	}
	_, err = conn.Run("/ppp/secret/set",
		"=.id="+id,
		"=password="+customer.MikrotikPassword,
		"=profile="+profile,
	)
	return err
}

func (g *Gateway) syncHotspotUser(conn routeros.Conn, customer *models.Customer) error {
	id, err := findID(conn, "/ip/hotspot/user/print", "?name="+customer.MikrotikLogin)
	if err != nil {
		return err
	}

	profile := customer.Plan.MikrotikGroup
	if profile == "" {
		profile = "default"
	}

	if id == "" {
		_, err = conn.Run("/ip/hotspot/user/add",
			"=name="+customer.MikrotikLogin,
			"=password="+customer.MikrotikPassword,
			"=profile="+profile,
		)
		return err
	}
	_, err = conn.Run("/ip/hotspot/user/set",
		"=.id="+id,
		"=password="+customer.MikrotikPassword,
		"=profile="+profile,
	)
	return err
}

// SuspendCustomer disables the PPPoE secret and Hotspot user (keeping the
// records) and then kicks any active session of either kind so the disable
// takes effect immediately instead of at session expiry.
func (g *Gateway) SuspendCustomer(node *models.ServiceNode, customer *models.Customer) OpResult {
	conn, res := g.open(node)
	if conn == nil {
		return res
	}
	defer conn.Close()

	if err := g.setDisabled(conn, customer.MikrotikLogin, true); err != nil {
		log.Printf("Router: suspend %s on node %d failed: %v", customer.MikrotikLogin, node.ID, err)
		return resultFail(CodeProtocolError, err)
	}

	g.removeActiveSessions(conn, node, customer.MikrotikLogin)

	log.Printf("Router: suspended %s on node %d", customer.MikrotikLogin, node.ID)
	return resultOK()
}

// ReactivateCustomer re-enables both records. Sessions are not recreated;
// the subscriber reconnects on their own.
func (g *Gateway) ReactivateCustomer(node *models.ServiceNode, customer *models.Customer) OpResult {
	conn, res := g.open(node)
	if conn == nil {
		return res
	}
	defer conn.Close()

	if err := g.setDisabled(conn, customer.MikrotikLogin, false); err != nil {
		log.Printf("Router: reactivate %s on node %d failed: %v", customer.MikrotikLogin, node.ID, err)
		return resultFail(CodeProtocolError, err)
	}

	log.Printf("Router: reactivated %s on node %d", customer.MikrotikLogin, node.ID)
	return resultOK()
}

// DeleteCustomer removes the secret, the hotspot user and any active
// session, a full teardown.
func (g *Gateway) DeleteCustomer(node *models.ServiceNode, customer *models.Customer) OpResult {
	conn, res := g.open(node)
	if conn == nil {
		return res
	}
	defer conn.Close()

	login := customer.MikrotikLogin

	if id, err := findID(conn, "/ppp/secret/print", "?name="+login); err == nil && id != "" {
		if _, err := conn.Run("/ppp/secret/remove", "=.id="+id); err != nil {
			log.Printf("Router: remove secret %s on node %d failed: %v", login, node.ID, err)
			return resultFail(CodeProtocolError, err)
		}
	}
	if id, err := findID(conn, "/ip/hotspot/user/print", "?name="+login); err == nil && id != "" {
		if _, err := conn.Run("/ip/hotspot/user/remove", "=.id="+id); err != nil {
			log.Printf("Router: remove hotspot user %s on node %d failed: %v", login, node.ID, err)
			return resultFail(CodeProtocolError, err)
		}
	}

	g.removeActiveSessions(conn, node, login)

	log.Printf("Router: deleted %s from node %d", login, node.ID)
	return resultOK()
}

// setDisabled flips the disabled flag on whichever records exist for the
// login. Disabling an already-disabled record is a no-op on RouterOS, which
// is what makes the billing suspend loop safely retryable.
func (g *Gateway) setDisabled(conn routeros.Conn, login string, disabled bool) error {
	value := "no"
	if disabled {
		value = "yes"
	}

	if id, err := findID(conn, "/ppp/secret/print", "?name="+login); err != nil {
		return err
	} else if id != "" {
		if _, err := conn.Run("/ppp/secret/set", "=.id="+id, "=disabled="+value); err != nil {
			return err
		}
	}

	if id, err := findID(conn, "/ip/hotspot/user/print", "?name="+login); err != nil {
		return err
	} else if id != "" {
		if _, err := conn.Run("/ip/hotspot/user/set", "=.id="+id, "=disabled="+value); err != nil {
			return err
		}
	}
	return nil
}

// removeActiveSessions kicks PPPoE and Hotspot sessions for the login.
// Failures here are logged only: the records are already disabled, so the
// session dies at the latest on its next reauthentication.
func (g *Gateway) removeActiveSessions(conn routeros.Conn, node *models.ServiceNode, login string) {
	records, err := conn.Run("/ppp/active/print", "?name="+login)
	if err != nil {
		log.Printf("Router: query ppp sessions for %s on node %d failed: %v", login, node.ID, err)
	}
	for _, rec := range records {
		if id := rec[".id"]; id != "" {
			if _, err := conn.Run("/ppp/active/remove", "=.id="+id); err != nil {
				log.Printf("Router: remove ppp session %s for %s failed: %v", id, login, err)
				g.coaDisconnect(node, login, rec["session-id"])
			}
		}
	}

	records, err = conn.Run("/ip/hotspot/active/print", "?user="+login)
	if err != nil {
		log.Printf("Router: query hotspot sessions for %s on node %d failed: %v", login, node.ID, err)
	}
	for _, rec := range records {
		if id := rec[".id"]; id != "" {
			if _, err := conn.Run("/ip/hotspot/active/remove", "=.id="+id); err != nil {
				log.Printf("Router: remove hotspot session %s for %s failed: %v", id, login, err)
			}
		}
	}
}

// coaDisconnect falls back to a RADIUS Disconnect-Request when the API
// session removal was rejected and the node has CoA configured.
func (g *Gateway) coaDisconnect(node *models.ServiceNode, login, sessionID string) {
	if node.CoASecret == "" || g.disconnectFn == nil {
		return
	}
	if err := g.disconnectFn(node, login, sessionID); err != nil {
		log.Printf("Router: CoA disconnect for %s on node %d failed: %v", login, node.ID, err)
	}
}
