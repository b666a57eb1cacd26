package router

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/nusalink/backend/internal/models"
)

// SessionKind distinguishes the two subscriber mechanisms
type SessionKind string

const (
	SessionPPPoE   SessionKind = "pppoe"
	SessionHotspot SessionKind = "hotspot"
)

// Session is one live subscriber session on a router
type Session struct {
	Kind      SessionKind `json:"kind"`
	ID        string      `json:"id"`
	Login     string      `json:"login"`
	Address   string      `json:"address"`
	Uptime    string      `json:"uptime"`
	CallerID  string      `json:"caller_id"`
	SessionID string      `json:"session_id"`
}

// SystemResource is a router health snapshot
type SystemResource struct {
	Uptime      string `json:"uptime"`
	Version     string `json:"version"`
	BoardName   string `json:"board_name"`
	CPULoad     int    `json:"cpu_load"`
	FreeMemory  int64  `json:"free_memory"`
	TotalMemory int64  `json:"total_memory"`
}

// InterfaceTraffic is a single live traffic sample for one interface
type InterfaceTraffic struct {
	Interface       string `json:"interface"`
	RxBitsPerSecond int64  `json:"rx_bits_per_second"`
	TxBitsPerSecond int64  `json:"tx_bits_per_second"`
}

// GetSystemResource reads /system/resource, nil on any failure
func (g *Gateway) GetSystemResource(node *models.ServiceNode) *SystemResource {
	conn, _ := g.open(node)
	if conn == nil {
		return nil
	}
	defer conn.Close()

	records, err := conn.Run("/system/resource/print")
	if err != nil || len(records) == 0 {
		log.Printf("Router: resource query on node %d (%s) failed: %v", node.ID, node.IPAddress, err)
		return nil
	}

	rec := records[0]
	res := &SystemResource{
		Uptime:    rec["uptime"],
		Version:   rec["version"],
		BoardName: rec["board-name"],
	}
	res.CPULoad, _ = strconv.Atoi(rec["cpu-load"])
	res.FreeMemory, _ = strconv.ParseInt(rec["free-memory"], 10, 64)
	res.TotalMemory, _ = strconv.ParseInt(rec["total-memory"], 10, 64)
	return res
}

// GetInterfaceTraffic takes one monitor-traffic sample for an interface
func (g *Gateway) GetInterfaceTraffic(node *models.ServiceNode, iface string) *InterfaceTraffic {
	conn, _ := g.open(node)
	if conn == nil {
		return nil
	}
	defer conn.Close()

	records, err := conn.Run("/interface/monitor-traffic", "=interface="+iface, "=once=")
	if err != nil || len(records) == 0 {
		log.Printf("Router: traffic sample for %s on node %d failed: %v", iface, node.ID, err)
		return nil
	}

	rec := records[0]
	traffic := &InterfaceTraffic{Interface: iface}
	traffic.RxBitsPerSecond, _ = strconv.ParseInt(rec["rx-bits-per-second"], 10, 64)
	traffic.TxBitsPerSecond, _ = strconv.ParseInt(rec["tx-bits-per-second"], 10, 64)
	return traffic
}

// GetActiveSessions lists all live PPPoE and Hotspot sessions on the node.
// Returns an empty slice on failure.
func (g *Gateway) GetActiveSessions(node *models.ServiceNode) []Session {
	conn, _ := g.open(node)
	if conn == nil {
		return nil
	}
	defer conn.Close()

	var sessions []Session

	records, err := conn.Run("/ppp/active/print")
	if err != nil {
		log.Printf("Router: ppp session query on node %d failed: %v", node.ID, err)
	}
	for _, rec := range records {
		sessions = append(sessions, Session{
			Kind:      SessionPPPoE,
			ID:        rec[".id"],
			Login:     rec["name"],
			Address:   rec["address"],
			Uptime:    rec["uptime"],
			CallerID:  rec["caller-id"],
			SessionID: rec["session-id"],
		})
	}

	records, err = conn.Run("/ip/hotspot/active/print")
	if err != nil {
		log.Printf("Router: hotspot session query on node %d failed: %v", node.ID, err)
	}
	for _, rec := range records {
		sessions = append(sessions, Session{
			Kind:     SessionHotspot,
			ID:       rec[".id"],
			Login:    rec["user"],
			Address:  rec["address"],
			Uptime:   rec["uptime"],
			CallerID: rec["mac-address"],
		})
	}

	return sessions
}

// FindActiveSessionByLogin returns the subscriber's live session, nil if
// offline or the node is unreachable.
func (g *Gateway) FindActiveSessionByLogin(node *models.ServiceNode, login string) *Session {
	conn, _ := g.open(node)
	if conn == nil {
		return nil
	}
	defer conn.Close()

	records, err := conn.Run("/ppp/active/print", "?name="+login)
	if err == nil && len(records) > 0 {
		rec := records[0]
		return &Session{
			Kind:      SessionPPPoE,
			ID:        rec[".id"],
			Login:     rec["name"],
			Address:   rec["address"],
			Uptime:    rec["uptime"],
			CallerID:  rec["caller-id"],
			SessionID: rec["session-id"],
		}
	}

	records, err = conn.Run("/ip/hotspot/active/print", "?user="+login)
	if err == nil && len(records) > 0 {
		rec := records[0]
		return &Session{
			Kind:     SessionHotspot,
			ID:       rec[".id"],
			Login:    rec["user"],
			Address:  rec["address"],
			Uptime:   rec["uptime"],
			CallerID: rec["mac-address"],
		}
	}

	return nil
}

// GetActiveClientCount returns the number of live sessions of both kinds
func (g *Gateway) GetActiveClientCount(node *models.ServiceNode) int {
	return len(g.GetActiveSessions(node))
}

// CheckConnectivity probes the node. API nodes get a full connect+login;
// SNMP nodes get a lightweight UDP port probe: the socket is opened and
// closed without exchanging an SNMP PDU, which is enough to verify the host
// answers on the management plane.
func (g *Gateway) CheckConnectivity(node *models.ServiceNode) bool {
	if node.ConnectionMethod == models.ConnectionMethodAPI {
		conn, err := g.dialer.Dial(node.APIAddress(), node.APIUsername, node.APIPassword)
		if err != nil {
			log.Printf("Router: connectivity check failed for node %d (%s): %v", node.ID, node.IPAddress, err)
			return false
		}
		conn.Close()
		return true
	}

	port := node.SNMPPort
	if port == 0 {
		port = 161
	}
	addr := fmt.Sprintf("%s:%d", node.IPAddress, port)
	conn, err := net.DialTimeout("udp", addr, 3*time.Second)
	if err != nil {
		log.Printf("Router: SNMP probe failed for node %d (%s): %v", node.ID, node.IPAddress, err)
		return false
	}
	conn.Close()
	return true
}
