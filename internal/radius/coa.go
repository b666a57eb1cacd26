package radius

import (
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2866"
)

// COAClient sends Disconnect-Request packets to a NAS. The router gateway
// uses it to kick live sessions when the node carries a CoA secret; the API
// session removal remains the primary path.
type COAClient struct {
	nasIP   string
	coaPort int
	secret  string
	timeout time.Duration
}

// NewCOAClient creates a new CoA client
func NewCOAClient(nasIP string, coaPort int, secret string) *COAClient {
	if coaPort == 0 {
		coaPort = 1700
	}
	return &COAClient{
		nasIP:   nasIP,
		coaPort: coaPort,
		secret:  secret,
		timeout: 5 * time.Second,
	}
}

// DisconnectUser sends a Disconnect-Request to terminate a user session.
// MikroTik requires the session id lowercased without the 0x prefix.
func (c *COAClient) DisconnectUser(username, sessionID string) error {
	cleanSessionID := sessionID
	if strings.HasPrefix(sessionID, "0x") || strings.HasPrefix(sessionID, "0X") {
		cleanSessionID = sessionID[2:]
	}
	cleanSessionID = strings.ToLower(cleanSessionID)

	log.Printf("CoA: Sending Disconnect-Request to %s:%d for user=%s, session=%s",
		c.nasIP, c.coaPort, username, cleanSessionID)

	packet := radius.New(radius.CodeDisconnectRequest, []byte(c.secret))
	if err := rfc2865.UserName_SetString(packet, username); err != nil {
		return fmt.Errorf("failed to set User-Name: %v", err)
	}
	if cleanSessionID != "" {
		if err := rfc2866.AcctSessionID_SetString(packet, cleanSessionID); err != nil {
			return fmt.Errorf("failed to set Acct-Session-Id: %v", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", c.nasIP, c.coaPort)
	conn, err := net.DialTimeout("udp", addr, c.timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to NAS: %v", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	packetBytes, err := packet.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode packet: %v", err)
	}
	if _, err = conn.Write(packetBytes); err != nil {
		return fmt.Errorf("failed to send Disconnect: %v", err)
	}

	respBuf := make([]byte, 4096)
	n, err := conn.Read(respBuf)
	if err != nil {
		return fmt.Errorf("failed to read Disconnect response: %v", err)
	}

	response, err := radius.Parse(respBuf[:n], []byte(c.secret))
	if err != nil {
		return fmt.Errorf("failed to parse Disconnect response: %v", err)
	}

	switch response.Code {
	case radius.CodeDisconnectACK:
		log.Printf("CoA: User %s disconnected", username)
		return nil
	case radius.CodeDisconnectNAK:
		return fmt.Errorf("Disconnect NAK received - NAS rejected the request")
	default:
		return fmt.Errorf("unexpected Disconnect response code: %d", response.Code)
	}
}
