package routeros

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"time"
)

const maxWordLen = 1 << 20 // 1MB, far above any legitimate API word

// TrapError is a protocol-level error reported by the router (!trap)
type TrapError struct {
	Message string
}

func (e *TrapError) Error() string {
	if e.Message == "" {
		return "routeros: trap"
	}
	return "routeros: " + e.Message
}

// Conn is a single authenticated RouterOS API connection. Implementations
// are not safe for concurrent use; the gateway opens one per operation.
type Conn interface {
	// Run executes a command sentence and returns the !re records as
	// attribute maps. Returns a *TrapError when the router rejects it.
	Run(command string, args ...string) ([]map[string]string, error)
	Close() error
}

// Dialer opens connections to RouterOS nodes. The gateway depends on this
// interface so tests can inject a fake and a pooled provider can be slotted
// in without touching business logic.
type Dialer interface {
	Dial(address, username, password string) (Conn, error)
}

// client implements Conn over a TCP socket
type client struct {
	conn    net.Conn
	timeout time.Duration
}

// NetDialer dials real routers with a fixed retry count and a delay between
// attempts. Every socket read and write is bounded by Timeout.
type NetDialer struct {
	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration
}

// DefaultDialer returns a NetDialer with the standard 3s/3-attempt policy
func DefaultDialer() *NetDialer {
	return &NetDialer{
		Timeout:    3 * time.Second,
		Attempts:   3,
		RetryDelay: 2 * time.Second,
	}
}

// Dial connects and authenticates, retrying connection establishment up to
// the configured attempt count.
func (d *NetDialer) Dial(address, username, password string) (Conn, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	attempts := d.Attempts
	if attempts == 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 && d.RetryDelay > 0 {
			time.Sleep(d.RetryDelay)
		}
		nc, err := net.DialTimeout("tcp", address, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		c := &client{conn: nc, timeout: timeout}
		if err := c.login(username, password); err != nil {
			nc.Close()
			return nil, fmt.Errorf("login to %s failed: %w", address, err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("cannot connect to %s after %d attempts: %w", address, attempts, lastErr)
}

// login authenticates with the post-6.43 plain scheme, falling back to the
// old MD5 challenge-response when the router replies with =ret=.
func (c *client) login(username, password string) error {
	reply, err := c.exchange("/login", "=name="+username, "=password="+password)
	if err != nil {
		return err
	}

	for _, word := range reply {
		if strings.HasPrefix(word, "=ret=") {
			challenge := strings.TrimPrefix(word, "=ret=")
			return c.challengeLogin(username, password, challenge)
		}
	}
	return nil
}

// challengeLogin answers the MD5 challenge: MD5(0x00 + password + challenge)
func (c *client) challengeLogin(username, password, challenge string) error {
	challengeBytes, err := hex.DecodeString(challenge)
	if err != nil {
		return fmt.Errorf("malformed login challenge: %w", err)
	}

	h := md5.New()
	h.Write([]byte{0})
	h.Write([]byte(password))
	h.Write(challengeBytes)
	response := hex.EncodeToString(h.Sum(nil))

	_, err = c.exchange("/login", "=name="+username, "=response=00"+response)
	return err
}

// Run executes a command and parses the reply into !re attribute maps
func (c *client) Run(command string, args ...string) ([]map[string]string, error) {
	words, err := c.exchange(command, args...)
	if err != nil {
		return nil, err
	}

	var results []map[string]string
	current := make(map[string]string)
	for _, word := range words {
		switch {
		case word == "!re":
			if len(current) > 0 {
				results = append(results, current)
			}
			current = make(map[string]string)
		case strings.HasPrefix(word, "="):
			parts := strings.SplitN(word[1:], "=", 2)
			if len(parts) == 2 {
				current[parts[0]] = parts[1]
			} else {
				current[parts[0]] = ""
			}
		}
	}
	if len(current) > 0 {
		results = append(results, current)
	}
	return results, nil
}

// exchange writes one sentence and reads words until !done. A !trap reply
// is collected and returned as a TrapError after the stream completes.
func (c *client) exchange(command string, args ...string) ([]string, error) {
	c.conn.SetDeadline(time.Now().Add(c.timeout))

	if err := writeWord(c.conn, command); err != nil {
		return nil, fmt.Errorf("send %s: %w", command, err)
	}
	for _, arg := range args {
		if err := writeWord(c.conn, arg); err != nil {
			return nil, fmt.Errorf("send %s: %w", command, err)
		}
	}
	if err := writeWord(c.conn, ""); err != nil {
		return nil, fmt.Errorf("send %s: %w", command, err)
	}

	var words []string
	inTrap := false
	trapMessage := ""
	for {
		// Re-arm the deadline per word so a slow streaming reply does not
		// trip the overall timeout, while a stalled read still cannot hang.
		c.conn.SetReadDeadline(time.Now().Add(c.timeout))
		word, err := readWord(c.conn, maxWordLen)
		if err != nil {
			return words, fmt.Errorf("read reply to %s: %w", command, err)
		}

		switch {
		case word == "!done":
			if inTrap || trapMessage != "" {
				return words, &TrapError{Message: trapMessage}
			}
			return words, nil
		case word == "!trap", word == "!fatal":
			inTrap = true
		case inTrap && strings.HasPrefix(word, "=message="):
			trapMessage = strings.TrimPrefix(word, "=message=")
		case word == "":
			// end of sentence, keep reading until !done
		default:
			words = append(words, word)
		}
	}
}

func (c *client) Close() error {
	return c.conn.Close()
}
