package olt

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nusalink/backend/internal/models"
)

// zteDriver drives ZTE C3xx series OLTs over the management CLI
type zteDriver struct {
	address  string
	username string
	password string
	timeout  time.Duration
}

// NewZTEDriver builds a ZTE driver for the given OLT node
func NewZTEDriver(node *models.ServiceNode) Driver {
	port := node.CLIPort
	if port == 0 {
		port = 23
	}
	return &zteDriver{
		address:  fmt.Sprintf("%s:%d", node.IPAddress, port),
		username: node.APIUsername,
		password: node.APIPassword,
		timeout:  5 * time.Second,
	}
}

// session runs a list of CLI commands in one login and returns the combined
// output. Each read/write is bounded by the driver timeout.
func (d *zteDriver) session(commands ...string) (string, error) {
	conn, err := net.DialTimeout("tcp", d.address, d.timeout)
	if err != nil {
		return "", fmt.Errorf("cannot reach OLT %s: %w", d.address, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(d.timeout))
	w := bufio.NewWriter(conn)
	r := bufio.NewReader(conn)

	login := []string{d.username, d.password, "terminal length 0"}
	for _, line := range append(login, commands...) {
		conn.SetDeadline(time.Now().Add(d.timeout))
		if _, err := w.WriteString(line + "\r\n"); err != nil {
			return "", err
		}
		if err := w.Flush(); err != nil {
			return "", err
		}
	}
	if _, err := w.WriteString("exit\r\n"); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	var out strings.Builder
	for {
		conn.SetReadDeadline(time.Now().Add(d.timeout))
		line, err := r.ReadString('\n')
		out.WriteString(line)
		if err != nil {
			break
		}
	}
	output := out.String()
	if strings.Contains(output, "%Error") || strings.Contains(output, "Invalid input") {
		return output, fmt.Errorf("OLT rejected command: %s", firstErrorLine(output))
	}
	return output, nil
}

func firstErrorLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "%Error") || strings.Contains(line, "Invalid input") {
			return strings.TrimSpace(line)
		}
	}
	return "unknown error"
}

func (d *zteDriver) RegisterONU(serial, profile string, vlan int) error {
	_, err := d.session(
		"configure terminal",
		"interface gpon-olt_1/1/1",
		fmt.Sprintf("onu %s type %s sn %s", serial, profile, serial),
		fmt.Sprintf("onu %s vlan %d", serial, vlan),
		"end",
		"write",
	)
	return err
}

func (d *zteDriver) GetSignal(serial string) (*Signal, error) {
	output, err := d.session(fmt.Sprintf("show pon power attenuation sn %s", serial))
	if err != nil {
		return nil, err
	}
	return parseZTESignal(output)
}

// parseZTESignal extracts Rx/Tx power from "show pon power" output lines
// like "Rx :-18.54(dbm)  Tx :2.31(dbm)".
func parseZTESignal(output string) (*Signal, error) {
	sig := &Signal{}
	found := false
	for _, line := range strings.Split(output, "\n") {
		for _, field := range strings.Fields(line) {
			if v, ok := parseDbmField(field, "Rx:"); ok {
				sig.RxPowerDBm = v
				found = true
			}
			if v, ok := parseDbmField(field, "Tx:"); ok {
				sig.TxPowerDBm = v
				found = true
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("no optical readings in OLT output")
	}
	return sig, nil
}

func parseDbmField(field, prefix string) (float64, bool) {
	if !strings.HasPrefix(field, prefix) {
		return 0, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(field, prefix), "(dbm)")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (d *zteDriver) RebootONU(serial string) error {
	_, err := d.session(fmt.Sprintf("pon-onu-mng reboot sn %s", serial))
	return err
}
