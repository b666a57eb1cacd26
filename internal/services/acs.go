package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// AcsService talks to a GenieACS-style TR-069 server over its NBI. Used for
// CPE management beyond what the OLT exposes: WiFi settings, reboots and
// factory resets of the customer router.
type AcsService struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

func NewAcsService(baseURL, username, password string) *AcsService {
	return &AcsService{
		baseURL:  baseURL,
		username: username,
		password: password,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether an ACS endpoint is configured
func (s *AcsService) Enabled() bool {
	return s.baseURL != ""
}

// AcsDevice is the subset of the ACS device document we surface
type AcsDevice struct {
	ID           string    `json:"_id"`
	LastInform   time.Time `json:"_lastInform"`
	SerialNumber string    `json:"serial_number"`
	Manufacturer string    `json:"manufacturer"`
	SoftwareVer  string    `json:"software_version"`
}

// FindDeviceBySerial looks the CPE up by its serial number
func (s *AcsService) FindDeviceBySerial(serial string) (*AcsDevice, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("acs not configured")
	}

	query := fmt.Sprintf(`{"_deviceId._SerialNumber":%q}`, serial)
	endpoint := fmt.Sprintf("%s/devices/?query=%s", s.baseURL, url.QueryEscape(query))

	var raw []struct {
		ID         string    `json:"_id"`
		LastInform time.Time `json:"_lastInform"`
		DeviceID   struct {
			SerialNumber string `json:"_SerialNumber"`
			Manufacturer string `json:"_Manufacturer"`
		} `json:"_deviceId"`
	}
	if err := s.get(endpoint, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("device %s not known to ACS", serial)
	}

	return &AcsDevice{
		ID:           raw[0].ID,
		LastInform:   raw[0].LastInform,
		SerialNumber: raw[0].DeviceID.SerialNumber,
		Manufacturer: raw[0].DeviceID.Manufacturer,
	}, nil
}

// Reboot queues a reboot task for the device
func (s *AcsService) Reboot(deviceID string) error {
	return s.postTask(deviceID, map[string]interface{}{"name": "reboot"})
}

// FactoryReset queues a factory reset task for the device
func (s *AcsService) FactoryReset(deviceID string) error {
	return s.postTask(deviceID, map[string]interface{}{"name": "factoryReset"})
}

// SetParameterValues queues a parameter write, e.g. WiFi SSID/password
func (s *AcsService) SetParameterValues(deviceID string, params map[string]interface{}) error {
	values := make([][]interface{}, 0, len(params))
	for name, value := range params {
		values = append(values, []interface{}{name, value})
	}
	return s.postTask(deviceID, map[string]interface{}{
		"name":            "setParameterValues",
		"parameterValues": values,
	})
}

// RefreshParameters queues a read of the named parameter subtrees
func (s *AcsService) RefreshParameters(deviceID string, names []string) error {
	return s.postTask(deviceID, map[string]interface{}{
		"name":           "getParameterValues",
		"parameterNames": names,
	})
}

// postTask submits a task to the NBI with connection_request so the ACS
// pokes the CPE immediately instead of waiting for its next inform.
func (s *AcsService) postTask(deviceID string, task map[string]interface{}) error {
	if !s.Enabled() {
		return fmt.Errorf("acs not configured")
	}

	body, err := json.Marshal(task)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/devices/%s/tasks?connection_request", s.baseURL, url.PathEscape(deviceID))
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.username != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("acs task %v on %s returned %d: %s", task["name"], deviceID, resp.StatusCode, payload)
	}
	return nil
}

func (s *AcsService) get(endpoint string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if s.username != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("acs returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
