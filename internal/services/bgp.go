package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/nusalink/backend/internal/models"
)

const ripeStatBase = "https://stat.ripe.net/data"

// BgpService is the peering toolkit: it pulls AS data from RIPEstat, renders
// RouterOS address-list scripts from announced prefixes and uploads them to
// a router's file store over FTP for import.
type BgpService struct {
	baseURL string
	client  *http.Client
}

func NewBgpService() *BgpService {
	return &BgpService{
		baseURL: ripeStatBase,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// AsOverview is the RIPEstat summary of an autonomous system
type AsOverview struct {
	ASN       int    `json:"asn"`
	Holder    string `json:"holder"`
	Announced bool   `json:"announced"`
}

// GetAsOverview fetches holder and announcement state for an ASN
func (s *BgpService) GetAsOverview(asn int) (*AsOverview, error) {
	var payload struct {
		Data struct {
			Holder    string `json:"holder"`
			Announced bool   `json:"announced"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("%s/as-overview/data.json?resource=AS%d", s.baseURL, asn)
	if err := s.get(endpoint, &payload); err != nil {
		return nil, err
	}
	return &AsOverview{
		ASN:       asn,
		Holder:    payload.Data.Holder,
		Announced: payload.Data.Announced,
	}, nil
}

// GetAnnouncedPrefixes fetches the prefixes currently announced by an ASN
func (s *BgpService) GetAnnouncedPrefixes(asn int) ([]string, error) {
	var payload struct {
		Data struct {
			Prefixes []struct {
				Prefix string `json:"prefix"`
			} `json:"prefixes"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("%s/announced-prefixes/data.json?resource=AS%d", s.baseURL, asn)
	if err := s.get(endpoint, &payload); err != nil {
		return nil, err
	}

	prefixes := make([]string, 0, len(payload.Data.Prefixes))
	for _, p := range payload.Data.Prefixes {
		if p.Prefix != "" {
			prefixes = append(prefixes, p.Prefix)
		}
	}
	return prefixes, nil
}

// BuildAddressListScript renders a RouterOS import script that rebuilds the
// named address list from the prefixes. The script removes the old entries
// first so stale prefixes do not linger after re-import.
func BuildAddressListScript(listName string, prefixes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "/ip firewall address-list remove [find list=%s]\n", listName)
	for _, prefix := range prefixes {
		fmt.Fprintf(&b, "/ip firewall address-list add list=%s address=%s\n", listName, prefix)
	}
	return b.String()
}

// UploadScript stores the script in the router's file store over FTP. The
// API credentials double as FTP credentials on RouterOS.
func (s *BgpService) UploadScript(node *models.ServiceNode, filename, content string) error {
	addr := fmt.Sprintf("%s:21", node.IPAddress)
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("ftp connect to %s: %w", addr, err)
	}
	defer conn.Quit()

	if err := conn.Login(node.APIUsername, node.APIPassword); err != nil {
		return fmt.Errorf("ftp login on %s: %w", node.IPAddress, err)
	}

	if err := conn.Stor(filename, strings.NewReader(content)); err != nil {
		return fmt.Errorf("ftp upload %s to %s: %w", filename, node.IPAddress, err)
	}

	log.Printf("BGP: uploaded %s (%d bytes) to node %d (%s)", filename, len(content), node.ID, node.IPAddress)
	return nil
}

// PushPrefixList fetches an ASN's announced prefixes and uploads them as an
// address-list script named after the list.
func (s *BgpService) PushPrefixList(node *models.ServiceNode, asn int, listName string) (int, error) {
	prefixes, err := s.GetAnnouncedPrefixes(asn)
	if err != nil {
		return 0, err
	}
	if len(prefixes) == 0 {
		return 0, fmt.Errorf("AS%d announces no prefixes", asn)
	}

	script := BuildAddressListScript(listName, prefixes)
	filename := fmt.Sprintf("addrlist-%s.rsc", listName)
	if err := s.UploadScript(node, filename, script); err != nil {
		return 0, err
	}
	return len(prefixes), nil
}

func (s *BgpService) get(endpoint string, out interface{}) error {
	resp, err := s.client.Get(endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ripestat returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
