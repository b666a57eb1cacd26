package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAddressListScript(t *testing.T) {
	script := BuildAddressListScript("peer-as64500", []string{"203.0.113.0/24", "198.51.100.0/24"})

	lines := strings.Split(strings.TrimRight(script, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "/ip firewall address-list remove [find list=peer-as64500]", lines[0],
		"script must clear stale entries before re-adding")
	assert.Equal(t, "/ip firewall address-list add list=peer-as64500 address=203.0.113.0/24", lines[1])
	assert.Equal(t, "/ip firewall address-list add list=peer-as64500 address=198.51.100.0/24", lines[2])
}

func TestGetAnnouncedPrefixes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/announced-prefixes/data.json", r.URL.Path)
		assert.Equal(t, "AS64500", r.URL.Query().Get("resource"))
		fmt.Fprint(w, `{"data":{"prefixes":[{"prefix":"203.0.113.0/24"},{"prefix":"2001:db8::/32"},{"prefix":""}]}}`)
	}))
	defer server.Close()

	svc := NewBgpService()
	svc.baseURL = server.URL

	prefixes, err := svc.GetAnnouncedPrefixes(64500)
	require.NoError(t, err)
	assert.Equal(t, []string{"203.0.113.0/24", "2001:db8::/32"}, prefixes)
}

func TestGetAsOverview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/as-overview/data.json", r.URL.Path)
		fmt.Fprint(w, `{"data":{"holder":"EXAMPLE-NET","announced":true}}`)
	}))
	defer server.Close()

	svc := NewBgpService()
	svc.baseURL = server.URL

	overview, err := svc.GetAsOverview(64500)
	require.NoError(t, err)
	assert.Equal(t, 64500, overview.ASN)
	assert.Equal(t, "EXAMPLE-NET", overview.Holder)
	assert.True(t, overview.Announced)
}

func TestRipeStatErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewBgpService()
	svc.baseURL = server.URL

	_, err := svc.GetAnnouncedPrefixes(64500)
	assert.Error(t, err)
}
