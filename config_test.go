package cfddns_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/afretwell/cfddns"
	"gotest.tools/v3/assert"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `api_token: test-token
zone_id: 023e105f4ecef8ad9ca31a8372d0c353
ttl: 300
subdomains:
  - name: ""
    proxied: false
  - name: home
    proxied: true
`)
	cfg, err := cfddns.LoadConfig(path)
	assert.NilError(t, err)
	assert.Equal(t, "test-token", cfg.APIToken)
	assert.Equal(t, "023e105f4ecef8ad9ca31a8372d0c353", cfg.ZoneID)
	assert.Equal(t, 300, cfg.TTL)
	assert.Equal(t, 2, len(cfg.Subdomains))
	assert.Equal(t, cfddns.Subdomain{Name: "", Proxied: false}, cfg.Subdomains[0])
	assert.Equal(t, cfddns.Subdomain{Name: "home", Proxied: true}, cfg.Subdomains[1])
}

func TestLoadConfigEmptySubdomains(t *testing.T) {
	path := writeConfig(t, `api_token: test-token
zone_id: zone1
ttl: 60
subdomains: []
`)
	cfg, err := cfddns.LoadConfig(path)
	assert.NilError(t, err)
	assert.Equal(t, 0, len(cfg.Subdomains))
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := cfddns.LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorContains(t, err, "error opening config file")
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeConfig(t, "api_token: [\n")
	_, err := cfddns.LoadConfig(path)
	assert.ErrorContains(t, err, "error parsing")
}

func TestLoadConfigMissingFields(t *testing.T) {
	for name, contents := range map[string]string{
		"api_token": "zone_id: zone1\nttl: 60\n",
		"zone_id":   "api_token: test-token\nttl: 60\n",
		"ttl":       "api_token: test-token\nzone_id: zone1\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, contents)
			_, err := cfddns.LoadConfig(path)
			assert.ErrorContains(t, err, name)
		})
	}
}

func TestLoadConfigNegativeTTL(t *testing.T) {
	path := writeConfig(t, "api_token: test-token\nzone_id: zone1\nttl: -1\n")
	_, err := cfddns.LoadConfig(path)
	assert.ErrorContains(t, err, "ttl must be a positive number")
}

func TestFQDN(t *testing.T) {
	const zone = "example.com"
	for _, tt := range []struct {
		name string
		want string
	}{
		{name: "", want: "example.com"},
		{name: "@", want: "example.com"},
		{name: "home", want: "home.example.com"},
		{name: "a.b", want: "a.b.example.com"},
	} {
		got := cfddns.Subdomain{Name: tt.name}.FQDN(zone)
		assert.Equal(t, tt.want, got)
	}
}
