package cfddns

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the set of values needed for one update run.
// It is loaded once per run and never mutated afterwards.
type Config struct {
	APIToken   string      `yaml:"api_token"`
	ZoneID     string      `yaml:"zone_id"`
	TTL        int         `yaml:"ttl"`
	Subdomains []Subdomain `yaml:"subdomains"`
}

// Subdomain names one A record to keep pointed at the current public IP.
// An empty Name or "@" refers to the zone apex.
type Subdomain struct {
	Name    string `yaml:"name"`
	Proxied bool   `yaml:"proxied"`
}

// FQDN returns the fully-qualified record name for s within zone.
func (s Subdomain) FQDN(zone string) string {
	if s.Name == "" || s.Name == "@" {
		return zone
	}
	return s.Name + "." + zone
}

// LoadConfig reads and validates the YAML config file at path.
// A missing subdomains key is treated as an empty list,
// which makes the run a no-op after IP detection.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing \"%s\": %w", path, err)
	}
	return cfg, cfg.validate()
}

// validate returns an error describing the first invalid field.
func (c Config) validate() error {
	if c.APIToken == "" {
		return errors.New("api_token must be set in config")
	}
	if c.ZoneID == "" {
		return errors.New("zone_id must be set in config")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be a positive number of seconds; got %d", c.TTL)
	}
	return nil
}
