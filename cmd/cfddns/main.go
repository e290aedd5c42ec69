package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/afretwell/cfddns"
	"github.com/cloudflare/cloudflare-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var config = struct {
	ConfigFile string
	IP         string
	Init       bool
	Verbose    bool
}{}

var logger = logrus.New()

func init() {
	// a .env next to the binary may point at the config file
	_ = godotenv.Load()

	configFile := "./config.yml"
	if path, ok := os.LookupEnv("CFDDNS_CONFIG"); ok {
		configFile = path
	}

	pflag.StringVarP(&config.ConfigFile, "config", "c", configFile, "Path to the YAML config file")
	pflag.StringVar(&config.IP, "ip", "", "Skip public IP detection and use this address")
	pflag.BoolVar(&config.Init, "init", false, "Interactively create a starter config file")
	pflag.BoolVarP(&config.Verbose, "verbose", "v", false, "Enable verbose logging")
	pflag.Parse()

	logger.SetOutput(io.Discard)
	if config.Verbose {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.DebugLevel)
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if config.Init {
		return runSetup()
	}

	cfg, err := cfddns.LoadConfig(config.ConfigFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"zone":       cfg.ZoneID,
		"subdomains": len(cfg.Subdomains),
	}).Debug("config loaded")

	options := []cfddns.Option{cfddns.WithLogger(logger)}
	if config.IP != "" {
		options = append(options, cfddns.UsingResolver(cfddns.FromString(config.IP)))
	}
	client, err := cfddns.New(cfg, options...)
	if err != nil {
		return fmt.Errorf("error creating client: %w", err)
	}
	return client.Run(context.Background())
}

// runSetup collects an API token interactively, verifies it against the
// Cloudflare API, and writes a starter config file for the user to fill in.
func runSetup() error {
	if _, err := os.Stat(config.ConfigFile); err == nil {
		return fmt.Errorf("\"%s\" already exists; refusing to overwrite", config.ConfigFile)
	}

	fmt.Printf("Enter Cloudflare API token: \n")
	bytekey, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("error reading from stdin: %w", err)
	}
	token := strings.TrimSpace(string(bytekey))

	api, err := cloudflare.NewWithAPIToken(token)
	if err != nil {
		return fmt.Errorf("error creating api client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Debug("verifying token...")
	result, err := api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("unable to verify api token: %w", err)
	}
	if result.Status != "active" {
		return fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", result.Status)
	}
	logger.Debug("token verified successfully")

	f, err := os.OpenFile(config.ConfigFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("unable to create \"%s\": %w", config.ConfigFile, err)
	}
	defer f.Close()
	fmt.Fprintf(f, `api_token: %s
zone_id: ""
ttl: 300
subdomains:
  - name: ""
    proxied: false
`, token)
	fmt.Printf("Wrote \"%s\" - fill in zone_id and subdomains before running again.\n", config.ConfigFile)
	return nil
}
