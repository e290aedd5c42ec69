package cfddns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"os"

	"github.com/cloudflare/cloudflare-go"
	"github.com/sirupsen/logrus"
)

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// New returns a Client that will apply cfg on each call to Run.
//
// The default resolver queries DefaultTraceURL and the default provider is
// Cloudflare, authenticated with cfg's api_token and scoped to cfg's
// zone_id. Both can be replaced through options.
func New(cfg Config, options ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("cfddns.New: %w", err)
	}
	c := &Client{
		cfg:      cfg,
		resolver: &TraceResolver{},
		logger:   discard,
		out:      os.Stdout,
	}
	for i, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("cfddns.New: option %d returned an error: %w", i, err)
		}
	}
	if c.provider == nil {
		cf, err := NewCloudflare(cfg.APIToken, cfg.ZoneID)
		if err != nil {
			return nil, fmt.Errorf("cfddns.New: %w", err)
		}
		c.provider = cf
	}

	// options may run before the provider exists, so the logger and http
	// client are propagated to dependencies last
	if c.httpClient != nil {
		switch r := c.resolver.(type) {
		case *TraceResolver:
			r.HTTPClient = c.httpClient
		case *WebResolver:
			r.HTTPClient = c.httpClient
		}
		if cf, ok := c.provider.(*Cloudflare); ok {
			cloudflare.HTTPClient(c.httpClient)(cf.api)
		}
	}
	if cf, ok := c.provider.(*Cloudflare); ok {
		cf.logger = c.logger
	}
	return c, nil
}

// Client performs one synchronous DNS update pass per call to Run.
type Client struct {
	cfg        Config
	resolver   Resolver
	provider   Provider
	logger     logrus.FieldLogger
	out        io.Writer
	httpClient *http.Client
}

// Option configures a Client during New.
type Option func(*Client) error

// UsingResolver replaces the default public-IP resolver.
func UsingResolver(r Resolver) Option {
	return func(c *Client) error {
		if r == nil {
			r = &TraceResolver{}
		}
		c.resolver = r
		return nil
	}
}

// UsingProvider replaces the default Cloudflare DNS provider.
func UsingProvider(p Provider) Option {
	return func(c *Client) error {
		if p == nil {
			return errors.New("provider cannot be nil")
		}
		c.provider = p
		return nil
	}
}

// WithLogger directs diagnostic logging to logger.
// Progress lines for the user are unaffected; see WithOutput.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = discard
		}
		c.logger = logger
		return nil
	}
}

// WithOutput redirects the progress lines normally written to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Client) error {
		if w == nil {
			w = os.Stdout
		}
		c.out = w
		return nil
	}
}

// UsingHTTPClient replaces the HTTP client used by the resolver and the
// Cloudflare provider.
func UsingHTTPClient(httpclient *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = httpclient
		return nil
	}
}

// Run resolves the public IP and applies it to every configured subdomain
// in config order, writing one progress line per step.
//
// A failed subdomain does not stop the remaining ones from being attempted,
// but any failure makes the returned error non-nil. If IP resolution or the
// zone name lookup fails, Run returns before touching any record.
func (c *Client) Run(ctx context.Context) error {
	addr, err := c.resolver.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("error getting public IP: %w", err)
	}
	fmt.Fprintf(c.out, "Current IP: %s\n", addr)

	if len(c.cfg.Subdomains) == 0 {
		c.logger.Debug("no subdomains configured; nothing to update")
		return nil
	}

	zone, err := c.provider.ZoneName(ctx)
	if err != nil {
		return fmt.Errorf("error resolving zone name: %w", err)
	}

	var failed []error
	for _, sd := range c.cfg.Subdomains {
		name := sd.FQDN(zone)
		if err := c.update(ctx, name, addr, sd.Proxied); err != nil {
			fmt.Fprintf(c.out, "Failed to set IP of %s: %s\n", name, err)
			failed = append(failed, fmt.Errorf("%s: %w", name, err))
			continue
		}
		fmt.Fprintf(c.out, "Setting IP of %s to %s\n", name, addr)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d records failed to update: %w",
			len(failed), len(c.cfg.Subdomains), errors.Join(failed...))
	}
	return nil
}

func (c *Client) update(ctx context.Context, fqdn string, addr netip.Addr, proxied bool) error {
	rec, err := c.provider.FindARecord(ctx, fqdn)
	if err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{"record": rec.ID, "current": rec.Content}).Debug("found existing record")
	return c.provider.UpdateARecord(ctx, rec, addr, c.cfg.TTL, proxied)
}
