package cfddns

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

// DefaultTraceURL is the IP-echo endpoint used when no resolver is
// configured. The cdn-cgi/trace endpoint is served from Cloudflare's edge,
// so reachability implies the update API is reachable too.
const DefaultTraceURL = "https://1.1.1.1/cdn-cgi/trace"

// Resolver finds the public IPv4 address that DNS records should point at.
type Resolver interface {
	Resolve(context.Context) (netip.Addr, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(context.Context) (netip.Addr, error)

func (f ResolverFunc) Resolve(ctx context.Context) (netip.Addr, error) { return f(ctx) }

// TraceResolver learns the public IP from a Cloudflare cdn-cgi/trace
// endpoint. The response body is a sequence of key=value fields;
// the address is the value of the "ip" key.
//
// One request is made per call. There are no retries.
type TraceResolver struct {
	URL        string // defaults to DefaultTraceURL
	HTTPClient *http.Client
}

// Resolve implements Resolver.
func (tr *TraceResolver) Resolve(ctx context.Context) (netip.Addr, error) {
	u := tr.URL
	if u == "" {
		u = DefaultTraceURL
	}
	body, err := fetch(ctx, tr.HTTPClient, u)
	if err != nil {
		return netip.Addr{}, err
	}
	for _, field := range strings.Fields(body) {
		if v, found := strings.CutPrefix(field, "ip="); found {
			return parseIPv4(v)
		}
	}
	return netip.Addr{}, fmt.Errorf("no ip field in response from %s", u)
}

// WebResolver learns the public IP from an echo service which returns the
// address as the first line of the response body,
// e.g. https://checkip.amazonaws.com/ or https://ipv4.icanhazip.com/.
type WebResolver struct {
	URL        string
	HTTPClient *http.Client
}

// Resolve implements Resolver.
func (wr *WebResolver) Resolve(ctx context.Context) (netip.Addr, error) {
	body, err := fetch(ctx, wr.HTTPClient, wr.URL)
	if err != nil {
		return netip.Addr{}, err
	}
	line, _, _ := strings.Cut(body, "\n")
	return parseIPv4(strings.TrimSpace(line))
}

// FromString constructs a resolver that always returns addr.
func FromString(addr string) Resolver {
	return stringResolver(addr)
}

type stringResolver string

func (s stringResolver) Resolve(context.Context) (netip.Addr, error) {
	return parseIPv4(string(s))
}

func fetch(ctx context.Context, httpclient *http.Client, url string) (string, error) {
	// 15 seconds is an eternity for a request this size, but it guarantees
	// the run finishes even when the caller passed context.Background
	// and http.DefaultClient has no timeout.
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	if httpclient == nil {
		httpclient = http.DefaultClient
	}
	resp, err := httpclient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http request returned %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	return string(body), nil
}

func parseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error parsing IP address: %w", err)
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%s is not an IPv4 address", addr)
	}
	return addr, nil
}
