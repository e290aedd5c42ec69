package cfddns

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/cloudflare/cloudflare-go"
	"github.com/sirupsen/logrus"
)

// ErrRecordNotFound is returned when the zone holds no A record with the
// requested name. Records are never created by this package;
// a missing record means the zone was not prepared for this tool.
var ErrRecordNotFound = errors.New("no matching A record")

// Record identifies an existing A record at the DNS provider.
type Record struct {
	ID      string
	Name    string
	Content string
}

// Provider is the DNS provider surface needed for one update run.
type Provider interface {
	// ZoneName returns the base domain of the configured zone.
	ZoneName(ctx context.Context) (string, error)
	// FindARecord returns the existing A record named fqdn,
	// or an error wrapping ErrRecordNotFound if there is none.
	FindARecord(ctx context.Context, fqdn string) (Record, error)
	// UpdateARecord points rec at addr with the given TTL and proxy flag.
	UpdateARecord(ctx context.Context, rec Record, addr netip.Addr, ttl int, proxied bool) error
}

// NewCloudflare returns a Provider backed by the Cloudflare v4 API,
// scoped to the zone identified by zoneID.
func NewCloudflare(token string, zoneID string) (*Cloudflare, error) {
	api, err := cloudflare.NewWithAPIToken(token)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	return &Cloudflare{
		api:    api,
		zoneID: zoneID,
		logger: discard,
	}, nil
}

// Cloudflare implements Provider.
//
// It should be constructed with NewCloudflare.
type Cloudflare struct {
	api    *cloudflare.API
	zoneID string
	logger logrus.FieldLogger
}

// ZoneName implements Provider.
func (cf *Cloudflare) ZoneName(ctx context.Context) (string, error) {
	zone, err := cf.api.ZoneDetails(ctx, cf.zoneID)
	if err != nil {
		return "", fmt.Errorf("error fetching details for zone %s: %w", cf.zoneID, err)
	}
	cf.logger.WithField("zone", zone.Name).Debug("resolved zone name")
	return zone.Name, nil
}

// FindARecord implements Provider.
//
// If the zone somehow holds more than one A record named fqdn,
// the first record returned by the API is used.
func (cf *Cloudflare) FindARecord(ctx context.Context, fqdn string) (Record, error) {
	records, _, err := cf.api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(cf.zoneID), cloudflare.ListDNSRecordsParams{
		Type: "A",
		Name: fqdn,
	})
	if err != nil {
		return Record{}, fmt.Errorf("error listing A records named %s: %w", fqdn, err)
	}
	cf.logger.WithFields(logrus.Fields{"name": fqdn, "count": len(records)}).Debug("listed A records")

	if len(records) == 0 {
		return Record{}, fmt.Errorf("%w named %s", ErrRecordNotFound, fqdn)
	}
	r := records[0]
	return Record{ID: r.ID, Name: r.Name, Content: r.Content}, nil
}

// UpdateARecord implements Provider.
func (cf *Cloudflare) UpdateARecord(ctx context.Context, rec Record, addr netip.Addr, ttl int, proxied bool) error {
	updated, err := cf.api.UpdateDNSRecord(ctx, cloudflare.ZoneIdentifier(cf.zoneID), cloudflare.UpdateDNSRecordParams{
		ID:      rec.ID,
		Type:    "A",
		Name:    rec.Name,
		Content: addr.String(),
		TTL:     ttl,
		Proxied: cloudflare.BoolPtr(proxied),
	})
	if err != nil {
		return fmt.Errorf("error updating record %s: %w", rec.ID, err)
	}
	cf.logger.WithFields(logrus.Fields{
		"name":    updated.Name,
		"content": updated.Content,
		"ttl":     updated.TTL,
	}).Debug("updated record")
	return nil
}
