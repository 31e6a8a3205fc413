// Package geoip resolves client addresses to the lowercase country
// codes the extra-info statistics lines are keyed by, and computes the
// database digest a geoip-db-digest line publishes.
package geoip

import (
	"crypto/sha1"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// Resolver wraps a MaxMind country database reader
type Resolver struct {
	reader *geoip2.Reader
}

// Open opens the MaxMind database at path
func Open(path string) (*Resolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// Close closes the database reader
func (r *Resolver) Close() error {
	if r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

// CountryCode returns the lowercase ISO 3166-1 alpha-2 code for an
// address, the key form used by the descriptor's locale counters
func (r *Resolver) CountryCode(ip netip.Addr) (string, error) {
	record, err := r.reader.Country(net.IP(ip.AsSlice()))
	if err != nil {
		return "", fmt.Errorf("country lookup failed: %w", err)
	}
	if record.Country.IsoCode == "" {
		return "", fmt.Errorf("no country for %v", ip)
	}
	return strings.ToLower(record.Country.IsoCode), nil
}

// CountClientOrigins aggregates addresses into a locale-keyed counter
// map, the shape bridge-ips and geoip-client-origins lines publish.
// Unresolvable addresses are skipped.
func (r *Resolver) CountClientOrigins(ips []netip.Addr) map[string]int64 {
	counts := make(map[string]int64)
	for _, ip := range ips {
		code, err := r.CountryCode(ip)
		if err != nil {
			continue
		}
		counts[code]++
	}
	return counts
}

// DatabaseDigest computes the SHA-1 digest of a GeoIP database file as
// 40 uppercase hex characters, the value class of the geoip-db-digest
// line. The digest identifies the database; nothing is verified.
func DatabaseDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open database file: %w", err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to digest database file: %w", err)
	}
	return fmt.Sprintf("%X", h.Sum(nil)), nil
}
