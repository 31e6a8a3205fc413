package model

import (
	"time"
)

// Record is the archived form of one parsed extra-info descriptor
type Record struct {
	Fingerprint   string           // Relay identity digest (40 hex chars)
	Nickname      string           // Relay nickname from the identity line
	Published     time.Time        // Publication time from the descriptor
	GeoIPDBDigest string           // SHA-1 digest of the relay's GeoIP database (optional)
	ClientOrigins map[string]int64 // Per-country client counts (locale code -> count)
	BytesRead     int64            // Sum of the read-history series
	BytesWritten  int64            // Sum of the write-history series
	Unrecognized  int              // Number of retained unrecognized lines
	Raw           string           // Original descriptor text as ingested
	IngestedAt    time.Time        // Time the descriptor was stored
	Schema        int              // Schema version for future migrations
}

// Stats represents archive statistics
type Stats struct {
	TotalDescriptors int64
	TotalRelays      int64
	ClientsByCountry map[string]int64
	DescsByNickname  map[string]int64
	LastBuiltAt      time.Time
	SchemaVersion    int
	BuilderVersion   string
}

// BuildConfig contains configuration for the ingest process
type BuildConfig struct {
	// Input
	SrcDir      string // Directory of descriptor files to ingest
	GeoIPDBPath string // Optional: MaxMind database to digest-check against descriptors

	// Output
	DBPath string

	// Processing options
	Workers int
	Lax     bool // Permissive parsing: keep best-effort values instead of rejecting

	// Rate limiting
	RateLimit float64 // Files ingested per second (0 = no limit)
}

// Error types
type Error string

const (
	ErrNotFound           Error = "descriptor not found in archive"
	ErrArchiveClosed      Error = "archive is closed"
	ErrInvalidFingerprint Error = "invalid relay fingerprint"
	ErrMissingPublished   Error = "descriptor has no published time"
)

func (e Error) Error() string {
	return string(e)
}
