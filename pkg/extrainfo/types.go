// Package extrainfo parses Tor extra-info descriptors: line-oriented,
// order-sensitive keyword-value records publishing relay statistics.
//
// Parse enforces the full grammar and rejects the first malformed
// field; ParseLax keeps best-effort values, leaving malformed fields
// at their zero values and retaining unrecognized lines verbatim.
// Signature blobs are extracted but never verified.
package extrainfo

import "time"

// DirResponse is a directory request response category from a
// dirreq-v2-resp or dirreq-v3-resp tally.
type DirResponse string

const (
	ResponseOK            DirResponse = "ok"
	ResponseNotEnoughSigs DirResponse = "not-enough-sigs"
	ResponseUnavailable   DirResponse = "unavailable"
	ResponseNotFound      DirResponse = "not-found"
	ResponseNotModified   DirResponse = "not-modified"
	ResponseBusy          DirResponse = "busy"
)

var dirResponses = map[DirResponse]bool{
	ResponseOK:            true,
	ResponseNotEnoughSigs: true,
	ResponseUnavailable:   true,
	ResponseNotFound:      true,
	ResponseNotModified:   true,
	ResponseBusy:          true,
}

// StatsPeriod is the end time and duration of a statistics collection
// interval ("YYYY-MM-DD HH:MM:SS (NSEC s)" lines).
type StatsPeriod struct {
	End      time.Time
	Interval int64 // Seconds
}

// History is a bandwidth history series: the interval end time, the
// interval length, and one value per interval. An empty series is a
// valid History with no Values.
type History struct {
	End      time.Time
	Interval int64 // Seconds
	Values   []int64
}

// ConnCounts is a conn-bi-direct tally: of the connections observed
// over the period, how many were used below threshold, mostly read,
// mostly written, or both read and written.
type ConnCounts struct {
	End      time.Time
	Interval int64 // Seconds
	Below    int64
	Read     int64
	Write    int64
	Both     int64
}

// Descriptor is one parsed extra-info record. It is populated once by
// Parse or ParseLax and not mutated afterwards. Scalar fields are zero
// and pointer/map fields nil unless their source line parsed
// successfully.
type Descriptor struct {
	Nickname    string    // Relay name from the identity line
	Fingerprint string    // 40 hex chars, case preserved
	Published   time.Time
	Signature   string // Verbatim blob from the trailing signature lines, unverified

	GeoIPDBDigest  string
	GeoIP6DBDigest string
	GeoIPStartTime time.Time

	DirV2Responses        map[DirResponse]int64
	DirV3Responses        map[DirResponse]int64
	DirV2ResponsesUnknown map[string]int64
	DirV3ResponsesUnknown map[string]int64

	// Traffic shares as fractions; pointers because 0.0 is a legal
	// parsed value ("0.00%")
	DirV2Share *float64
	DirV3Share *float64

	BridgeStats *StatsPeriod
	DirStats    *StatsPeriod

	ReadHistory     *History
	WriteHistory    *History
	DirReadHistory  *History
	DirWriteHistory *History

	// Locale-keyed client counters (lowercase alpha-2 code -> count)
	DirV2IPs           map[string]int64
	DirV3IPs           map[string]int64
	DirV2Requests      map[string]int64
	DirV3Requests      map[string]int64
	GeoIPClientOrigins map[string]int64
	BridgeIPs          map[string]int64

	CellStats             *StatsPeriod
	CellProcessedCells    []int64
	CellQueuedCells       []float64
	CellTimeInQueue       []int64
	CellCircuitsPerDecile *int64

	ConnBiDirect *ConnCounts

	EntryStats *StatsPeriod
	EntryIPs   map[string]int64

	ExitStats            *StatsPeriod
	ExitKibibytesWritten map[string]int64 // Port-keyed ("80" or "other")
	ExitKibibytesRead    map[string]int64
	ExitStreamsOpened    map[string]int64

	// Lines whose keyword is not recognized, verbatim in source order
	UnrecognizedLines []string
}
