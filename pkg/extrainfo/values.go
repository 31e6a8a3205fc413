package extrainfo

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

var (
	errMalformedTimestamp = errors.New("malformed timestamp")
	errMalformedInterval  = errors.New("malformed interval")
	errMalformedSeries    = errors.New("malformed value series")
	errMalformedDigest    = errors.New("malformed digest")
	errMalformedPercent   = errors.New("malformed percentage")
	errMalformedPair      = errors.New("malformed key=value pair")
	errNegativeCount      = errors.New("negative count")
)

// parseTimestamp parses a strict "YYYY-MM-DD HH:MM:SS" timestamp in UTC.
// Out-of-range components (e.g. seconds >= 60) fail.
func parseTimestamp(v string) (time.Time, error) {
	if len(v) != len(timestampLayout) {
		return time.Time{}, errMalformedTimestamp
	}
	ts, err := time.Parse(timestampLayout, v)
	if err != nil {
		return time.Time{}, errMalformedTimestamp
	}
	return ts, nil
}

// parseTimestampInterval parses the "YYYY-MM-DD HH:MM:SS (NSEC s)" form
// and returns whatever follows the closing parenthesis for the caller
// to interpret (empty for plain stats-end lines, a value series for
// history lines).
func parseTimestampInterval(v string) (end time.Time, interval int64, rest string, err error) {
	if len(v) < len(timestampLayout)+1 || v[len(timestampLayout)] != ' ' {
		return time.Time{}, 0, "", errMalformedTimestamp
	}
	end, err = parseTimestamp(v[:len(timestampLayout)])
	if err != nil {
		return time.Time{}, 0, "", err
	}

	rest = v[len(timestampLayout)+1:]
	if !strings.HasPrefix(rest, "(") {
		return time.Time{}, 0, "", errMalformedInterval
	}
	rparen := strings.IndexByte(rest, ')')
	if rparen < 0 {
		return time.Time{}, 0, "", errMalformedInterval
	}

	// The unit suffix is a literal " s" inside the parentheses
	num, ok := strings.CutSuffix(rest[1:rparen], " s")
	if !ok {
		return time.Time{}, 0, "", errMalformedInterval
	}
	interval, err = parseCount(num)
	if err != nil {
		return time.Time{}, 0, "", errMalformedInterval
	}

	return end, interval, rest[rparen+1:], nil
}

// parseSeries parses the optional value series that may follow an
// interval: a single space, then comma-separated non-negative integers.
// An empty or all-whitespace series is an empty list, not a failure.
func parseSeries(rest string) ([]int64, error) {
	if rest == "" {
		return []int64{}, nil
	}
	if rest[0] != ' ' {
		return nil, errMalformedSeries
	}
	return parseCountSeries(rest[1:])
}

// parseCountSeries parses a comma-separated list of non-negative
// integers; empty input yields an empty list.
func parseCountSeries(v string) ([]int64, error) {
	if strings.TrimSpace(v) == "" {
		return []int64{}, nil
	}
	values := []int64{}
	for _, tok := range strings.Split(v, ",") {
		n, err := parseCount(tok)
		if err != nil {
			return nil, errMalformedSeries
		}
		values = append(values, n)
	}
	return values, nil
}

// parseDecimalSeries parses a comma-separated list of non-negative
// decimals (integer or fractional); empty input yields an empty list.
func parseDecimalSeries(v string) ([]float64, error) {
	if strings.TrimSpace(v) == "" {
		return []float64{}, nil
	}
	values := []float64{}
	for _, tok := range strings.Split(v, ",") {
		if !isDecimal(tok) {
			return nil, errMalformedSeries
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, errMalformedSeries
		}
		values = append(values, f)
	}
	return values, nil
}

// parseCount parses a non-negative decimal integer. Signs, blanks, and
// fractional parts all fail.
func parseCount(v string) (int64, error) {
	if v == "" {
		return 0, errMalformedPair
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			if v[i] == '-' {
				return 0, errNegativeCount
			}
			return 0, errMalformedPair
		}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errMalformedPair
	}
	return n, nil
}

// parseDigest validates a 40-character hexadecimal digest, preserving
// the case it was written in.
func parseDigest(v string) (string, error) {
	if len(v) != 40 {
		return "", errMalformedDigest
	}
	for i := 0; i < len(v); i++ {
		if !isHexChar(v[i]) {
			return "", errMalformedDigest
		}
	}
	return v, nil
}

func isHexChar(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// parsePercentage parses "NUM%" into a fraction (NUM / 100). The sign
// is preserved and no bounds are applied here; range checking is a
// validation concern, not a grammar one.
func parsePercentage(v string) (float64, error) {
	body, ok := strings.CutSuffix(v, "%")
	if !ok || !isDecimal(strings.TrimPrefix(body, "-")) {
		return 0, errMalformedPercent
	}
	f, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, errMalformedPercent
	}
	return f / 100, nil
}

// isDecimal reports whether v is one or more digits with at most one
// fractional part ("50", "0.01"). Rejects empty strings, signs, and
// exponent notation.
func isDecimal(v string) bool {
	whole, frac, hasFrac := strings.Cut(v, ".")
	if !isDigits(whole) {
		return false
	}
	if hasFrac && !isDigits(frac) {
		return false
	}
	return true
}

func isDigits(v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}

// counterPair is one staged key=value entry from a counter-map line.
type counterPair struct {
	key   string
	count int64
}

// parseCounterPairs parses a comma-separated "key=value" list into a
// staging slice. Any malformed pair fails the whole line so a partial
// map is never observed. An empty value is an empty list.
func parseCounterPairs(v string) ([]counterPair, error) {
	if v == "" {
		return []counterPair{}, nil
	}
	pairs := []counterPair{}
	for _, tok := range strings.Split(v, ",") {
		key, val, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			return nil, errMalformedPair
		}
		count, err := parseCount(val)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, counterPair{key: key, count: count})
	}
	return pairs, nil
}

// parseLocalePairs parses "CC=N" locale counters. Keys must be exactly
// two characters; that is the only key-shape rule the line grammar has
// ever enforced (no alphabetic check).
func parseLocalePairs(v string) (map[string]int64, error) {
	pairs, err := parseCounterPairs(v)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(pairs))
	for _, p := range pairs {
		if len(p.key) != 2 {
			return nil, errMalformedPair
		}
		counts[p.key] = p.count
	}
	return counts, nil
}

// parsePortPairs parses port-keyed counters where each key is a
// decimal port number or the literal "other".
func parsePortPairs(v string) (map[string]int64, error) {
	pairs, err := parseCounterPairs(v)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(pairs))
	for _, p := range pairs {
		if p.key != "other" {
			port, err := parseCount(p.key)
			if err != nil || port > 65535 {
				return nil, errMalformedPair
			}
		}
		counts[p.key] = p.count
	}
	return counts, nil
}

// parseResponsePairs parses directory response tallies, splitting
// recognized categories from unknown keys. Unknown keys are retained,
// not rejected; a malformed pair still fails the whole line.
func parseResponsePairs(v string) (map[DirResponse]int64, map[string]int64, error) {
	pairs, err := parseCounterPairs(v)
	if err != nil {
		return nil, nil, err
	}
	known := make(map[DirResponse]int64)
	unknown := make(map[string]int64)
	for _, p := range pairs {
		resp := DirResponse(p.key)
		if dirResponses[resp] {
			known[resp] = p.count
		} else {
			unknown[p.key] = p.count
		}
	}
	return known, unknown, nil
}
