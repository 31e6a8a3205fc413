package extrainfo

import "time"

// lineHandler parses one recognized line's value and populates the
// descriptor. A returned error means the field was left at its default
// (except the documented percentage range case, which retains the
// parsed value).
type lineHandler func(d *Descriptor, value string) error

// lineHandlers is the field dispatch table: every recognized body
// keyword, statically enumerated. Keywords absent here are routed to
// unrecognized-line retention. Later duplicates overwrite.
var lineHandlers = map[string]lineHandler{
	"published":        timestampLine("published", func(d *Descriptor, ts time.Time) { d.Published = ts }),
	"geoip-start-time": timestampLine("geoip-start-time", func(d *Descriptor, ts time.Time) { d.GeoIPStartTime = ts }),

	"geoip-db-digest":  digestLine("geoip-db-digest", func(d *Descriptor, s string) { d.GeoIPDBDigest = s }),
	"geoip6-db-digest": digestLine("geoip6-db-digest", func(d *Descriptor, s string) { d.GeoIP6DBDigest = s }),

	"dirreq-v2-resp": responseLine("dirreq-v2-resp", func(d *Descriptor, known map[DirResponse]int64, unknown map[string]int64) {
		d.DirV2Responses, d.DirV2ResponsesUnknown = known, unknown
	}),
	"dirreq-v3-resp": responseLine("dirreq-v3-resp", func(d *Descriptor, known map[DirResponse]int64, unknown map[string]int64) {
		d.DirV3Responses, d.DirV3ResponsesUnknown = known, unknown
	}),

	"dirreq-v2-share": percentageLine("dirreq-v2-share", func(d *Descriptor, f *float64) { d.DirV2Share = f }),
	"dirreq-v3-share": percentageLine("dirreq-v3-share", func(d *Descriptor, f *float64) { d.DirV3Share = f }),

	"bridge-stats-end": statsEndLine("bridge-stats-end", func(d *Descriptor, p *StatsPeriod) { d.BridgeStats = p }),
	"dirreq-stats-end": statsEndLine("dirreq-stats-end", func(d *Descriptor, p *StatsPeriod) { d.DirStats = p }),
	"cell-stats-end":   statsEndLine("cell-stats-end", func(d *Descriptor, p *StatsPeriod) { d.CellStats = p }),
	"entry-stats-end":  statsEndLine("entry-stats-end", func(d *Descriptor, p *StatsPeriod) { d.EntryStats = p }),
	"exit-stats-end":   statsEndLine("exit-stats-end", func(d *Descriptor, p *StatsPeriod) { d.ExitStats = p }),

	"read-history":         historyLine("read-history", func(d *Descriptor, h *History) { d.ReadHistory = h }),
	"write-history":        historyLine("write-history", func(d *Descriptor, h *History) { d.WriteHistory = h }),
	"dirreq-read-history":  historyLine("dirreq-read-history", func(d *Descriptor, h *History) { d.DirReadHistory = h }),
	"dirreq-write-history": historyLine("dirreq-write-history", func(d *Descriptor, h *History) { d.DirWriteHistory = h }),

	"dirreq-v2-ips":        localeLine("dirreq-v2-ips", func(d *Descriptor, m map[string]int64) { d.DirV2IPs = m }),
	"dirreq-v3-ips":        localeLine("dirreq-v3-ips", func(d *Descriptor, m map[string]int64) { d.DirV3IPs = m }),
	"dirreq-v2-reqs":       localeLine("dirreq-v2-reqs", func(d *Descriptor, m map[string]int64) { d.DirV2Requests = m }),
	"dirreq-v3-reqs":       localeLine("dirreq-v3-reqs", func(d *Descriptor, m map[string]int64) { d.DirV3Requests = m }),
	"geoip-client-origins": localeLine("geoip-client-origins", func(d *Descriptor, m map[string]int64) { d.GeoIPClientOrigins = m }),
	"bridge-ips":           localeLine("bridge-ips", func(d *Descriptor, m map[string]int64) { d.BridgeIPs = m }),
	"entry-ips":            localeLine("entry-ips", func(d *Descriptor, m map[string]int64) { d.EntryIPs = m }),

	"cell-processed-cells": countSeriesLine("cell-processed-cells", func(d *Descriptor, v []int64) { d.CellProcessedCells = v }),
	"cell-time-in-queue":   countSeriesLine("cell-time-in-queue", func(d *Descriptor, v []int64) { d.CellTimeInQueue = v }),

	"cell-queued-cells": func(d *Descriptor, value string) error {
		values, err := parseDecimalSeries(value)
		if err != nil {
			return &FieldError{Keyword: "cell-queued-cells", Value: value, Reason: err.Error()}
		}
		d.CellQueuedCells = values
		return nil
	},

	"cell-circuits-per-decile": func(d *Descriptor, value string) error {
		n, err := parseCount(value)
		if err != nil {
			return &FieldError{Keyword: "cell-circuits-per-decile", Value: value, Reason: err.Error()}
		}
		d.CellCircuitsPerDecile = &n
		return nil
	},

	"conn-bi-direct": connBiDirectLine,

	"exit-kibibytes-written": portLine("exit-kibibytes-written", func(d *Descriptor, m map[string]int64) { d.ExitKibibytesWritten = m }),
	"exit-kibibytes-read":    portLine("exit-kibibytes-read", func(d *Descriptor, m map[string]int64) { d.ExitKibibytesRead = m }),
	"exit-streams-opened":    portLine("exit-streams-opened", func(d *Descriptor, m map[string]int64) { d.ExitStreamsOpened = m }),
}

func timestampLine(keyword string, set func(*Descriptor, time.Time)) lineHandler {
	return func(d *Descriptor, value string) error {
		ts, err := parseTimestamp(value)
		if err != nil {
			return &FieldError{Keyword: keyword, Value: value, Reason: err.Error()}
		}
		set(d, ts)
		return nil
	}
}

func digestLine(keyword string, set func(*Descriptor, string)) lineHandler {
	return func(d *Descriptor, value string) error {
		digest, err := parseDigest(value)
		if err != nil {
			return &FieldError{Keyword: keyword, Value: value, Reason: err.Error()}
		}
		set(d, digest)
		return nil
	}
}

// percentageLine parses a "NUM%" share. The grammar preserves the
// sign and applies no clamp; a value outside [0, 1] is a validation
// failure after the parsed value has been stored, so permissive
// callers observe the out-of-range fraction while strict callers get
// an error.
func percentageLine(keyword string, set func(*Descriptor, *float64)) lineHandler {
	return func(d *Descriptor, value string) error {
		f, err := parsePercentage(value)
		if err != nil {
			return &FieldError{Keyword: keyword, Value: value, Reason: err.Error()}
		}
		set(d, &f)
		if f < 0 || f > 1 {
			return &FieldError{Keyword: keyword, Value: value, Reason: "share outside [0%, 100%]"}
		}
		return nil
	}
}

func countSeriesLine(keyword string, set func(*Descriptor, []int64)) lineHandler {
	return func(d *Descriptor, value string) error {
		values, err := parseCountSeries(value)
		if err != nil {
			return &FieldError{Keyword: keyword, Value: value, Reason: err.Error()}
		}
		set(d, values)
		return nil
	}
}

func statsEndLine(keyword string, set func(*Descriptor, *StatsPeriod)) lineHandler {
	return func(d *Descriptor, value string) error {
		end, interval, rest, err := parseTimestampInterval(value)
		if err != nil || rest != "" {
			return &FieldError{Keyword: keyword, Value: value, Reason: "malformed stats interval"}
		}
		set(d, &StatsPeriod{End: end, Interval: interval})
		return nil
	}
}

func historyLine(keyword string, set func(*Descriptor, *History)) lineHandler {
	return func(d *Descriptor, value string) error {
		end, interval, rest, err := parseTimestampInterval(value)
		if err != nil {
			return &FieldError{Keyword: keyword, Value: value, Reason: err.Error()}
		}
		values, err := parseSeries(rest)
		if err != nil {
			return &FieldError{Keyword: keyword, Value: value, Reason: err.Error()}
		}
		set(d, &History{End: end, Interval: interval, Values: values})
		return nil
	}
}

func localeLine(keyword string, set func(*Descriptor, map[string]int64)) lineHandler {
	return func(d *Descriptor, value string) error {
		counts, err := parseLocalePairs(value)
		if err != nil {
			return &FieldError{Keyword: keyword, Value: value, Reason: err.Error()}
		}
		set(d, counts)
		return nil
	}
}

func portLine(keyword string, set func(*Descriptor, map[string]int64)) lineHandler {
	return func(d *Descriptor, value string) error {
		counts, err := parsePortPairs(value)
		if err != nil {
			return &FieldError{Keyword: keyword, Value: value, Reason: err.Error()}
		}
		set(d, counts)
		return nil
	}
}

func responseLine(keyword string, set func(*Descriptor, map[DirResponse]int64, map[string]int64)) lineHandler {
	return func(d *Descriptor, value string) error {
		known, unknown, err := parseResponsePairs(value)
		if err != nil {
			return &FieldError{Keyword: keyword, Value: value, Reason: err.Error()}
		}
		set(d, known, unknown)
		return nil
	}
}

// connBiDirectLine parses a timestamp+interval followed by exactly
// four connection counts: below threshold, mostly read, mostly
// written, both.
func connBiDirectLine(d *Descriptor, value string) error {
	end, interval, rest, err := parseTimestampInterval(value)
	if err != nil {
		return &FieldError{Keyword: "conn-bi-direct", Value: value, Reason: err.Error()}
	}
	values, err := parseSeries(rest)
	if err != nil || len(values) != 4 {
		return &FieldError{Keyword: "conn-bi-direct", Value: value, Reason: "expected four connection counts"}
	}
	d.ConnBiDirect = &ConnCounts{
		End:      end,
		Interval: interval,
		Below:    values[0],
		Read:     values[1],
		Write:    values[2],
		Both:     values[3],
	}
	return nil
}
