package extrainfo

import (
	"strings"
)

const (
	keywordIdentity  = "extra-info"
	keywordSignature = "router-signature"

	signatureBeginMarker = "-----BEGIN SIGNATURE-----"
	signatureEndMarker   = "-----END SIGNATURE-----"
)

// entry is one tokenized line: the keyword up to the first space, the
// verbatim remainder, and the original line for diagnostics and
// unrecognized-line retention.
type entry struct {
	keyword string
	value   string
	raw     string
}

// tokenize splits descriptor text into ordered entries. Purely
// lexical; no validation happens here.
func tokenize(text string) []entry {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	entries := make([]entry, 0, len(lines))
	for _, line := range lines {
		keyword, value, _ := strings.Cut(line, " ")
		entries = append(entries, entry{keyword: keyword, value: value, raw: line})
	}
	return entries
}

// Parse parses descriptor text in strict mode: the first structural or
// field-level malformation aborts with an error and no Descriptor.
func Parse(text string) (*Descriptor, error) {
	return parse(text, true)
}

// ParseLax parses descriptor text permissively: malformed fields are
// left at their zero values and the scan continues. It errors only
// when there is no content to construct a descriptor from.
func ParseLax(text string) (*Descriptor, error) {
	return parse(text, false)
}

// parse runs a single pass over the line sequence. The two modes share
// the grammar; validate only decides whether a local failure aborts or
// leaves the field at its default.
func parse(text string, validate bool) (*Descriptor, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &StructureError{Reason: "descriptor is empty"}
	}
	entries := tokenize(text)
	d := &Descriptor{}

	// The identity line must come first. Permissive mode skips any
	// content preceding it rather than failing.
	i := 0
	if entries[0].keyword != keywordIdentity {
		if validate {
			return nil, &StructureError{Reason: "descriptor must begin with an extra-info line", Line: entries[0].raw}
		}
		for i < len(entries) && entries[i].keyword != keywordIdentity {
			i++
		}
		if i == len(entries) {
			// No identity line anywhere; scan the body from the top
			i = 0
		}
	}
	if i < len(entries) && entries[i].keyword == keywordIdentity {
		if err := parseIdentity(d, entries[i].value); err != nil && validate {
			return nil, err
		}
		i++
	}

	sawSignature := false
	for ; i < len(entries); i++ {
		e := entries[i]

		if e.keyword == keywordSignature {
			last, wellFormed := captureSignature(d, entries, i)
			sawSignature = true
			if validate {
				if !wellFormed {
					return nil, &StructureError{Reason: "malformed signature block", Line: e.raw}
				}
				if last+1 < len(entries) {
					return nil, &StructureError{Reason: "content after the router-signature block", Line: entries[last+1].raw}
				}
			}
			break
		}

		handler, ok := lineHandlers[e.keyword]
		if !ok {
			d.UnrecognizedLines = append(d.UnrecognizedLines, e.raw)
			continue
		}
		if err := handler(d, e.value); err != nil && validate {
			return nil, err
		}
	}

	if validate && !sawSignature {
		return nil, &StructureError{Reason: "descriptor has no router-signature line"}
	}
	return d, nil
}

// parseIdentity parses "nickname fingerprint": exactly two non-empty
// space-separated tokens, the second a 40-character hex digest.
func parseIdentity(d *Descriptor, value string) error {
	nickname, fingerprint, ok := strings.Cut(value, " ")
	if !ok || nickname == "" || fingerprint == "" || strings.Contains(fingerprint, " ") {
		return &FieldError{Keyword: keywordIdentity, Value: value, Reason: "expected nickname and fingerprint"}
	}
	if _, err := parseDigest(fingerprint); err != nil {
		return &FieldError{Keyword: keywordIdentity, Value: value, Reason: "malformed fingerprint"}
	}
	d.Nickname = nickname
	d.Fingerprint = fingerprint
	return nil
}

// captureSignature folds the router-signature line's value and every
// following line, up to and including the END marker, into the
// Signature field verbatim. It reports the index of the last consumed
// line and whether the blob carried both markers.
func captureSignature(d *Descriptor, entries []entry, i int) (last int, wellFormed bool) {
	var b strings.Builder
	b.WriteString(entries[i].value)

	sawBegin := false
	sawEnd := false
	last = i
	for j := i + 1; j < len(entries); j++ {
		last = j
		b.WriteByte('\n')
		b.WriteString(entries[j].raw)
		if j == i+1 && entries[j].raw == signatureBeginMarker {
			sawBegin = true
		}
		if entries[j].raw == signatureEndMarker {
			sawEnd = true
			break
		}
	}

	d.Signature = b.String()
	return last, sawBegin && sawEnd
}
