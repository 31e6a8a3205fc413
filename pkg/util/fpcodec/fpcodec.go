package fpcodec

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	// Key prefixes for LevelDB
	PrefixDescriptor = "D:"
	PrefixMeta       = "meta:"

	fingerprintHexLen = 40
	fingerprintRawLen = 20
)

// ValidFingerprint reports whether s is a 40-character hex relay
// fingerprint.
func ValidFingerprint(s string) bool {
	if len(s) != fingerprintHexLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// DescriptorKey creates a LevelDB key for one archived descriptor.
// Format: "D:" + 20 fingerprint bytes + 8-byte big-endian publication
// seconds, so a relay's descriptors sort by publication time within a
// contiguous key span.
func DescriptorKey(fingerprint string, published time.Time) ([]byte, error) {
	prefix, err := FingerprintPrefix(fingerprint)
	if err != nil {
		return nil, err
	}
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(published.Unix()))
	return key, nil
}

// FingerprintPrefix creates the key prefix covering every descriptor
// a relay has published.
func FingerprintPrefix(fingerprint string) ([]byte, error) {
	raw, err := hex.DecodeString(fingerprint)
	if err != nil || len(raw) != fingerprintRawLen {
		return nil, fmt.Errorf("invalid fingerprint %q", fingerprint)
	}
	key := make([]byte, len(PrefixDescriptor)+fingerprintRawLen)
	copy(key, PrefixDescriptor)
	copy(key[len(PrefixDescriptor):], raw)
	return key, nil
}

// FingerprintLimit returns the exclusive upper bound of a relay's key
// span, for use as an iterator range limit.
func FingerprintLimit(fingerprint string) ([]byte, error) {
	prefix, err := FingerprintPrefix(fingerprint)
	if err != nil {
		return nil, err
	}
	return append(prefix, 0xFF), nil
}

// DecodeDescriptorKey extracts the fingerprint and publication time
// from a descriptor key. Fingerprints come back uppercase, the form
// descriptors are written in.
func DecodeDescriptorKey(key []byte) (fingerprint string, published time.Time, err error) {
	want := len(PrefixDescriptor) + fingerprintRawLen + 8
	if len(key) != want || string(key[:len(PrefixDescriptor)]) != PrefixDescriptor {
		return "", time.Time{}, fmt.Errorf("invalid descriptor key length %d", len(key))
	}
	raw := key[len(PrefixDescriptor) : len(PrefixDescriptor)+fingerprintRawLen]
	seconds := binary.BigEndian.Uint64(key[len(PrefixDescriptor)+fingerprintRawLen:])
	return strings.ToUpper(hex.EncodeToString(raw)), time.Unix(int64(seconds), 0).UTC(), nil
}

// MetaKey creates a metadata key
func MetaKey(suffix string) []byte {
	return []byte(PrefixMeta + suffix)
}
