package fpcodec

import (
	"bytes"
	"testing"
	"time"
)

const testFingerprint = "B2289C3EAB83ECD6EB916A2F481A02E6B76A0A48"

func TestDescriptorKeyRoundTrip(t *testing.T) {
	published := time.Date(2012, 5, 5, 17, 3, 50, 0, time.UTC)

	key, err := DescriptorKey(testFingerprint, published)
	if err != nil {
		t.Fatalf("Failed to create descriptor key: %v", err)
	}

	fp, ts, err := DecodeDescriptorKey(key)
	if err != nil {
		t.Fatalf("Failed to decode descriptor key: %v", err)
	}
	if fp != testFingerprint {
		t.Errorf("got fingerprint %s, want %s", fp, testFingerprint)
	}
	if !ts.Equal(published) {
		t.Errorf("got published %v, want %v", ts, published)
	}
}

func TestDescriptorKeyOrdering(t *testing.T) {
	earlier, err := DescriptorKey(testFingerprint, time.Date(2012, 5, 5, 17, 3, 50, 0, time.UTC))
	if err != nil {
		t.Fatalf("Failed to create key: %v", err)
	}
	later, err := DescriptorKey(testFingerprint, time.Date(2012, 5, 6, 17, 3, 50, 0, time.UTC))
	if err != nil {
		t.Fatalf("Failed to create key: %v", err)
	}

	if bytes.Compare(earlier, later) >= 0 {
		t.Error("keys should sort by publication time")
	}

	prefix, err := FingerprintPrefix(testFingerprint)
	if err != nil {
		t.Fatalf("Failed to create prefix: %v", err)
	}
	if !bytes.HasPrefix(earlier, prefix) || !bytes.HasPrefix(later, prefix) {
		t.Error("descriptor keys should share the fingerprint prefix")
	}

	limit, err := FingerprintLimit(testFingerprint)
	if err != nil {
		t.Fatalf("Failed to create limit: %v", err)
	}
	if bytes.Compare(later, limit) >= 0 {
		t.Error("descriptor keys should sort below the fingerprint limit")
	}
}

func TestInvalidFingerprints(t *testing.T) {
	invalid := []string{
		"",
		"B2289C3EAB83ECD6EB916A2F481A02E6B76A0A4",   // too short
		"B2289C3EAB83ECD6EB916A2F481A02E6B76A0A488", // too long
		"B2289C3EAB83ECD6EB916A2F481A02E6B76A0A4G",  // non-hex
	}

	for _, fp := range invalid {
		if ValidFingerprint(fp) {
			t.Errorf("ValidFingerprint(%q) should be false", fp)
		}
		if _, err := DescriptorKey(fp, time.Now()); err == nil {
			t.Errorf("DescriptorKey(%q) should have failed", fp)
		}
	}

	if !ValidFingerprint(testFingerprint) {
		t.Error("ValidFingerprint should accept a 40-char hex fingerprint")
	}
}

func TestDecodeRejectsMalformedKeys(t *testing.T) {
	for _, key := range [][]byte{nil, []byte("D:short"), MetaKey("schema")} {
		if _, _, err := DecodeDescriptorKey(key); err == nil {
			t.Errorf("DecodeDescriptorKey(%q) should have failed", key)
		}
	}
}
