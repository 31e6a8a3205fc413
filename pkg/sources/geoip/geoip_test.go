package geoip

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestDatabaseDigest(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "GeoLite2-Country.mmdb")

	content := []byte("not a real mmdb, but digests all the same")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	digest, err := DatabaseDigest(path)
	if err != nil {
		t.Fatalf("Failed to digest file: %v", err)
	}

	want := fmt.Sprintf("%X", sha1.Sum(content))
	if digest != want {
		t.Errorf("got digest %s, want %s", digest, want)
	}
	if len(digest) != 40 {
		t.Errorf("got digest length %d, want 40", len(digest))
	}
}

func TestDatabaseDigestMissingFile(t *testing.T) {
	if _, err := DatabaseDigest(filepath.Join(t.TempDir(), "missing.mmdb")); err == nil {
		t.Error("expected error for missing file")
	}
}
