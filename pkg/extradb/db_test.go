// SPDX-License-Identifier: MIT

package extradb

import (
	"context"
	"os"
	"testing"
	"time"

	"torextra/pkg/model"
)

const testFingerprint = "B2289C3EAB83ECD6EB916A2F481A02E6B76A0A48"

func testRecord(published time.Time) *model.Record {
	return &model.Record{
		Fingerprint:   testFingerprint,
		Nickname:      "ninja",
		Published:     published,
		GeoIPDBDigest: "916A3CA8B7DF61473D5AE5B21711F35F301CE9E8",
		ClientOrigins: map[string]int64{"uk": 5, "de": 3},
		BytesRead:     66,
		BytesWritten:  42,
		Unrecognized:  1,
		Raw:           "extra-info ninja " + testFingerprint + "\n",
		IngestedAt:    time.Now().UTC().Truncate(time.Second),
		Schema:        1,
	}
}

func openTestArchive(t *testing.T) *Archive {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "extradb-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	archive, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	t.Cleanup(func() {
		if !archive.IsClosed() {
			archive.Close()
		}
	})

	return archive
}

func TestOpenClose(t *testing.T) {
	archive := openTestArchive(t)

	if archive.IsClosed() {
		t.Error("archive should not be closed")
	}

	if err := archive.Close(); err != nil {
		t.Fatalf("Failed to close archive: %v", err)
	}

	if !archive.IsClosed() {
		t.Error("archive should be closed")
	}

	if err := archive.Close(); err != model.ErrArchiveClosed {
		t.Errorf("got %v, want ErrArchiveClosed", err)
	}
}

func TestPutGetDescriptor(t *testing.T) {
	archive := openTestArchive(t)

	published := time.Date(2012, 5, 5, 17, 3, 50, 0, time.UTC)
	rec := testRecord(published)

	if err := archive.PutDescriptor(rec); err != nil {
		t.Fatalf("Failed to put descriptor: %v", err)
	}

	got, err := archive.GetDescriptor(testFingerprint, published)
	if err != nil {
		t.Fatalf("Failed to get descriptor: %v", err)
	}

	if got.Fingerprint != rec.Fingerprint {
		t.Errorf("got fingerprint %s, want %s", got.Fingerprint, rec.Fingerprint)
	}
	if got.Nickname != rec.Nickname {
		t.Errorf("got nickname %s, want %s", got.Nickname, rec.Nickname)
	}
	if !got.Published.Equal(published) {
		t.Errorf("got published %v, want %v", got.Published, published)
	}
	if got.ClientOrigins["uk"] != 5 {
		t.Errorf("got uk count %d, want 5", got.ClientOrigins["uk"])
	}
	if got.Raw != rec.Raw {
		t.Errorf("raw descriptor text did not round-trip")
	}
}

func TestPutDescriptorValidation(t *testing.T) {
	archive := openTestArchive(t)

	rec := testRecord(time.Date(2012, 5, 5, 17, 3, 50, 0, time.UTC))
	rec.Fingerprint = "not-a-fingerprint"
	if err := archive.PutDescriptor(rec); err == nil {
		t.Error("expected error for invalid fingerprint")
	}

	rec = testRecord(time.Time{})
	if err := archive.PutDescriptor(rec); err != model.ErrMissingPublished {
		t.Errorf("got %v, want ErrMissingPublished", err)
	}
}

func TestGetDescriptorNotFound(t *testing.T) {
	archive := openTestArchive(t)

	_, err := archive.GetDescriptor(testFingerprint, time.Date(2012, 5, 5, 17, 3, 50, 0, time.UTC))
	if err != model.ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}

	_, err = archive.LatestDescriptor(testFingerprint)
	if err != model.ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestLatestDescriptor(t *testing.T) {
	archive := openTestArchive(t)

	times := []time.Time{
		time.Date(2012, 5, 5, 17, 3, 50, 0, time.UTC),
		time.Date(2012, 5, 7, 17, 3, 50, 0, time.UTC),
		time.Date(2012, 5, 6, 17, 3, 50, 0, time.UTC),
	}
	for _, published := range times {
		if err := archive.PutDescriptor(testRecord(published)); err != nil {
			t.Fatalf("Failed to put descriptor: %v", err)
		}
	}

	latest, err := archive.LatestDescriptor(testFingerprint)
	if err != nil {
		t.Fatalf("Failed to get latest descriptor: %v", err)
	}
	want := time.Date(2012, 5, 7, 17, 3, 50, 0, time.UTC)
	if !latest.Published.Equal(want) {
		t.Errorf("got published %v, want %v", latest.Published, want)
	}

	all, err := archive.DescriptorsFor(testFingerprint)
	if err != nil {
		t.Fatalf("Failed to list descriptors: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d descriptors, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Published.After(all[i-1].Published) {
			t.Error("descriptors should be ordered newest first")
		}
	}
}

func TestIterateAndCount(t *testing.T) {
	archive := openTestArchive(t)

	other := "0000000000000000000000000000000000000001"
	rec := testRecord(time.Date(2012, 5, 5, 17, 3, 50, 0, time.UTC))
	if err := archive.PutDescriptor(rec); err != nil {
		t.Fatalf("Failed to put descriptor: %v", err)
	}
	rec = testRecord(time.Date(2012, 5, 6, 17, 3, 50, 0, time.UTC))
	rec.Fingerprint = other
	if err := archive.PutDescriptor(rec); err != nil {
		t.Fatalf("Failed to put descriptor: %v", err)
	}

	count, err := archive.CountDescriptors()
	if err != nil {
		t.Fatalf("Failed to count descriptors: %v", err)
	}
	if count != 2 {
		t.Errorf("got count %d, want 2", count)
	}

	seen := make(map[string]int)
	err = archive.IterateDescriptors(func(rec *model.Record) error {
		seen[rec.Fingerprint]++
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to iterate descriptors: %v", err)
	}
	if seen[testFingerprint] != 1 || seen[other] != 1 {
		t.Errorf("unexpected iteration coverage: %v", seen)
	}
}

func TestDeleteDescriptor(t *testing.T) {
	archive := openTestArchive(t)

	published := time.Date(2012, 5, 5, 17, 3, 50, 0, time.UTC)
	if err := archive.PutDescriptor(testRecord(published)); err != nil {
		t.Fatalf("Failed to put descriptor: %v", err)
	}
	if err := archive.DeleteDescriptor(testFingerprint, published); err != nil {
		t.Fatalf("Failed to delete descriptor: %v", err)
	}
	if _, err := archive.GetDescriptor(testFingerprint, published); err != model.ErrNotFound {
		t.Errorf("got %v, want ErrNotFound after delete", err)
	}
}

func TestMetadataAndStats(t *testing.T) {
	archive := openTestArchive(t)

	if err := archive.InitializeMetadata("test-1.0.0"); err != nil {
		t.Fatalf("Failed to initialize metadata: %v", err)
	}

	if err := archive.PutDescriptor(testRecord(time.Date(2012, 5, 5, 17, 3, 50, 0, time.UTC))); err != nil {
		t.Fatalf("Failed to put descriptor: %v", err)
	}
	if err := archive.PutDescriptor(testRecord(time.Date(2012, 5, 6, 17, 3, 50, 0, time.UTC))); err != nil {
		t.Fatalf("Failed to put descriptor: %v", err)
	}

	stats, err := archive.Stats(context.Background())
	if err != nil {
		t.Fatalf("Failed to compute stats: %v", err)
	}

	if stats.TotalDescriptors != 2 {
		t.Errorf("got %d descriptors, want 2", stats.TotalDescriptors)
	}
	if stats.TotalRelays != 1 {
		t.Errorf("got %d relays, want 1", stats.TotalRelays)
	}
	if stats.ClientsByCountry["uk"] != 10 {
		t.Errorf("got uk clients %d, want 10", stats.ClientsByCountry["uk"])
	}
	if stats.DescsByNickname["ninja"] != 2 {
		t.Errorf("got ninja descriptors %d, want 2", stats.DescsByNickname["ninja"])
	}
	if stats.SchemaVersion != 1 {
		t.Errorf("got schema version %d, want 1", stats.SchemaVersion)
	}
	if stats.BuilderVersion != "test-1.0.0" {
		t.Errorf("got builder version %s, want test-1.0.0", stats.BuilderVersion)
	}
	if stats.LastBuiltAt.IsZero() {
		t.Error("built_at should be set")
	}
}

func TestOverwriteDescriptor(t *testing.T) {
	archive := openTestArchive(t)

	published := time.Date(2012, 5, 5, 17, 3, 50, 0, time.UTC)
	rec := testRecord(published)
	if err := archive.PutDescriptor(rec); err != nil {
		t.Fatalf("Failed to put descriptor: %v", err)
	}

	rec = testRecord(published)
	rec.Nickname = "renamed"
	if err := archive.PutDescriptor(rec); err != nil {
		t.Fatalf("Failed to overwrite descriptor: %v", err)
	}

	got, err := archive.GetDescriptor(testFingerprint, published)
	if err != nil {
		t.Fatalf("Failed to get descriptor: %v", err)
	}
	if got.Nickname != "renamed" {
		t.Errorf("got nickname %s, want renamed", got.Nickname)
	}

	count, err := archive.CountDescriptors()
	if err != nil {
		t.Fatalf("Failed to count descriptors: %v", err)
	}
	if count != 1 {
		t.Errorf("got count %d, want 1 after overwrite", count)
	}
}
