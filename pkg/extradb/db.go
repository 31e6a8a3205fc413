// SPDX-License-Identifier: MIT

package extradb

import (
	"fmt"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/vmihailenco/msgpack/v5"

	"torextra/pkg/model"
)

// Archive wraps a LevelDB instance holding parsed extra-info
// descriptors keyed by relay fingerprint and publication time
type Archive struct {
	db     *leveldb.DB
	mu     sync.RWMutex
	path   string
	closed bool
}

// Open opens or creates a descriptor archive at the specified path
func Open(path string) (*Archive, error) {
	opts := &opt.Options{
		// Use snappy compression for values
		Compression: opt.SnappyCompression,
		// Increase write buffer for faster bulk ingest
		WriteBuffer: 64 * 1024 * 1024, // 64MB
	}

	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	return &Archive{
		db:   db,
		path: path,
	}, nil
}

// Close closes the archive
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return model.ErrArchiveClosed
	}

	a.closed = true
	return a.db.Close()
}

// IsClosed returns true if the archive is closed
func (a *Archive) IsClosed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.closed
}

// Path returns the archive path
func (a *Archive) Path() string {
	return a.path
}

// get retrieves a value by key; a missing key returns nil, nil
func (a *Archive) get(key []byte) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, model.ErrArchiveClosed
	}

	value, err := a.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	return value, nil
}

// put stores a key-value pair
func (a *Archive) put(key, value []byte) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return model.ErrArchiveClosed
	}

	return a.db.Put(key, value, nil)
}

// delete removes a key-value pair
func (a *Archive) delete(key []byte) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return model.ErrArchiveClosed
	}

	return a.db.Delete(key, nil)
}

// newIterator creates a new iterator over the given key range
func (a *Archive) newIterator(slice *util.Range) iterator.Iterator {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.db.NewIterator(slice, nil)
}

// encodeRecord serializes a Record to msgpack
func encodeRecord(rec *model.Record) ([]byte, error) {
	// Create a serializable struct; times travel as Unix seconds
	data := struct {
		Nickname      string
		Published     int64
		GeoIPDBDigest string
		ClientOrigins map[string]int64
		BytesRead     int64
		BytesWritten  int64
		Unrecognized  int
		Raw           string
		IngestedAt    int64
		Schema        int
	}{
		Nickname:      rec.Nickname,
		Published:     rec.Published.Unix(),
		GeoIPDBDigest: rec.GeoIPDBDigest,
		ClientOrigins: rec.ClientOrigins,
		BytesRead:     rec.BytesRead,
		BytesWritten:  rec.BytesWritten,
		Unrecognized:  rec.Unrecognized,
		Raw:           rec.Raw,
		IngestedAt:    rec.IngestedAt.Unix(),
		Schema:        rec.Schema,
	}

	return msgpack.Marshal(data)
}

// decodeRecord deserializes a Record from msgpack; the fingerprint
// lives in the key, not the value
func decodeRecord(fingerprint string, data []byte) (*model.Record, error) {
	var stored struct {
		Nickname      string
		Published     int64
		GeoIPDBDigest string
		ClientOrigins map[string]int64
		BytesRead     int64
		BytesWritten  int64
		Unrecognized  int
		Raw           string
		IngestedAt    int64
		Schema        int
	}

	if err := msgpack.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &model.Record{
		Fingerprint:   fingerprint,
		Nickname:      stored.Nickname,
		Published:     time.Unix(stored.Published, 0).UTC(),
		GeoIPDBDigest: stored.GeoIPDBDigest,
		ClientOrigins: stored.ClientOrigins,
		BytesRead:     stored.BytesRead,
		BytesWritten:  stored.BytesWritten,
		Unrecognized:  stored.Unrecognized,
		Raw:           stored.Raw,
		IngestedAt:    time.Unix(stored.IngestedAt, 0).UTC(),
		Schema:        stored.Schema,
	}, nil
}
