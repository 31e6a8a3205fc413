package extradb

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/syndtr/goleveldb/leveldb/util"

	"torextra/pkg/model"
	"torextra/pkg/util/fpcodec"
)

// PutDescriptor stores a descriptor record keyed by fingerprint and
// publication time. Re-ingesting the same descriptor overwrites the
// earlier record.
func (a *Archive) PutDescriptor(rec *model.Record) error {
	if !fpcodec.ValidFingerprint(rec.Fingerprint) {
		return fmt.Errorf("%w: %q", model.ErrInvalidFingerprint, rec.Fingerprint)
	}
	if rec.Published.IsZero() {
		return model.ErrMissingPublished
	}

	key, err := fpcodec.DescriptorKey(rec.Fingerprint, rec.Published)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidFingerprint, err)
	}

	value, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	if err := a.put(key, value); err != nil {
		return fmt.Errorf("failed to store descriptor: %w", err)
	}
	return nil
}

// GetDescriptor retrieves the descriptor a relay published at the
// given time, or ErrNotFound
func (a *Archive) GetDescriptor(fingerprint string, published time.Time) (*model.Record, error) {
	key, err := fpcodec.DescriptorKey(fingerprint, published)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidFingerprint, err)
	}

	value, err := a.get(key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, model.ErrNotFound
	}
	return decodeRecord(fingerprint, value)
}

// LatestDescriptor retrieves a relay's most recently published
// descriptor by seeking to the end of its key span
func (a *Archive) LatestDescriptor(fingerprint string) (*model.Record, error) {
	slice, err := fingerprintRange(fingerprint)
	if err != nil {
		return nil, err
	}

	iter := a.newIterator(slice)
	defer iter.Release()

	if !iter.Last() {
		return nil, model.ErrNotFound
	}

	fp, _, err := fpcodec.DecodeDescriptorKey(iter.Key())
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	return decodeRecord(fp, iter.Value())
}

// DescriptorsFor returns every archived descriptor for a relay, newest
// first
func (a *Archive) DescriptorsFor(fingerprint string) ([]*model.Record, error) {
	slice, err := fingerprintRange(fingerprint)
	if err != nil {
		return nil, err
	}

	iter := a.newIterator(slice)
	defer iter.Release()

	var records []*model.Record
	for ok := iter.Last(); ok; ok = iter.Prev() {
		fp, _, err := fpcodec.DecodeDescriptorKey(iter.Key())
		if err != nil {
			return nil, fmt.Errorf("invalid key: %w", err)
		}
		rec, err := decodeRecord(fp, iter.Value())
		if err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, rec)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, model.ErrNotFound
	}
	return records, nil
}

// DeleteDescriptor removes one archived descriptor
func (a *Archive) DeleteDescriptor(fingerprint string, published time.Time) error {
	key, err := fpcodec.DescriptorKey(fingerprint, published)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidFingerprint, err)
	}
	return a.delete(key)
}

// IterateDescriptors iterates over all archived descriptors in key
// order. Records that fail to decode are logged and skipped rather
// than aborting the walk.
func (a *Archive) IterateDescriptors(fn func(*model.Record) error) error {
	slice := &util.Range{
		Start: []byte(fpcodec.PrefixDescriptor),
		Limit: []byte(fpcodec.PrefixDescriptor + "\xFF"),
	}

	iter := a.newIterator(slice)
	defer iter.Release()

	for iter.Next() {
		fp, _, err := fpcodec.DecodeDescriptorKey(iter.Key())
		if err != nil {
			log.Warn().Err(err).Msg("failed to decode archive key")
			continue
		}

		rec, err := decodeRecord(fp, iter.Value())
		if err != nil {
			log.Warn().Err(err).Str("fingerprint", fp).Msg("failed to decode archived record")
			continue
		}

		if err := fn(rec); err != nil {
			return err
		}
	}

	return iter.Error()
}

// CountDescriptors counts all archived descriptors
func (a *Archive) CountDescriptors() (int64, error) {
	slice := &util.Range{
		Start: []byte(fpcodec.PrefixDescriptor),
		Limit: []byte(fpcodec.PrefixDescriptor + "\xFF"),
	}

	iter := a.newIterator(slice)
	defer iter.Release()

	var count int64
	for iter.Next() {
		count++
	}
	if err := iter.Error(); err != nil {
		return 0, err
	}
	return count, nil
}

// fingerprintRange builds the iterator range covering one relay's
// descriptors
func fingerprintRange(fingerprint string) (*util.Range, error) {
	start, err := fpcodec.FingerprintPrefix(fingerprint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidFingerprint, err)
	}
	limit, err := fpcodec.FingerprintLimit(fingerprint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidFingerprint, err)
	}
	return &util.Range{Start: start, Limit: limit}, nil
}
