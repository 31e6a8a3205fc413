package extradb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"torextra/pkg/model"
	"torextra/pkg/util/fpcodec"
)

// Metadata keys
const (
	metaKeySchema         = "schema"
	metaKeyBuiltAt        = "built_at"
	metaKeyBuilderVersion = "builder_version"
)

// SetMetadata sets a metadata key-value pair
func (a *Archive) SetMetadata(key, value string) error {
	return a.put(fpcodec.MetaKey(key), []byte(value))
}

// GetMetadata retrieves a metadata value
func (a *Archive) GetMetadata(key string) (string, error) {
	value, err := a.get(fpcodec.MetaKey(key))
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return string(value), nil
}

// SetSchemaVersion sets the archive schema version
func (a *Archive) SetSchemaVersion(version int) error {
	return a.SetMetadata(metaKeySchema, fmt.Sprintf("%d", version))
}

// GetSchemaVersion retrieves the archive schema version
func (a *Archive) GetSchemaVersion() (int, error) {
	value, err := a.GetMetadata(metaKeySchema)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}
	var version int
	if _, err := fmt.Sscanf(value, "%d", &version); err != nil {
		return 0, fmt.Errorf("invalid schema version: %w", err)
	}
	return version, nil
}

// SetBuiltAt sets the archive build timestamp
func (a *Archive) SetBuiltAt(t time.Time) error {
	return a.SetMetadata(metaKeyBuiltAt, t.Format(time.RFC3339))
}

// GetBuiltAt retrieves the archive build timestamp
func (a *Archive) GetBuiltAt() (time.Time, error) {
	value, err := a.GetMetadata(metaKeyBuiltAt)
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

// SetBuilderVersion sets the builder version
func (a *Archive) SetBuilderVersion(version string) error {
	return a.SetMetadata(metaKeyBuilderVersion, version)
}

// GetBuilderVersion retrieves the builder version
func (a *Archive) GetBuilderVersion() (string, error) {
	return a.GetMetadata(metaKeyBuilderVersion)
}

// InitializeMetadata sets initial metadata when creating a new archive
func (a *Archive) InitializeMetadata(builderVersion string) error {
	if err := a.SetSchemaVersion(1); err != nil {
		return err
	}
	if err := a.SetBuiltAt(time.Now()); err != nil {
		return err
	}
	if err := a.SetBuilderVersion(builderVersion); err != nil {
		return err
	}
	return nil
}

// Stats computes archive statistics by walking every descriptor
func (a *Archive) Stats(ctx context.Context) (*model.Stats, error) {
	stats := &model.Stats{
		ClientsByCountry: make(map[string]int64),
		DescsByNickname:  make(map[string]int64),
	}

	version, err := a.GetSchemaVersion()
	if err != nil {
		log.Warn().Err(err).Msg("failed to get schema version")
	}
	stats.SchemaVersion = version

	builtAt, err := a.GetBuiltAt()
	if err != nil {
		log.Warn().Err(err).Msg("failed to get built_at")
	}
	stats.LastBuiltAt = builtAt

	builderVersion, err := a.GetBuilderVersion()
	if err != nil {
		log.Warn().Err(err).Msg("failed to get builder version")
	}
	stats.BuilderVersion = builderVersion

	relays := make(map[string]bool)
	err = a.IterateDescriptors(func(rec *model.Record) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats.TotalDescriptors++
		relays[rec.Fingerprint] = true
		if rec.Nickname != "" {
			stats.DescsByNickname[rec.Nickname]++
		}
		for country, count := range rec.ClientOrigins {
			stats.ClientsByCountry[country] += count
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate descriptors: %w", err)
	}
	stats.TotalRelays = int64(len(relays))

	return stats, nil
}
