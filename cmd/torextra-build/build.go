package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"torextra/pkg/extradb"
	"torextra/pkg/extrainfo"
	"torextra/pkg/model"
	"torextra/pkg/sources/geoip"
	"torextra/pkg/util/workers"
)

const schemaVersion = 1

func buildCmd() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	cfg := &model.BuildConfig{}
	var configPath string

	fs.StringVar(&configPath, "config", "", "Optional TOML config file")
	fs.StringVar(&cfg.SrcDir, "src", "", "Directory of descriptor files to ingest (required)")
	fs.StringVar(&cfg.DBPath, "db", "./extradb", "Path to LevelDB archive")
	fs.StringVar(&cfg.GeoIPDBPath, "geoip-db", "", "MaxMind database to digest-check descriptors against")
	fs.IntVar(&cfg.Workers, "workers", 8, "Number of concurrent workers")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", 0, "Files ingested per second (0 = no limit)")
	fs.BoolVar(&cfg.Lax, "lax", false, "Permissive parsing: keep best-effort values")
	fs.Parse(os.Args[2:])

	if configPath != "" {
		if err := applyFileConfig(configPath, cfg, explicitFlags(fs)); err != nil {
			log.Fatal().Err(err).Msg("failed to load config file")
		}
	}

	if err := runBuild(context.Background(), cfg); err != nil {
		log.Fatal().Err(err).Msg("build failed")
	}
}

func runBuild(ctx context.Context, cfg *model.BuildConfig) error {
	if cfg.SrcDir == "" {
		return errors.New("--src is required")
	}

	files, err := discoverDescriptorFiles(cfg.SrcDir)
	if err != nil {
		return err
	}
	log.Info().Int("files", len(files)).Str("src", cfg.SrcDir).Msg("starting ingest")

	archive, err := extradb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer archive.Close()

	localDigest, err := localGeoIPDigest(cfg.GeoIPDBPath)
	if err != nil {
		return err
	}

	pool := workers.NewPool(ctx, workers.Config{Workers: cfg.Workers, RateLimit: cfg.RateLimit})
	for _, path := range files {
		pool.Submit(path, func(ctx context.Context) error {
			return ingestFile(archive, path, cfg.Lax, localDigest)
		})
	}

	var stored, failed int
	for _, result := range pool.Wait() {
		if result.Error != nil {
			failed++
			log.Warn().Err(result.Error).Str("file", result.Name).Msg("descriptor rejected")
			continue
		}
		stored++
	}

	if err := archive.InitializeMetadata(version); err != nil {
		return err
	}

	log.Info().Int("stored", stored).Int("failed", failed).Msg("ingest complete")
	return nil
}

// discoverDescriptorFiles walks dir collecting regular files, skipping
// dotfiles and dot-directories
func discoverDescriptorFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ingestFile parses one descriptor file and stores the result
func ingestFile(archive *extradb.Archive, path string, lax bool, localDigest string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	desc, err := parseDescriptor(string(text), lax)
	if err != nil {
		return err
	}

	if localDigest != "" && desc.GeoIPDBDigest != "" && !strings.EqualFold(localDigest, desc.GeoIPDBDigest) {
		log.Warn().
			Str("file", path).
			Str("relay", desc.Nickname).
			Str("descriptor_digest", desc.GeoIPDBDigest).
			Str("local_digest", localDigest).
			Msg("relay used a different GeoIP database")
	}

	return archive.PutDescriptor(makeRecord(desc, string(text)))
}

func parseDescriptor(text string, lax bool) (*extrainfo.Descriptor, error) {
	if lax {
		return extrainfo.ParseLax(text)
	}
	return extrainfo.Parse(text)
}

// makeRecord reduces a parsed descriptor to its archived form
func makeRecord(desc *extrainfo.Descriptor, raw string) *model.Record {
	return &model.Record{
		Fingerprint:   desc.Fingerprint,
		Nickname:      desc.Nickname,
		Published:     desc.Published,
		GeoIPDBDigest: desc.GeoIPDBDigest,
		ClientOrigins: clientOrigins(desc),
		BytesRead:     sumHistory(desc.ReadHistory),
		BytesWritten:  sumHistory(desc.WriteHistory),
		Unrecognized:  len(desc.UnrecognizedLines),
		Raw:           raw,
		IngestedAt:    time.Now().UTC(),
		Schema:        schemaVersion,
	}
}

// clientOrigins picks the descriptor's client counter map: relays
// publish geoip-client-origins, bridges publish bridge-ips
func clientOrigins(desc *extrainfo.Descriptor) map[string]int64 {
	if len(desc.GeoIPClientOrigins) > 0 {
		return desc.GeoIPClientOrigins
	}
	return desc.BridgeIPs
}

func sumHistory(h *extrainfo.History) int64 {
	if h == nil {
		return 0
	}
	var total int64
	for _, v := range h.Values {
		total += v
	}
	return total
}

// localGeoIPDigest digests the operator's own GeoIP database so ingest
// can flag relays running a different one
func localGeoIPDigest(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	digest, err := geoip.DatabaseDigest(path)
	if err != nil {
		return "", err
	}
	log.Info().Str("digest", digest).Str("path", path).Msg("local GeoIP database digest")
	return digest, nil
}
