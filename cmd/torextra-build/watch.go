package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"torextra/pkg/extradb"
	"torextra/pkg/model"
	"torextra/pkg/util/workers"
)

func watchCmd() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfg := &model.BuildConfig{}
	var configPath string

	fs.StringVar(&configPath, "config", "", "Optional TOML config file")
	fs.StringVar(&cfg.SrcDir, "src", "", "Directory to watch for descriptor files (required)")
	fs.StringVar(&cfg.DBPath, "db", "./extradb", "Path to LevelDB archive")
	fs.StringVar(&cfg.GeoIPDBPath, "geoip-db", "", "MaxMind database to digest-check descriptors against")
	fs.BoolVar(&cfg.Lax, "lax", false, "Permissive parsing: keep best-effort values")
	fs.Parse(os.Args[2:])

	if configPath != "" {
		if err := applyFileConfig(configPath, cfg, explicitFlags(fs)); err != nil {
			log.Fatal().Err(err).Msg("failed to load config file")
		}
	}

	if cfg.SrcDir == "" {
		log.Fatal().Msg("--src is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runWatch(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("watch failed")
	}
}

func runWatch(ctx context.Context, cfg *model.BuildConfig) error {
	archive, err := extradb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer archive.Close()

	localDigest, err := localGeoIPDigest(cfg.GeoIPDBPath)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.SrcDir); err != nil {
		return err
	}
	log.Info().Str("src", cfg.SrcDir).Msg("watching for descriptor files")

	retry := workers.DefaultRetryConfig()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			path := event.Name
			go func() {
				// Files caught mid-write parse as truncated; back off
				// and re-read
				err := workers.Retry(ctx, retry, func() error {
					return ingestFile(archive, path, cfg.Lax, localDigest)
				})
				if err != nil {
					log.Warn().Err(err).Str("file", path).Msg("descriptor rejected")
					return
				}
				log.Info().Str("file", path).Msg("descriptor stored")
			}()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")
		}
	}
}
