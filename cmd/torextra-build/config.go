package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"torextra/pkg/model"
)

type fileConfig struct {
	Src       string  `toml:"src"`
	DB        string  `toml:"db"`
	GeoIPDB   string  `toml:"geoip_db"`
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
	Lax       bool    `toml:"lax"`
}

// applyFileConfig fills cfg from a TOML file. Only keys actually
// present in the file are applied, and flags given explicitly on the
// command line always win.
func applyFileConfig(path string, cfg *model.BuildConfig, explicit map[string]bool) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load build config: %w", err)
	}

	if meta.IsDefined("src") && !explicit["src"] {
		cfg.SrcDir = strings.TrimSpace(raw.Src)
	}
	if meta.IsDefined("db") && !explicit["db"] {
		cfg.DBPath = strings.TrimSpace(raw.DB)
	}
	if meta.IsDefined("geoip_db") && !explicit["geoip-db"] {
		cfg.GeoIPDBPath = strings.TrimSpace(raw.GeoIPDB)
	}
	if meta.IsDefined("workers") && !explicit["workers"] {
		cfg.Workers = raw.Workers
	}
	if meta.IsDefined("rate_limit") && !explicit["rate-limit"] {
		cfg.RateLimit = raw.RateLimit
	}
	if meta.IsDefined("lax") && !explicit["lax"] {
		cfg.Lax = raw.Lax
	}

	return nil
}

// explicitFlags reports which flags were set on the command line
func explicitFlags(fs *flag.FlagSet) map[string]bool {
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})
	return explicit
}
