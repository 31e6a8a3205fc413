package main

import (
	"os"
	"path/filepath"
	"testing"

	"torextra/pkg/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestApplyFileConfig(t *testing.T) {
	path := writeConfig(t, `
src = "/var/spool/extra-infos"
db = "/data/extradb"
geoip_db = "/data/GeoLite2-Country.mmdb"
workers = 4
rate_limit = 2.5
lax = true
`)

	cfg := &model.BuildConfig{DBPath: "./extradb", Workers: 8}
	if err := applyFileConfig(path, cfg, nil); err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.SrcDir != "/var/spool/extra-infos" {
		t.Errorf("unexpected src: %q", cfg.SrcDir)
	}
	if cfg.DBPath != "/data/extradb" {
		t.Errorf("unexpected db: %q", cfg.DBPath)
	}
	if cfg.GeoIPDBPath != "/data/GeoLite2-Country.mmdb" {
		t.Errorf("unexpected geoip db: %q", cfg.GeoIPDBPath)
	}
	if cfg.Workers != 4 {
		t.Errorf("unexpected workers: %d", cfg.Workers)
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("unexpected rate limit: %v", cfg.RateLimit)
	}
	if !cfg.Lax {
		t.Error("expected lax enabled")
	}
}

func TestApplyFileConfigPartial(t *testing.T) {
	path := writeConfig(t, `
src = "/var/spool/extra-infos"
`)

	// Keys absent from the file must leave defaults alone
	cfg := &model.BuildConfig{DBPath: "./extradb", Workers: 8}
	if err := applyFileConfig(path, cfg, nil); err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.SrcDir != "/var/spool/extra-infos" {
		t.Errorf("unexpected src: %q", cfg.SrcDir)
	}
	if cfg.DBPath != "./extradb" {
		t.Errorf("db default clobbered: %q", cfg.DBPath)
	}
	if cfg.Workers != 8 {
		t.Errorf("workers default clobbered: %d", cfg.Workers)
	}
	if cfg.Lax {
		t.Error("lax default clobbered")
	}
}

func TestApplyFileConfigFlagsWin(t *testing.T) {
	path := writeConfig(t, `
src = "/from/file"
workers = 4
`)

	cfg := &model.BuildConfig{SrcDir: "/from/flag", Workers: 16}
	explicit := map[string]bool{"src": true, "workers": true}
	if err := applyFileConfig(path, cfg, explicit); err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.SrcDir != "/from/flag" {
		t.Errorf("explicit flag overridden by file: %q", cfg.SrcDir)
	}
	if cfg.Workers != 16 {
		t.Errorf("explicit flag overridden by file: %d", cfg.Workers)
	}
}

func TestApplyFileConfigMissingFile(t *testing.T) {
	cfg := &model.BuildConfig{}
	if err := applyFileConfig(filepath.Join(t.TempDir(), "missing.toml"), cfg, nil); err == nil {
		t.Error("expected error for missing config file")
	}
}
