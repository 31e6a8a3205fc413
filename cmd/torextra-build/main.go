// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const version = "1.0.0"

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "build":
		buildCmd()
	case "watch":
		watchCmd()
	case "stats":
		statsCmd()
	case "version":
		fmt.Printf("torextra-build version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`torextra-build - Build a descriptor archive from extra-info files

Usage:
  torextra-build build [options]       Ingest a directory of descriptor files
  torextra-build watch [options]       Watch a directory and ingest new files
  torextra-build stats [options]       Show archive statistics
  torextra-build version               Show version
  torextra-build help                  Show this help

Build Options:
  --src string                   Directory of descriptor files to ingest (required)
  --db string                    Path to LevelDB archive (default: ./extradb)
  --geoip-db string              MaxMind database to digest-check descriptors against
  --workers int                  Number of concurrent workers (default: 8)
  --rate-limit float             Files ingested per second (default: unlimited)
  --lax                          Permissive parsing: keep best-effort values
  --config string                Optional TOML config file (flags win)

Watch Options:
  Same as build; ingests files as they appear, retrying files that are
  still being written.

Examples:
  # Ingest a directory of descriptors, strictly
  torextra-build build --src=./descriptors --db=./data/extradb

  # Keep malformed statistics instead of rejecting whole descriptors
  torextra-build build --src=./descriptors --db=./data/extradb --lax

  # Watch a spool directory
  torextra-build watch --src=/var/spool/extra-infos --db=./data/extradb

  # Show statistics
  torextra-build stats --db=./data/extradb`)
}
