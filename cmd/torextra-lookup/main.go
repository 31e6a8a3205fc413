// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"torextra/pkg/extradb"
	"torextra/pkg/model"
)

const version = "1.0.0"

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	dbPath := flag.String("db", "./extradb", "Path to LevelDB archive")
	jsonOutput := flag.Bool("json", false, "Output as JSON")
	all := flag.Bool("all", false, "Show every archived descriptor, newest first")
	raw := flag.Bool("raw", false, "Dump the stored descriptor text")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("torextra-lookup version %s\n", version)
		return
	}

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: torextra-lookup [options] <fingerprint>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  torextra-lookup B2289C3EAB83ECD6EB916A2F481A02E6B76A0A48\n")
		fmt.Fprintf(os.Stderr, "  torextra-lookup --db=/data/extradb --all B2289C3EAB83ECD6EB916A2F481A02E6B76A0A48\n")
		os.Exit(1)
	}

	fingerprint := strings.ToUpper(flag.Arg(0))

	archive, err := extradb.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open archive")
	}
	defer archive.Close()

	var records []*model.Record
	if *all {
		records, err = archive.DescriptorsFor(fingerprint)
	} else {
		var rec *model.Record
		rec, err = archive.LatestDescriptor(fingerprint)
		if rec != nil {
			records = []*model.Record{rec}
		}
	}
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			if *jsonOutput {
				fmt.Printf("{\"error\":\"descriptor not found in archive\",\"fingerprint\":\"%s\"}\n", fingerprint)
			} else {
				fmt.Printf("No descriptors archived for %s\n", fingerprint)
			}
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("lookup failed")
	}

	switch {
	case *raw:
		for _, rec := range records {
			fmt.Print(rec.Raw)
			if !strings.HasSuffix(rec.Raw, "\n") {
				fmt.Println()
			}
		}
	case *jsonOutput:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to marshal JSON")
		}
		fmt.Println(string(data))
	default:
		for i, rec := range records {
			if i > 0 {
				fmt.Println()
			}
			printHumanReadable(rec)
		}
	}
}

func printHumanReadable(rec *model.Record) {
	fmt.Printf("Relay:              %s\n", rec.Nickname)
	fmt.Printf("Fingerprint:        %s\n", rec.Fingerprint)
	fmt.Printf("Published:          %s\n", rec.Published.Format("2006-01-02 15:04:05"))
	if rec.GeoIPDBDigest != "" {
		fmt.Printf("GeoIP DB digest:    %s\n", rec.GeoIPDBDigest)
	}
	fmt.Printf("Bytes read:         %d\n", rec.BytesRead)
	fmt.Printf("Bytes written:      %d\n", rec.BytesWritten)
	if len(rec.ClientOrigins) > 0 {
		fmt.Printf("Client origins:     %s\n", formatOrigins(rec.ClientOrigins))
	}
	if rec.Unrecognized > 0 {
		fmt.Printf("Unrecognized lines: %d\n", rec.Unrecognized)
	}
	fmt.Printf("Ingested:           %s\n", rec.IngestedAt.Format("2006-01-02 15:04:05"))
}

func formatOrigins(origins map[string]int64) string {
	parts := make([]string, 0, len(origins))
	for _, country := range sortedKeys(origins) {
		parts = append(parts, fmt.Sprintf("%s=%d", country, origins[country]))
	}
	return strings.Join(parts, ",")
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
