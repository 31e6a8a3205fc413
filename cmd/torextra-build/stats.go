package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"

	"torextra/pkg/extradb"
	"torextra/pkg/model"
)

func statsCmd() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	dbPath := fs.String("db", "./extradb", "Path to LevelDB archive")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	fs.Parse(os.Args[2:])

	archive, err := extradb.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open archive")
	}
	defer archive.Close()

	stats, err := archive.Stats(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to compute stats")
	}

	if *jsonOutput {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to marshal stats")
		}
		fmt.Println(string(data))
		return
	}

	printStats(stats)
}

func printStats(stats *model.Stats) {
	fmt.Printf("Descriptors:        %d\n", stats.TotalDescriptors)
	fmt.Printf("Relays:             %d\n", stats.TotalRelays)
	fmt.Printf("Schema version:     %d\n", stats.SchemaVersion)
	fmt.Printf("Builder version:    %s\n", stats.BuilderVersion)
	if !stats.LastBuiltAt.IsZero() {
		fmt.Printf("Last built:         %s\n", stats.LastBuiltAt.Format("2006-01-02 15:04:05"))
	}

	if len(stats.ClientsByCountry) > 0 {
		fmt.Println("\nClients by country:")
		for _, country := range sortedKeys(stats.ClientsByCountry) {
			fmt.Printf("  %s  %d\n", country, stats.ClientsByCountry[country])
		}
	}
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
