// file: cmd/diagnostics.go
// version: 2.0.0
// guid: c8f6a0d4-2a8b-48cf-9d08-02cc9915d9fc

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canonmap/canonmap/internal/config"
	"github.com/canonmap/canonmap/internal/entity"
	"github.com/canonmap/canonmap/internal/gsearch"
	"github.com/canonmap/canonmap/internal/openlibrary"
	"github.com/canonmap/canonmap/internal/wikidata"
	"github.com/cockroachdb/pebble/v2"
	"github.com/spf13/cobra"
)

var (
	diagnosticsCmd = &cobra.Command{
		Use:   "diagnostics",
		Short: "Debugging and connectivity helpers",
		Long:  "Diagnostic utilities for inspecting the resolution cache and probing upstream services.",
	}

	cacheQueryCmd = &cobra.Command{
		Use:   "cache-query",
		Short: "Inspect cached resolution records",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			prefix, _ := cmd.Flags().GetString("prefix")
			return runCacheQuery(limit, prefix)
		},
	}

	testKeysCmd = &cobra.Command{
		Use:   "test-keys",
		Short: "Probe each configured upstream service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTestKeys(cmd.Context())
		},
	}
)

func init() {
	cacheQueryCmd.Flags().Int("limit", 5, "Number of records to display")
	cacheQueryCmd.Flags().String("prefix", "resolution:", "Key prefix to inspect")

	diagnosticsCmd.AddCommand(cacheQueryCmd)
	diagnosticsCmd.AddCommand(testKeysCmd)
}

// runCacheQuery dumps raw cache keys and value previews from the Pebble
// store. SQLite caches can be inspected with the sqlite3 CLI directly.
func runCacheQuery(limit int, prefix string) error {
	if limit <= 0 {
		return errors.New("limit must be positive")
	}
	if config.AppConfig.CachePath == "" {
		return errors.New("no cache path configured")
	}
	if config.AppConfig.CacheType != "pebble" {
		return fmt.Errorf("raw inspection is only available for Pebble caches")
	}

	db, err := pebble.Open(config.AppConfig.CachePath, &pebble.Options{
		FormatMajorVersion: pebble.FormatNewest,
	})
	if err != nil {
		return fmt.Errorf("failed to open Pebble cache: %w", err)
	}
	defer db.Close()

	iterOpts := &pebble.IterOptions{}
	if prefix != "" {
		iterOpts.LowerBound = []byte(prefix)
		iterOpts.UpperBound = append([]byte(prefix), 0xFF)
	}

	iter, err := db.NewIter(iterOpts)
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	count := 0
	for ok := iter.First(); ok && iter.Valid(); ok = iter.Next() {
		fmt.Printf("Key: %s\n", string(iter.Key()))
		val := iter.Value()
		fmt.Printf("Value length: %d bytes\n", len(val))
		fmt.Printf("Value preview: %s\n", truncateString(string(val), 500))
		fmt.Println("---")

		count++
		if count >= limit {
			break
		}
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterator error: %w", err)
	}

	if count == 0 {
		fmt.Println("No keys matched the requested prefix.")
	}

	return nil
}

// runTestKeys probes each upstream with a known query and reports
// reachability plus whether the configured credentials are accepted.
func runTestKeys(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	fmt.Println("Probing upstream services...")
	failures := 0

	if config.AppConfig.WikidataEnabled {
		wd := wikidata.NewClient()
		if config.AppConfig.UserAgent != "" {
			wd.SetUserAgent(config.AppConfig.UserAgent)
		}
		if res, err := wd.Lookup(ctx, "The Matrix", entity.TypeMovie); err != nil {
			fmt.Printf("  wikidata:    FAIL (%v)\n", err)
			failures++
		} else if res == nil {
			fmt.Println("  wikidata:    OK (reachable, no candidate)")
		} else {
			fmt.Printf("  wikidata:    OK (%s)\n", res.QID)
		}
	} else {
		fmt.Println("  wikidata:    disabled")
	}

	if config.AppConfig.OpenLibraryEnabled {
		ol := openlibrary.NewClient()
		if config.AppConfig.UserAgent != "" {
			ol.SetUserAgent(config.AppConfig.UserAgent)
		}
		if res, err := ol.FindBook(ctx, "Pride and Prejudice", "Jane Austen"); err != nil {
			fmt.Printf("  openlibrary: FAIL (%v)\n", err)
			failures++
		} else if res == nil {
			fmt.Println("  openlibrary: OK (reachable, no match)")
		} else {
			fmt.Printf("  openlibrary: OK (%s)\n", res.WorkID)
		}
	} else {
		fmt.Println("  openlibrary: disabled")
	}

	gs := gsearch.NewClient(config.AppConfig.APIKeys.Google, config.AppConfig.APIKeys.GoogleEngineID)
	if !gs.Configured() {
		fmt.Println("  google:      not configured")
	} else if results, err := gs.Search(ctx, "The Matrix", entity.TypeMovie, ""); err != nil {
		fmt.Printf("  google:      FAIL (%v)\n", err)
		failures++
	} else {
		fmt.Printf("  google:      OK (%d results)\n", len(results))
	}

	if config.AppConfig.EnableAIRanking && config.AppConfig.APIKeys.OpenAI != "" {
		fmt.Println("  openai:      configured (key presence only; not probed)")
	} else {
		fmt.Println("  openai:      not configured")
	}

	if failures > 0 {
		return fmt.Errorf("%d upstream probe(s) failed", failures)
	}
	fmt.Println("All configured upstreams reachable.")
	return nil
}

func truncateString(in string, max int) string {
	if len(in) <= max {
		return in
	}
	return in[:max] + "..."
}
