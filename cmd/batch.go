// file: cmd/batch.go
// version: 2.0.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2f

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/canonmap/canonmap/internal/entity"
	"github.com/canonmap/canonmap/internal/heuristic"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Resolve a file of entity names",
	Long: `Resolve entities listed one per line as "type<TAB>title". Near-duplicate
titles of the same type are collapsed before resolving so each distinct
entity is looked up once. Results are written as JSON lines.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("output")
		return runBatch(cmd, args[0], outPath)
	},
}

func init() {
	batchCmd.Flags().String("output", "", "write results to a file instead of stdout")
}

type batchOutcome struct {
	Query    string           `json:"query"`
	Type     entity.Type      `json:"type"`
	Resolved *entity.Resolved `json:"resolved,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()

	items, err := readBatchItems(in)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No entries to resolve.")
		return nil
	}

	// Collapse near-duplicate titles so "Dune" and "Dune (novel)" resolve
	// once.
	before := len(items)
	items = heuristic.CollapseDeferred(items)
	if len(items) < before {
		fmt.Printf("Collapsed %d entries into %d distinct entities\n", before, len(items))
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	closer, err := initCacheStore()
	if err != nil {
		return err
	}
	defer closer()

	res := newResolver()
	enc := json.NewEncoder(out)
	bar := progressbar.Default(int64(len(items)), "resolving")

	resolvedCount := 0
	for _, item := range items {
		outcome := batchOutcome{Query: item.Title, Type: item.Category}
		resolved, err := res.ResolveEntity(cmd.Context(), item.Title, item.Category)
		switch {
		case err != nil:
			outcome.Error = err.Error()
		case resolved != nil:
			outcome.Resolved = resolved
			resolvedCount++
		}
		if err := enc.Encode(outcome); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	fmt.Fprintf(os.Stderr, "Resolved %d of %d entities\n", resolvedCount, len(items))
	return nil
}

// readBatchItems parses "type<TAB>title" lines, skipping blanks and comments.
func readBatchItems(in *os.File) ([]heuristic.Deferred, error) {
	var items []heuristic.Deferred
	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		typeStr, title, found := strings.Cut(line, "\t")
		if !found {
			log.Printf("[WARN] batch: skipping line %d: expected type<TAB>title", lineNo)
			continue
		}
		typ, err := entity.ParseType(strings.TrimSpace(typeStr))
		if err != nil {
			log.Printf("[WARN] batch: skipping line %d: %v", lineNo, err)
			continue
		}
		items = append(items, heuristic.Deferred{
			Title:    strings.TrimSpace(title),
			Category: typ,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return items, nil
}
