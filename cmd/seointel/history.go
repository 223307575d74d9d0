package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seo-intel/seointel/internal/config"
	"github.com/seo-intel/seointel/internal/database"
	"github.com/seo-intel/seointel/internal/model"
)

// NewHistoryCmd creates the history command.
// This command lists stored runs and shows score movement between them.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site]",
		Short: "List stored runs and score movement for a site",
		Long: `History lists the analysis runs stored for a site, most recent first,
with each run's dimension scores, and shows how the scores moved between
the two most recent runs.

Runs are stored automatically by 'seointel run'.

Examples:
  # List runs and score movement for a site
  seointel history example.com

  # List every site with stored runs
  seointel history --list-sites

  # Machine-readable run listing
  seointel history --json example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-sites", "L", false,
		"List all sites with stored runs")
	cmd.Flags().BoolP("json", "j", false,
		"Output run metadata in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}

	if !listSites && len(args) == 0 {
		return errors.New("site is required (use --list-sites to see stored sites)")
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listSites {
		return listStoredSites(ctx, db)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	return listRunHistory(ctx, db, args[0], jsonOutput)
}

// listStoredSites lists all sites that have runs in the database.
func listStoredSites(ctx context.Context, db *database.IntelDB) error {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Println("No stored runs found in the database.")
		fmt.Println("\nUse 'seointel run <site>' to analyze a site.")
		return nil
	}

	fmt.Printf("Analyzed sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Printf("  • %s\n", site)
	}
	fmt.Println("\nUse 'seointel history <site>' to see runs for a site.")

	return nil
}

// listRunHistory lists stored runs for a site and the score movement
// between the two most recent ones.
func listRunHistory(ctx context.Context, db *database.IntelDB, site string, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, site)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No stored runs found for %s\n", site)
		fmt.Println("\nUse 'seointel run' to analyze this site.")
		return nil
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}

	fmt.Printf("Run history for %s (%d runs):\n\n", site, len(runs))
	fmt.Printf("  %-6s  %-20s  %-12s  %s\n", "ID", "Date", "Mode", "Scores")
	fmt.Println("  " + strings.Repeat("-", 70))

	for _, meta := range runs {
		fmt.Printf("  %-6d  %-20s  %-12s  %s\n",
			meta.ID,
			meta.StartedAt.Format("2006-01-02 15:04:05"),
			meta.Mode,
			formatScoreSummary(meta.ScoreSummary),
		)
	}

	if len(runs) >= 2 {
		// Runs come back newest first.
		printScoreMovement(runs[1], runs[0])
	} else {
		fmt.Println("\nRun the analysis again to see score movement between runs.")
	}

	return nil
}

// formatScoreSummary formats a dimension score map into a compact line.
func formatScoreSummary(summary map[string]int) string {
	if len(summary) == 0 {
		return "N/A"
	}

	var parts []string
	for _, dim := range model.DimensionOrder {
		if v, ok := summary[string(dim)]; ok {
			parts = append(parts, fmt.Sprintf("%s:%d", shortDimension(dim), v))
		}
	}
	if len(parts) == 0 {
		return "N/A"
	}
	return strings.Join(parts, " ")
}

// shortDimension abbreviates a dimension for the compact run listing.
func shortDimension(dim model.Dimension) string {
	switch dim {
	case model.DimensionSEO:
		return "S"
	case model.DimensionTechnical:
		return "T"
	case model.DimensionContent:
		return "C"
	case model.DimensionReputation:
		return "R"
	case model.DimensionAuthority:
		return "A"
	}
	return string(dim)
}

// printScoreMovement prints per-dimension deltas between two runs.
func printScoreMovement(previous, current database.RunMetadata) {
	fmt.Printf("\nScore movement (%s -> %s):\n",
		previous.StartedAt.Format("2006-01-02"),
		current.StartedAt.Format("2006-01-02"),
	)
	fmt.Printf("  %-12s  %-10s  %-10s  %s\n", "Dimension", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))

	for _, dim := range model.DimensionOrder {
		prev, hasPrev := previous.ScoreSummary[string(dim)]
		curr, hasCurr := current.ScoreSummary[string(dim)]
		if !hasPrev && !hasCurr {
			continue
		}

		switch {
		case !hasPrev:
			fmt.Printf("  %-12s  %-10s  %-10d  %s\n", dim, "-", curr, "new")
		case !hasCurr:
			fmt.Printf("  %-12s  %-10d  %-10s  %s\n", dim, prev, "-", "discontinued")
		default:
			fmt.Printf("  %-12s  %-10d  %-10d  %s\n", dim, prev, curr, formatScoreDelta(curr-prev))
		}
	}
}

// formatScoreDelta formats a numeric delta with sign for display.
func formatScoreDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
