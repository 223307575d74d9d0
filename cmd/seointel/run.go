package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seo-intel/seointel/internal/cache"
	"github.com/seo-intel/seointel/internal/config"
	"github.com/seo-intel/seointel/internal/database"
	"github.com/seo-intel/seointel/internal/engine"
	"github.com/seo-intel/seointel/internal/log"
	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/registry"
	"github.com/seo-intel/seointel/internal/report"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [site]",
		Short: "Analyze a site's search presence and assemble a report",
		Long: `Run executes one analysis of the given site.

It resolves provider capabilities from configured credentials, schedules the
analysis units the requested mode asks for, executes them against cached
provider data, scores each dimension, diffs against the site's baseline
snapshot, and writes a markdown intelligence report.

Provider gateways are configured through environment variables
(SEOINTEL_SEARCH_PERFORMANCE_URL and friends); credentials through the
variables named in the .seointel config file. Providers without credentials
resolve as unavailable and their units are skipped, never fatal.

Examples:
  # Full analysis with a markdown report in the data directory
  seointel run example.com

  # Technical-only analysis against two competitors
  seointel run --mode technical --competitors rival.com,other.com example.com

  # Print the markdown document to stdout as well
  seointel run --markdown example.com

  # Machine-readable output
  seointel run --json example.com

  # Bypass cached provider data
  seointel run --no-cache example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runRunCmd,
	}

	// Analysis scope flags
	cmd.Flags().StringP("mode", "M", string(model.ModeFull),
		"Execution mode (full, delta, competitor, keywords, performance, technical, local, backlinks, sentiment, pricing, radar)")
	cmd.Flags().StringSliceP("competitors", "C", nil,
		"Competitor sites for comparative units")
	cmd.Flags().StringP("niche", "n", "",
		"Site niche; local niches enable the local-presence unit")
	cmd.Flags().IntP("days", "d", config.DefaultDays,
		"Length of the analysis window in days")

	// Cache and baseline flags
	cmd.Flags().Bool("no-cache", false,
		"Refetch provider data even when fresh cache entries exist")
	cmd.Flags().Bool("save-baseline", false,
		"Persist the run's snapshot as the new baseline regardless of mode")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .seointel in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report to stdout (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output markdown report to stdout (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the markdown report to this path instead of the reports directory")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildRunConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential masking
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAnalysis(ctx, cfg, logger)
}

// buildRunConfig creates a Config from cobra command flags.
func buildRunConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Site = args[0]

	var err error

	cfg.Mode, err = cmd.Flags().GetString("mode")
	if err != nil {
		return nil, err
	}

	cfg.Competitors, err = cmd.Flags().GetStringSlice("competitors")
	if err != nil {
		return nil, err
	}

	cfg.Niche, err = cmd.Flags().GetString("niche")
	if err != nil {
		return nil, err
	}

	cfg.Days, err = cmd.Flags().GetInt("days")
	if err != nil {
		return nil, err
	}

	cfg.NoCache, err = cmd.Flags().GetBool("no-cache")
	if err != nil {
		return nil, err
	}

	cfg.SaveBaseline, err = cmd.Flags().GetBool("save-baseline")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Load analysis tuning from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently keep the built-in defaults.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Analysis, err = config.LoadAnalysisFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Always persist cache and run history in the XDG data directory
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runAnalysis executes one analysis run and writes the reports.
func runAnalysis(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting analysis",
		"site", cfg.Site,
		"run_mode", cfg.Mode,
		"competitors", cfg.Competitors,
		"days", cfg.Days,
	)

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	reg, err := registry.New()
	if err != nil {
		return fmt.Errorf("unit registry invalid: %w", err)
	}

	eng := engine.New(cfg, reg,
		cache.New(db, cache.WithLogger(logger)),
		buildFetchers(cfg.UnitTimeout),
		engine.WithLogger(logger),
		engine.WithHistory(db),
	)

	rep, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Analysis of %s completed in %s\n\n", rep.Site, rep.Duration.Round(time.Millisecond))

	return outputReports(cfg, reg, rep)
}

// outputReports writes the markdown document to its file and the requested
// format to stdout.
func outputReports(cfg *config.Config, reg *registry.Registry, rep *model.RunReport) error {
	path := cfg.ReportFile
	if path == "" {
		name := fmt.Sprintf("report-%s-%s-%s.md",
			rep.StartedAt.Format("2006-01-02"), sanitizeSite(rep.Site), rep.Mode)
		path = filepath.Join(config.ReportsDir(), name)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	// Reports may reference credentialed data sources; owner-only read.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	writers := []report.Writer{report.NewMarkdownWriter(f, reg, getVersion())}

	switch {
	case cfg.JSONReport:
		writers = append(writers, report.NewFullJSONWriter(os.Stdout, getVersion(), report.WithPrettyPrint()))
	case cfg.MarkdownReport:
		writers = append(writers, report.NewMarkdownWriter(os.Stdout, reg, getVersion()))
	default:
		writers = append(writers, report.NewTextWriter(os.Stdout, report.WithVerbose(cfg.Verbose)))
	}

	if _, err := report.NewMultiWriter(writers...).Write(rep); err != nil {
		return err
	}

	fmt.Printf("\nReport written to %s\n", path)
	return nil
}

// sanitizeSite makes a site identifier safe for a file name.
func sanitizeSite(site string) string {
	r := strings.NewReplacer("/", "_", ":", "_")
	return r.Replace(site)
}
