// Package main provides the entry point for the seointel CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for seointel.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seointel",
		Short: "Website search intelligence and report assembly",
		Long: `seointel analyzes a website's search presence and assembles an
intelligence report.

A run resolves provider capabilities from configured credentials, schedules
the analysis units the requested mode asks for, executes them against cached
provider data, scores each dimension 0-100, diffs the scores against the
site's baseline snapshot, and writes a markdown report with a three-sprint
action plan.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
