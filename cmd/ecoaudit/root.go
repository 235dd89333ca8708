package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes of the ecoaudit binary.
const (
	exitError       = 1
	exitAuditFailed = 2
)

// NewRootCmd creates the root command for ecoaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ecoaudit",
		Short: "Sustainability auditing tool for web pages",
		Long: `ecoaudit audits web pages for wasted bytes and energy.

It fetches a page (or reads local HTML and CSS files), runs a set of
sustainability audits against it and rolls the results up into a weighted
score between 0 and 100. Reports are stored locally so later runs can be
compared with earlier ones.`,
		Version:       readBuildInfo().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(
		NewAuditCmd(),
		NewCompareCmd(),
		NewInitCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// exitCode maps a command error to the process exit status. Scripts can
// tell "some URLs could not be audited" apart from usage and setup errors.
func exitCode(err error) int {
	if errors.Is(err, errAuditsFailed) {
		return exitAuditFailed
	}
	return exitError
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
