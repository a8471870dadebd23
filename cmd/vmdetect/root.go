// Package main provides the entry point for the vmdetect CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for vmdetect.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vmdetect",
		Short: "Detect virtualization, sandbox, and debugger environments",
		Long: `vmdetect inspects the machine it runs on for evidence of virtualization,
sandboxing, and attached debuggers: hypervisor hardware identity, VM vendor
MAC prefixes, guest tooling, analysis processes, debugger APIs, and timing
skew.

Every probe reports DETECTED, NOT_DETECTED, or INCONCLUSIVE with concrete
evidence. A single detection flips the run verdict; probes that cannot run
stay inconclusive and never count as clean.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewDetectCmd())
	cmd.AddCommand(NewCompareCmd())
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
