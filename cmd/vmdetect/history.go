package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/vmdetect/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command lists detection runs recorded in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [host]",
		Short: "List recorded detection runs",
		Long: `History lists the detection runs recorded in the database.

Each line shows the report ID, the run date, the platform the probes were
selected for, the verdict, and the probe outcome counts. The report IDs
feed 'vmdetect compare --ids' for comparing two specific runs.

The host argument defaults to this machine's hostname.

Examples:
  # List runs recorded on this machine
  vmdetect history

  # List runs recorded for another host
  vmdetect history buildbox-03

  # List all hosts with recorded runs
  vmdetect history --hosts

  # Delete runs older than 30 days, then list the rest
  vmdetect history --prune 720h`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Bool("hosts", false,
		"List all hosts with recorded runs instead of a run history")
	cmd.Flags().Duration("prune", 0,
		"Delete runs older than this duration before listing (e.g. 720h)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listHosts, err := cmd.Flags().GetBool("hosts")
	if err != nil {
		return err
	}
	pruneAge, err := cmd.Flags().GetDuration("prune")
	if err != nil {
		return err
	}

	// Open database
	db, err := database.Open(resolveDBDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	w := cmd.OutOrStdout()

	if pruneAge > 0 {
		removed, err := db.PruneHistory(ctx, pruneAge)
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		fmt.Fprintf(w, "Pruned %d runs older than %s\n\n", removed, pruneAge)
	}

	if listHosts {
		return listRecordedHosts(ctx, w, db)
	}

	hostname, err := resolveHost(args)
	if err != nil {
		return err
	}
	return listRunHistory(ctx, w, db, hostname)
}

// listRecordedHosts lists all hosts that have detection runs in the
// database.
func listRecordedHosts(ctx context.Context, w io.Writer, db *database.HistoryDB) error {
	hosts, err := db.ListHosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hosts: %w", err)
	}

	if len(hosts) == 0 {
		fmt.Fprintln(w, "No recorded detection runs found in the database.")
		fmt.Fprintln(w, "\nUse 'vmdetect detect' to record a run.")
		return nil
	}

	fmt.Fprintf(w, "Recorded hosts (%d):\n\n", len(hosts))
	for _, host := range hosts {
		fmt.Fprintf(w, "  • %s\n", host)
	}
	fmt.Fprintln(w, "\nUse 'vmdetect history <host>' to see runs for a host.")

	return nil
}

// listRunHistory lists all detection runs recorded for a specific host.
func listRunHistory(ctx context.Context, w io.Writer, db *database.HistoryDB, hostname string) error {
	reports, err := db.GetHistoryWithMetadata(ctx, hostname)
	if err != nil {
		return fmt.Errorf("failed to get detection history: %w", err)
	}

	if len(reports) == 0 {
		fmt.Fprintf(w, "No detection history found for %s\n", hostname)
		fmt.Fprintln(w, "\nUse 'vmdetect detect' to record a run.")
		return nil
	}

	fmt.Fprintf(w, "Detection history for %s (%d runs):\n\n", hostname, len(reports))
	fmt.Fprintf(w, "  %-6s  %-20s  %-9s  %-13s  %s\n", "ID", "Date", "Platform", "Verdict", "Outcomes")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 70))

	for _, meta := range reports {
		verdict := "Not Detected"
		if meta.Verdict {
			verdict = "Detected"
		}
		fmt.Fprintf(w, "  %-6d  %-20s  %-9s  %-13s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.Platform,
			verdict,
			formatOutcomeSummary(meta.OutcomeSummary),
		)
	}

	fmt.Fprintln(w, "\nUse 'vmdetect compare' to compare the latest two runs.")
	fmt.Fprintln(w, "Use 'vmdetect compare --ids <id>,<id>' to compare two specific runs.")

	return nil
}

// formatOutcomeSummary formats the outcome count map into a short
// human-readable string.
func formatOutcomeSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["detected"]; v > 0 {
		parts = append(parts, fmt.Sprintf("D:%d", v))
	}
	if v := summary["not_detected"]; v > 0 {
		parts = append(parts, fmt.Sprintf("N:%d", v))
	}
	if v := summary["inconclusive"]; v > 0 {
		parts = append(parts, fmt.Sprintf("I:%d", v))
	}

	if len(parts) == 0 {
		return "no probes"
	}
	return strings.Join(parts, " ")
}
