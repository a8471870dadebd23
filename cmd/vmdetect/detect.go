package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/vmdetect/internal/config"
	"github.com/nao1215/vmdetect/internal/database"
	"github.com/nao1215/vmdetect/internal/engine"
	"github.com/nao1215/vmdetect/internal/log"
	"github.com/nao1215/vmdetect/internal/model"
	"github.com/nao1215/vmdetect/internal/report"
	"github.com/spf13/cobra"
)

// NewDetectCmd creates the detect command.
func NewDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect whether this host is a VM, sandbox, or debugged environment",
		Long: `Detect runs every probe applicable to the current platform and reports
whether the host looks like a virtual machine, sandbox, or debugged process.

Each probe inspects one class of environment artifact:
- Hardware identity (DMI/SMBIOS vendor strings, MAC address prefixes)
- Virtualization leftovers (guest addition files, drivers, device nodes)
- Running processes (hypervisor helpers, analysis tooling)
- Execution behavior (attached debuggers, instrumented clocks)

The first line of the default report is always the verdict, so scripts
can read it with 'head -1'.

Examples:
  # Run all probes for this platform
  vmdetect detect

  # Run only the hardware and MAC address probes
  vmdetect detect --probes hardware,macaddr

  # JSON report written to a file
  vmdetect detect --json -o report.json

  # Exit with status 1 when the environment is detected
  vmdetect detect --exit-code

  # Evaluate the probe list for another platform without running it here
  vmdetect detect --platform windows --probes all`,
		Args: cobra.NoArgs,
		RunE: runDetectCmd,
	}

	// Probe selection flags
	cmd.Flags().StringSliceP("probes", "p", nil,
		"Comma-separated probe names to run (default: all probes for the platform)")
	cmd.Flags().String("platform", "",
		"Override the platform probes are selected for (windows, linux, macos)")

	// Timing probe flags
	cmd.Flags().DurationP("timing-threshold", "t", config.DefaultTimingThreshold,
		"Elapsed time above which the timing probe reports detection")
	cmd.Flags().IntP("timing-iterations", "i", config.DefaultTimingIterations,
		"Loop iterations for the timing probe measurement")

	// Execution flags
	cmd.Flags().IntP("concurrent", "n", config.DefaultConcurrency,
		"Maximum number of probes running at once (1 = sequential)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .vmdetect in current or config directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().Bool("pretty", false,
		"Indent JSON output (no effect on other formats)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the detection history database")

	// Exit status flags
	cmd.Flags().BoolP("exit-code", "e", false,
		"Exit with status 1 when the verdict is Detected")

	return cmd
}

// runDetectCmd executes the detect command.
func runDetectCmd(cmd *cobra.Command, _ []string) error {
	// Build config from flags and the optional config file
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	verdict, err := runDetect(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.ExitCode && verdict {
		os.Exit(1)
	}
	return nil
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

// buildConfig creates a Config from cobra command flags and the optional
// configuration file. File settings refine the built-in defaults, and
// flags the user actually set take precedence over both.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	// Detection runs are recorded by default; the config file or the
	// --no-history flag can turn this off.
	cfg.SaveToDB = true

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Overlay config file settings before reading the remaining flags.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently skip when no file is found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.ApplyTo(cfg)
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Flags overlapping with file settings apply only when the user set
	// them; their cobra defaults must not clobber file values.
	if cmd.Flags().Changed("probes") {
		cfg.Probes, err = cmd.Flags().GetStringSlice("probes")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("timing-threshold") {
		cfg.TimingThreshold, err = cmd.Flags().GetDuration("timing-threshold")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("timing-iterations") {
		cfg.TimingIterations, err = cmd.Flags().GetInt("timing-iterations")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("concurrent") {
		cfg.Concurrency, err = cmd.Flags().GetInt("concurrent")
		if err != nil {
			return nil, err
		}
	}

	cfg.Platform, err = cmd.Flags().GetString("platform")
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

	cfg.Pretty, err = cmd.Flags().GetBool("pretty")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveToDB = false
	}

	cfg.ExitCode, err = cmd.Flags().GetBool("exit-code")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// History database location falls back to the XDG data directory
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	return cfg, nil
}

// runDetect executes the detection run and returns the verdict.
func runDetect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (bool, error) {
	logger.Info("starting detection",
		"platform", cfg.ResolvePlatform().String(),
		"probes", cfg.Probes,
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return false, fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	eng, err := engine.New(
		engine.WithPlatform(cfg.ResolvePlatform()),
		engine.WithProbes(cfg.Probes),
		engine.WithConcurrency(cfg.Concurrency),
		engine.WithTimingThreshold(cfg.TimingThreshold),
		engine.WithTimingIterations(cfg.TimingIterations),
		engine.WithLogger(logger),
	)
	if err != nil {
		return false, err
	}

	runReport := eng.Detect(ctx)

	// Generate and output report
	if err := outputReport(cfg, runReport); err != nil {
		return runReport.Verdict, fmt.Errorf("failed to output report: %w", err)
	}

	// Save to database if enabled
	if err := saveDetectionReport(ctx, db, runReport, logger); err != nil {
		logger.Error("failed to save detection report", "error", err)
	}

	return runReport.Verdict, nil
}

// outputReport outputs the detection report in the requested format.
func outputReport(cfg *config.Config, runReport *model.Report) error {
	// Determine output destination
	var output *os.File
	toFile := cfg.ReportFile != ""
	if toFile {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600)
		// Reports carry hardware identifiers that should only be readable
		// by the owner
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	if err := writeReport(cfg, output, runReport); err != nil {
		return err
	}

	// When the report goes to a file, the verdict still goes to stdout so
	// the command remains scriptable.
	if toFile {
		fmt.Printf("vmdetect: %s\n", runReport.VerdictText())
		fmt.Printf("Report written to: %s\n", cfg.ReportFile)
	}
	return nil
}

// writeReport renders the report to the given destination in the
// configured format.
func writeReport(cfg *config.Config, output *os.File, runReport *model.Report) error {
	// JSON output (detailed report with all data)
	if cfg.JSONReport {
		opts := []report.JSONWriterOption{}
		if cfg.Pretty {
			opts = append(opts, report.WithPrettyPrint())
		}
		writer := report.NewFullJSONWriter(output, getVersion(), opts...)
		_, err := writer.Write(runReport)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(runReport)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	_, err := writer.Write(runReport)
	return err
}

// saveDetectionReport saves the detection report to the database if
// enabled. If db is nil, this function is a no-op.
func saveDetectionReport(ctx context.Context, db *database.HistoryDB, runReport *model.Report, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveReport(ctx, runReport)
	if err != nil {
		return fmt.Errorf("failed to save detection report: %w", err)
	}

	logger.Info("detection report saved to database",
		"id", id,
		"hostname", runReport.Hostname,
	)
	return nil
}
