package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/vmdetect/internal/model"
)

// HistoryDB provides SQLite-based storage for detection reports.
// It manages connection pooling and provides methods for saving and
// querying past runs.
//
// Design decision: We use a single database file holding all hosts rather
// than one file per host. Reports from several machines often end up on
// one analysis workstation, and a single file keeps cross-host queries and
// backup/restore operations simple.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "vmdetect.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		// Check if database file exists
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Detection reports store complete runs as JSON plus queryable metadata
	CREATE TABLE IF NOT EXISTS detection_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hostname TEXT NOT NULL,
		platform TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		verdict INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL,
		outcome_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reports_hostname ON detection_reports(hostname);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON detection_reports(timestamp);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport saves a complete detection report as JSON and returns the
// database ID of the new row.
func (hdb *HistoryDB) SaveReport(ctx context.Context, report *model.Report) (int64, error) {
	// Serialize report to JSON
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	// Create outcome summary for metadata queries
	outcomeSummary := map[string]int{
		"detected":     report.CountByOutcome(model.OutcomeDetected),
		"not_detected": report.CountByOutcome(model.OutcomeNotDetected),
		"inconclusive": report.CountByOutcome(model.OutcomeInconclusive),
	}
	outcomeJSON, _ := json.Marshal(outcomeSummary) //nolint:errcheck,errchkjson // outcomeSummary is a simple map; Marshal won't fail

	verdict := 0
	if report.Verdict {
		verdict = 1
	}

	query := `
	INSERT INTO detection_reports (hostname, platform, verdict, report_json, outcome_summary)
	VALUES (?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		report.Hostname,
		string(report.Platform),
		verdict,
		string(reportJSON),
		string(outcomeJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}

	return result.LastInsertId()
}

// GetLatestReport retrieves the most recent report for a host.
// Returns nil without error when the host has no stored reports.
func (hdb *HistoryDB) GetLatestReport(ctx context.Context, hostname string) (*model.Report, error) {
	query := `
	SELECT report_json FROM detection_reports
	WHERE hostname = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, hostname).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetHistory retrieves all reports for a host, newest first.
func (hdb *HistoryDB) GetHistory(ctx context.Context, hostname string) ([]*model.Report, error) {
	query := `
	SELECT report_json FROM detection_reports
	WHERE hostname = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, hostname)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var reports []*model.Report
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.Report
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ReportMetadata contains summary information about a stored report.
// This is used for displaying history without loading the full report.
type ReportMetadata struct {
	// ID is the unique identifier of the report in the database.
	ID int64

	// Hostname is the machine the detection ran on.
	Hostname string

	// Platform is the platform the probe set was filtered for.
	Platform string

	// Timestamp is when the report was saved.
	Timestamp time.Time

	// Verdict is true if the run detected an artifact.
	Verdict bool

	// OutcomeSummary contains probe counts keyed by outcome.
	OutcomeSummary map[string]int
}

// GetHistoryWithMetadata retrieves report metadata for a host, newest first.
// This is more efficient than GetHistory when only metadata is needed.
func (hdb *HistoryDB) GetHistoryWithMetadata(ctx context.Context, hostname string) ([]ReportMetadata, error) {
	query := `
	SELECT id, hostname, platform, timestamp, verdict, outcome_summary
	FROM detection_reports
	WHERE hostname = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, hostname)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var results []ReportMetadata
	for rows.Next() {
		var meta ReportMetadata
		var timestamp string
		var verdict int
		var outcomeJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.Hostname, &meta.Platform, &timestamp, &verdict, &outcomeJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		// Parse timestamp
		meta.Timestamp = parseTimestamp(timestamp)
		meta.Verdict = verdict != 0

		// Parse outcome summary
		if outcomeJSON.Valid && outcomeJSON.String != "" {
			if err := json.Unmarshal([]byte(outcomeJSON.String), &meta.OutcomeSummary); err != nil {
				meta.OutcomeSummary = make(map[string]int)
			}
		} else {
			meta.OutcomeSummary = make(map[string]int)
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetReportByID retrieves a report by its database ID.
// Returns nil without error when no row has that ID.
func (hdb *HistoryDB) GetReportByID(ctx context.Context, id int64) (*model.Report, error) {
	query := `
	SELECT report_json FROM detection_reports
	WHERE id = ?
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListHosts returns the hostnames that have stored reports.
func (hdb *HistoryDB) ListHosts(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT hostname FROM detection_reports
	ORDER BY hostname
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}

	return hosts, rows.Err()
}

// PruneHistory deletes reports older than the given age and returns the
// number of rows removed.
func (hdb *HistoryDB) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
	DELETE FROM detection_reports
	WHERE timestamp < datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(olderThan.Seconds()))

	result, err := hdb.db.ExecContext(ctx, query, modifier)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	return result.RowsAffected()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
