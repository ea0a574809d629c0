// Package ops holds the single-purpose executors: query-store option copy,
// database snapshots, firewall rules, startup parameters, and SPN checks.
// Each follows the same shape as the migration categories: enumerate targets,
// act per target, emit one status record per target.
package ops

import (
	"context"
	"errors"
	"fmt"

	"github.com/sqlops/mssql-workbench/internal/migration"
	"github.com/sqlops/mssql-workbench/internal/models"
	"github.com/sqlops/mssql-workbench/internal/mssql"
)

// QueryStoreOptions is the full option surface of sys.database_query_store_options.
// Fields a server version does not support are simply not emitted into the
// ALTER statement; the capability set is chosen once from the version.
type QueryStoreOptions struct {
	OperationMode           string `json:"operation_mode"` // OFF, READ_ONLY, READ_WRITE
	MaxStorageMB            int    `json:"max_storage_mb"`
	FlushIntervalSeconds    int    `json:"flush_interval_seconds"`
	IntervalLengthMinutes   int    `json:"interval_length_minutes"`
	StaleQueryThresholdDays int    `json:"stale_query_threshold_days"`
	CaptureMode             string `json:"capture_mode"` // ALL, AUTO, NONE, CUSTOM
	SizeBasedCleanupMode    string `json:"size_based_cleanup_mode"`
	MaxPlansPerQuery        int    `json:"max_plans_per_query"`
	WaitStatsCaptureMode    string `json:"wait_stats_capture_mode"` // 2017+
}

// FetchQueryStoreOptions reads the query-store configuration of one database.
func FetchQueryStoreOptions(ctx context.Context, sess mssql.Session, database string) (QueryStoreOptions, error) {
	var opts QueryStoreOptions
	rows, err := sess.QueryMaps(ctx, fmt.Sprintf(`
		SELECT desired_state_desc, max_storage_size_mb, flush_interval_seconds,
		       interval_length_minutes, stale_query_threshold_days,
		       query_capture_mode_desc, size_based_cleanup_mode_desc,
		       max_plans_per_query, wait_stats_capture_mode_desc
		FROM %s.sys.database_query_store_options`, mssql.QuoteName(database)))
	if err != nil {
		return opts, fmt.Errorf("reading query store options for %s: %w", database, err)
	}
	if len(rows) == 0 {
		return opts, fmt.Errorf("database %s has no query store options row", database)
	}
	r := rows[0]
	opts.OperationMode = str(r, "desired_state_desc")
	opts.MaxStorageMB = num(r, "max_storage_size_mb")
	opts.FlushIntervalSeconds = num(r, "flush_interval_seconds")
	opts.IntervalLengthMinutes = num(r, "interval_length_minutes")
	opts.StaleQueryThresholdDays = num(r, "stale_query_threshold_days")
	opts.CaptureMode = str(r, "query_capture_mode_desc")
	opts.SizeBasedCleanupMode = str(r, "size_based_cleanup_mode_desc")
	opts.MaxPlansPerQuery = num(r, "max_plans_per_query")
	opts.WaitStatsCaptureMode = str(r, "wait_stats_capture_mode_desc")
	return opts, nil
}

// AlterStatement renders the ALTER DATABASE ... SET QUERY_STORE statement for
// a database, emitting only the options the destination version supports.
func (o QueryStoreOptions) AlterStatement(database string, caps mssql.QueryStoreCapabilities) string {
	clause := fmt.Sprintf(
		"OPERATION_MODE = %s, MAX_STORAGE_SIZE_MB = %d, DATA_FLUSH_INTERVAL_SECONDS = %d, "+
			"INTERVAL_LENGTH_MINUTES = %d, STALE_QUERY_THRESHOLD_DAYS = %d, "+
			"QUERY_CAPTURE_MODE = %s, SIZE_BASED_CLEANUP_MODE = %s",
		o.OperationMode, o.MaxStorageMB, o.FlushIntervalSeconds,
		o.IntervalLengthMinutes, o.StaleQueryThresholdDays,
		o.CaptureMode, o.SizeBasedCleanupMode)
	if caps.SupportsPerDBMaxPlans {
		clause += fmt.Sprintf(", MAX_PLANS_PER_QUERY = %d", o.MaxPlansPerQuery)
	}
	if caps.SupportsWaitStats && o.WaitStatsCaptureMode != "" {
		clause += fmt.Sprintf(", WAIT_STATS_CAPTURE_MODE = %s", o.WaitStatsCaptureMode)
	}
	return fmt.Sprintf("ALTER DATABASE %s SET QUERY_STORE = ON (%s)", mssql.QuoteName(database), clause)
}

// CopyQueryStoreOptions reads the query-store configuration of srcDatabase on
// the source and applies it to every selected database on the destination.
// A selector is required; an empty match is a recoverable outcome reported as
// a warning, not an error.
func CopyQueryStoreOptions(ctx context.Context, src mssql.Session, srcDatabase string, dst mssql.Session, sel migration.Selector, logger func(string)) (*models.Report, error) {
	report := &models.Report{}
	srcName := src.Info().Name
	dstName := dst.Info().Name

	caps := mssql.QueryStoreCapabilitiesFor(dst.Info().Version)
	if !caps.Supported {
		return nil, fmt.Errorf("%s: %w: query store requires SQL Server 2016 or later",
			dstName, mssql.ErrVersion)
	}

	opts, err := FetchQueryStoreOptions(ctx, src, srcDatabase)
	if err != nil {
		return nil, err
	}

	targets, err := migration.EnumerateDatabases(ctx, dst, sel)
	if errors.Is(err, migration.ErrNoMatch) {
		report.Warn("no matching databases on " + dstName)
		logger("No matching databases on " + dstName)
		return report, nil
	}
	if err != nil {
		return nil, err
	}

	for _, db := range targets {
		if db.Name == srcDatabase && srcName == dstName {
			// copying a database's options onto itself is a no-op
			report.Append(models.NewStatus(srcName, dstName, db.Name, "querystore",
				models.StatusSkipped, "database is the source of this copy"))
			continue
		}
		stmt := opts.AlterStatement(db.Name, caps)
		if err := dst.Exec(ctx, stmt); err != nil {
			report.Append(models.NewStatus(srcName, dstName, db.Name, "querystore",
				models.StatusFailed, err.Error()))
			logger(fmt.Sprintf("  Failed: %s: %v", db.Name, err))
			continue
		}
		report.Append(models.NewStatus(srcName, dstName, db.Name, "querystore",
			models.StatusSuccessful, ""))
		logger("  Successful: " + db.Name)
	}
	return report, nil
}

func str(r mssql.Row, col string) string {
	if v, ok := r[col].(string); ok {
		return v
	}
	return ""
}

func num(r mssql.Row, col string) int {
	switch v := r[col].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
