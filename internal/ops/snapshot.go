package ops

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sqlops/mssql-workbench/internal/migration"
	"github.com/sqlops/mssql-workbench/internal/models"
	"github.com/sqlops/mssql-workbench/internal/mssql"
)

// SnapshotOptions control snapshot creation.
type SnapshotOptions struct {
	Selector migration.Selector `json:"selector"`

	// NameSuffix overrides the default timestamp suffix.
	NameSuffix string `json:"name_suffix,omitempty"`

	// Path places the sparse files somewhere other than next to the data
	// files.
	Path string `json:"path,omitempty"`
}

// snapshotName builds the snapshot database name for a source database.
func snapshotName(database, suffix string, now time.Time) string {
	if suffix == "" {
		suffix = now.Format("20060102_150405")
	}
	return database + "_" + suffix
}

// sparseFileName builds a collision-resistant sparse file name for one data
// file of the snapshot. The random token keeps concurrent snapshots of the
// same database on the same host from colliding.
func sparseFileName(dataFilePath, snapName, dir string) string {
	base := strings.TrimSuffix(filepath.Base(dataFilePath), filepath.Ext(dataFilePath))
	token := uuid.New().String()[:8]
	name := fmt.Sprintf("%s_%s_%s.ss", base, snapName, token)
	if dir == "" {
		dir = filepath.Dir(dataFilePath)
	}
	return filepath.Join(dir, name)
}

// CreateSnapshots creates a snapshot of every selected database. System
// databases and databases that are themselves snapshots are never candidates;
// the enumerator enforces both.
func CreateSnapshots(ctx context.Context, sess mssql.Session, opts SnapshotOptions, logger func(string)) (*models.Report, error) {
	report := &models.Report{}
	serverName := sess.Info().Name
	now := time.Now()

	targets, err := migration.EnumerateDatabases(ctx, sess, opts.Selector)
	if errors.Is(err, migration.ErrNoMatch) {
		report.Warn("no matching databases on " + serverName)
		logger("No matching databases on " + serverName)
		return report, nil
	}
	if err != nil {
		return nil, err
	}

	for _, db := range targets {
		snapName := snapshotName(db.Name, opts.NameSuffix, now)
		stmt, err := snapshotStatement(ctx, sess, db.Name, snapName, opts.Path)
		if err != nil {
			report.Append(models.NewStatus(serverName, serverName, db.Name, "snapshot",
				models.StatusFailed, err.Error()))
			logger(fmt.Sprintf("  Failed: %s: %v", db.Name, err))
			continue
		}
		if err := sess.Exec(ctx, stmt); err != nil {
			report.Append(models.NewStatus(serverName, serverName, db.Name, "snapshot",
				models.StatusFailed, err.Error()))
			logger(fmt.Sprintf("  Failed: %s: %v", db.Name, err))
			continue
		}
		report.Append(models.NewStatus(serverName, serverName, snapName, "snapshot",
			models.StatusSuccessful, "snapshot of "+db.Name))
		logger("  Created: " + snapName)
	}
	return report, nil
}

// snapshotStatement builds the CREATE DATABASE ... AS SNAPSHOT statement for
// one database, enumerating its data files.
func snapshotStatement(ctx context.Context, sess mssql.Session, database, snapName, dir string) (string, error) {
	rows, err := sess.QueryMaps(ctx, `
		SELECT mf.name, mf.physical_name
		FROM sys.master_files mf
		JOIN sys.databases d ON d.database_id = mf.database_id
		WHERE d.name = @p1 AND mf.type_desc = 'ROWS'
		ORDER BY mf.file_id`, database)
	if err != nil {
		return "", fmt.Errorf("listing data files for %s: %w", database, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("database %s has no data files visible", database)
	}

	clauses := make([]string, 0, len(rows))
	for _, r := range rows {
		logical := str(r, "name")
		physical := str(r, "physical_name")
		clauses = append(clauses, fmt.Sprintf("(NAME = %s, FILENAME = %s)",
			mssql.QuoteName(logical),
			mssql.QuoteString(sparseFileName(physical, snapName, dir))))
	}
	return fmt.Sprintf("CREATE DATABASE %s ON %s AS SNAPSHOT OF %s",
		mssql.QuoteName(snapName), strings.Join(clauses, ", "), mssql.QuoteName(database)), nil
}

// DropSnapshot removes a snapshot database by name. Refuses to drop anything
// that is not actually a snapshot.
func DropSnapshot(ctx context.Context, sess mssql.Session, name string, logger func(string)) (*models.Report, error) {
	report := &models.Report{}
	serverName := sess.Info().Name

	v, err := sess.ScalarString(ctx,
		"SELECT name FROM sys.databases WHERE name = @p1 AND source_database_id IS NOT NULL", name)
	if err != nil {
		return nil, err
	}
	if v == "" {
		report.Append(models.NewStatus(serverName, serverName, name, "snapshot",
			models.StatusSkipped, "not a snapshot database"))
		return report, nil
	}

	if err := sess.Exec(ctx, "DROP DATABASE "+mssql.QuoteName(name)); err != nil {
		report.Append(models.NewStatus(serverName, serverName, name, "snapshot",
			models.StatusFailed, err.Error()))
		return report, nil
	}
	report.Append(models.NewStatus(serverName, serverName, name, "snapshot",
		models.StatusSuccessful, "dropped"))
	logger("Dropped snapshot " + name)
	return report, nil
}
