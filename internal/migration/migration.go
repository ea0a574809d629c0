package migration

import (
	"context"
	"fmt"

	"github.com/sqlops/mssql-workbench/internal/models"
	"github.com/sqlops/mssql-workbench/internal/mssql"
)

// resolver turns an instance into a live session. Replaced in tests.
var resolver = func(ctx context.Context, inst *models.Instance) (mssql.Session, func() error, error) {
	c, err := mssql.Connect(ctx, inst)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

// Preview exports server-level objects from the source and checks the
// destination for conflicts. Returns the preview (for display) and the
// exported data (for the run step).
func Preview(ctx context.Context, src, dst *models.Instance, logger func(string)) (*models.MigrationPreview, *ExportedData, error) {
	logger("Connecting to source " + src.Address() + "...")
	srcSess, srcClose, err := resolver(ctx, src)
	if err != nil {
		return nil, nil, fmt.Errorf("source connection failed: %w", err)
	}
	defer srcClose()
	logger("Source OK: " + srcSess.Info().Name + " (" + srcSess.Info().Version + ")")

	logger("Connecting to destination " + dst.Address() + "...")
	dstSess, dstClose, err := resolver(ctx, dst)
	if err != nil {
		return nil, nil, fmt.Errorf("destination connection failed: %w", err)
	}
	defer dstClose()
	logger("Destination OK: " + dstSess.Info().Name + " (" + dstSess.Info().Version + ")")

	logger("")
	logger("=== Exporting from source ===")
	data, err := exportAll(ctx, srcSess, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("export failed: %w", err)
	}

	logger("")
	logger("=== Checking destination ===")
	preview, err := preflightCheck(ctx, data, dstSess, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("preflight failed: %w", err)
	}

	preview.SourceID = src.ID
	preview.DestinationID = dst.ID

	var createCount, skipCount int
	for _, objs := range preview.Objects {
		for _, obj := range objs {
			if obj.Action == "create" {
				createCount++
			} else {
				skipCount++
			}
		}
	}
	logger("")
	logger(fmt.Sprintf("Preview complete: %d to create, %d to skip", createCount, skipCount))

	return preview, data, nil
}

// Run imports previously exported data into one destination and returns the
// per-object status report.
func Run(ctx context.Context, dst *models.Instance, data *ExportedData, preview *models.MigrationPreview, opts Options, logger func(string)) (*models.Report, error) {
	dstSess, dstClose, err := resolver(ctx, dst)
	if err != nil {
		return nil, fmt.Errorf("destination connection failed: %w", err)
	}
	defer dstClose()

	report := &models.Report{}
	logger("=== Starting migration to " + dstSess.Info().Name + " ===")
	logger("")
	importAll(ctx, dstSess, data, preview, opts, report, logger)
	return report, nil
}

// RunMany exports once from the source and migrates to each destination in
// the order given. A connection failure to one destination produces a Failed
// record for that destination and does not prevent processing the rest.
func RunMany(ctx context.Context, src *models.Instance, dsts []*models.Instance, opts Options, logger func(string)) (*models.Report, error) {
	srcSess, srcClose, err := resolver(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("source connection failed: %w", err)
	}
	data, err := exportAll(ctx, srcSess, logger)
	srcClose()
	if err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}

	report := &models.Report{}
	for _, dst := range dsts {
		dstSess, dstClose, err := resolver(ctx, dst)
		if err != nil {
			logger("SKIPPING " + dst.Address() + ": " + err.Error())
			report.Append(models.NewStatus(data.SourceName, dst.Address(),
				dst.Address(), "connection", models.StatusFailed, err.Error()))
			continue
		}
		logger("=== Migrating to " + dstSess.Info().Name + " ===")
		importAll(ctx, dstSess, data, nil, opts, report, logger)
		dstClose()
	}
	return report, nil
}
