package migration

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sqlops/mssql-workbench/internal/models"
	"github.com/sqlops/mssql-workbench/internal/mssql"
)

// preflightCheck examines the destination for each exported object and
// classifies the action as "create" or "skip_exists".
func preflightCheck(ctx context.Context, data *ExportedData, dst mssql.Session, logger func(string)) (*models.MigrationPreview, error) {
	preview := &models.MigrationPreview{
		Objects: make(map[string][]models.MigrationObject),
	}

	check := func(category, name string, exists func() (bool, error)) {
		obj := models.MigrationObject{Name: name, Type: category}
		found, err := exists()
		switch {
		case err != nil:
			obj.Action = "create"
			obj.Note = "existence check failed: " + err.Error()
		case found:
			obj.Action = "skip_exists"
			logger(fmt.Sprintf("  %s: exists on destination", name))
		default:
			obj.Action = "create"
		}
		preview.Objects[category] = append(preview.Objects[category], obj)
	}

	logger("Checking custom errors on destination...")
	for _, e := range data.CustomErrors {
		id := e.MessageID
		check("customerrors", strconv.Itoa(id), func() (bool, error) {
			return mssql.CustomErrorExists(ctx, dst, id)
		})
	}

	logger("Checking credentials on destination...")
	for _, c := range data.Credentials {
		name := c.Name
		check("credentials", name, func() (bool, error) {
			return mssql.CredentialExists(ctx, dst, name)
		})
	}

	logger("Checking backup devices on destination...")
	for _, d := range data.BackupDevices {
		name := d.Name
		check("backupdevices", name, func() (bool, error) {
			return mssql.BackupDeviceExists(ctx, dst, name)
		})
	}

	logger("Checking database mail on destination...")
	for _, a := range data.MailAccounts {
		name := a.Name
		check("dbmail", name, func() (bool, error) {
			return mssql.MailAccountExists(ctx, dst, name)
		})
	}
	for _, p := range data.MailProfiles {
		name := p.Name
		check("dbmail", name, func() (bool, error) {
			return mssql.MailProfileExists(ctx, dst, name)
		})
	}

	logger("Checking logins on destination...")
	for _, l := range data.Logins {
		name := l.Name
		check("logins", name, func() (bool, error) {
			return mssql.LoginExists(ctx, dst, name)
		})
	}

	logger("Checking agent jobs on destination...")
	for _, j := range data.AgentJobs {
		name := j.Name
		check("agentjobs", name, func() (bool, error) {
			return mssql.AgentJobExists(ctx, dst, name)
		})
	}

	logger("Checking linked servers on destination...")
	for _, ls := range data.LinkedServers {
		name := ls.Name
		check("linkedservers", name, func() (bool, error) {
			return mssql.LinkedServerExists(ctx, dst, name)
		})
	}

	logger("Checking startup procedures on destination...")
	for _, p := range data.StartupProcs {
		proc := p
		check("startupprocs", proc.Schema+"."+proc.Name, func() (bool, error) {
			return mssql.StartupProcedureExists(ctx, dst, proc.Schema, proc.Name)
		})
	}

	if len(data.Credentials) > 0 {
		preview.Warnings = append(preview.Warnings,
			"Credential secrets cannot be read from the source. Credentials will be created with an empty secret and must be completed manually.")
	}
	hasSQLLogin := false
	for _, l := range data.Logins {
		if l.Type == "S" {
			hasSQLLogin = true
			break
		}
	}
	if hasSQLLogin {
		preview.Warnings = append(preview.Warnings,
			"SQL login passwords cannot be read from the source. Logins will be created with a placeholder password and must be reset.")
	}

	return preview, nil
}
