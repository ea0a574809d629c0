package migration

import (
	"context"
	"fmt"

	"github.com/sqlops/mssql-workbench/internal/mssql"
)

// Migration categories in the fixed order they are imported. Logins come
// after the categories that do not depend on them but before agent jobs,
// which reference owner logins. Each category is independently excludable.
var CategoryOrder = []string{
	"spconfigure",
	"customerrors",
	"credentials",
	"backupdevices",
	"dbmail",
	"logins",
	"agentjobs",
	"linkedservers",
	"startupprocs",
}

// KnownCategory reports whether name is a migratable category.
func KnownCategory(name string) bool {
	for _, c := range CategoryOrder {
		if c == name {
			return true
		}
	}
	return false
}

// ExportedData holds all server-level objects fetched from the source, in
// memory.
type ExportedData struct {
	SourceName    string
	SourceVersion string

	SpConfigure   []mssql.ConfigOption
	CustomErrors  []mssql.CustomError
	Credentials   []mssql.Credential
	BackupDevices []mssql.BackupDevice
	MailAccounts  []mssql.MailAccount
	MailProfiles  []mssql.MailProfile
	Logins        []mssql.Login
	AgentJobs     []mssql.AgentJob
	LinkedServers []mssql.LinkedServer
	StartupProcs  []mssql.StartupProcedure
}

// exportAll fetches every migratable category from the source into memory.
func exportAll(ctx context.Context, src mssql.Session, logger func(string)) (*ExportedData, error) {
	info := src.Info()
	data := &ExportedData{
		SourceName:    info.Name,
		SourceVersion: info.Version,
	}
	var err error

	logger("Exporting sp_configure options...")
	data.SpConfigure, err = mssql.ListConfigOptions(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("spconfigure: %w", err)
	}
	logger(fmt.Sprintf("  %d options", len(data.SpConfigure)))

	logger("Exporting custom error messages...")
	data.CustomErrors, err = mssql.ListCustomErrors(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("customerrors: %w", err)
	}
	logger(fmt.Sprintf("  %d messages", len(data.CustomErrors)))

	logger("Exporting credentials...")
	data.Credentials, err = mssql.ListCredentials(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}
	logger(fmt.Sprintf("  %d credentials", len(data.Credentials)))

	logger("Exporting backup devices...")
	data.BackupDevices, err = mssql.ListBackupDevices(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("backupdevices: %w", err)
	}
	logger(fmt.Sprintf("  %d devices", len(data.BackupDevices)))

	logger("Exporting database mail...")
	data.MailAccounts, err = mssql.ListMailAccounts(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("mail accounts: %w", err)
	}
	data.MailProfiles, err = mssql.ListMailProfiles(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("mail profiles: %w", err)
	}
	logger(fmt.Sprintf("  %d accounts, %d profiles", len(data.MailAccounts), len(data.MailProfiles)))

	logger("Exporting logins...")
	data.Logins, err = mssql.ListLogins(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("logins: %w", err)
	}
	logger(fmt.Sprintf("  %d logins", len(data.Logins)))

	logger("Exporting agent jobs...")
	data.AgentJobs, err = mssql.ListAgentJobs(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("agentjobs: %w", err)
	}
	logger(fmt.Sprintf("  %d jobs", len(data.AgentJobs)))

	logger("Exporting linked servers...")
	data.LinkedServers, err = mssql.ListLinkedServers(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("linkedservers: %w", err)
	}
	logger(fmt.Sprintf("  %d linked servers", len(data.LinkedServers)))

	logger("Exporting startup procedures...")
	data.StartupProcs, err = mssql.ListStartupProcedures(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("startupprocs: %w", err)
	}
	logger(fmt.Sprintf("  %d procedures", len(data.StartupProcs)))

	return data, nil
}
