package mssql

import (
	"context"
	"fmt"
	"strings"
)

// Database is one row of sys.databases, reduced to what target enumeration
// needs.
type Database struct {
	Name       string
	State      string // ONLINE, RESTORING, OFFLINE, ...
	IsSnapshot bool
	ReadOnly   bool
}

// systemDatabases are unconditionally excluded from database-scoped operations.
var systemDatabases = map[string]bool{
	"master": true, "model": true, "msdb": true, "tempdb": true,
}

// IsSystemDatabase reports whether name is one of the four system databases.
func IsSystemDatabase(name string) bool {
	return systemDatabases[strings.ToLower(name)]
}

// ListDatabases returns all databases on the instance.
func ListDatabases(ctx context.Context, sess Session) ([]Database, error) {
	rows, err := sess.QueryMaps(ctx, `
		SELECT name, state_desc, source_database_id, is_read_only
		FROM sys.databases
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing databases: %w", err)
	}
	dbs := make([]Database, 0, len(rows))
	for _, r := range rows {
		dbs = append(dbs, Database{
			Name:       stringVal(r, "name"),
			State:      stringVal(r, "state_desc"),
			IsSnapshot: r["source_database_id"] != nil,
			ReadOnly:   boolVal(r, "is_read_only"),
		})
	}
	return dbs, nil
}

// DatabaseExists checks for a database by name.
func DatabaseExists(ctx context.Context, sess Session, name string) (bool, error) {
	v, err := sess.ScalarString(ctx,
		"SELECT name FROM sys.databases WHERE name = @p1", name)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// Login is a server principal eligible for migration.
type Login struct {
	Name            string
	Type            string // "S" sql login, "U" windows user, "G" windows group
	DefaultDatabase string
	DefaultLanguage string
	Disabled        bool
	CheckPolicy     bool
	CheckExpiration bool
}

// ListLogins returns migratable server principals. sa, NT service accounts and
// certificate-mapped ## logins are never migrated.
func ListLogins(ctx context.Context, sess Session) ([]Login, error) {
	rows, err := sess.QueryMaps(ctx, `
		SELECT sp.name, sp.type, sp.default_database_name, sp.default_language_name,
		       sp.is_disabled,
		       ISNULL(sl.is_policy_checked, 0) AS is_policy_checked,
		       ISNULL(sl.is_expiration_checked, 0) AS is_expiration_checked
		FROM sys.server_principals sp
		LEFT JOIN sys.sql_logins sl ON sl.principal_id = sp.principal_id
		WHERE sp.type IN ('S', 'U', 'G')
		  AND sp.name NOT LIKE '##%'
		  AND sp.name NOT LIKE 'NT %'
		  AND sp.name <> 'sa'
		ORDER BY sp.name`)
	if err != nil {
		return nil, fmt.Errorf("listing logins: %w", err)
	}
	logins := make([]Login, 0, len(rows))
	for _, r := range rows {
		logins = append(logins, Login{
			Name:            stringVal(r, "name"),
			Type:            strings.TrimSpace(stringVal(r, "type")),
			DefaultDatabase: stringVal(r, "default_database_name"),
			DefaultLanguage: stringVal(r, "default_language_name"),
			Disabled:        boolVal(r, "is_disabled"),
			CheckPolicy:     boolVal(r, "is_policy_checked"),
			CheckExpiration: boolVal(r, "is_expiration_checked"),
		})
	}
	return logins, nil
}

// LoginExists checks for a server principal by name.
func LoginExists(ctx context.Context, sess Session, name string) (bool, error) {
	v, err := sess.ScalarString(ctx,
		"SELECT name FROM sys.server_principals WHERE name = @p1", name)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// JobStep is one step of an agent job.
type JobStep struct {
	ID        int
	Name      string
	Subsystem string
	Command   string
	Database  string
	ProxyName string
}

// JobSchedule is one schedule attached to an agent job.
type JobSchedule struct {
	Name            string
	Enabled         bool
	FreqType        int
	FreqInterval    int
	ActiveStartTime int
}

// AgentJob is a SQL Agent job with its steps and schedules.
type AgentJob struct {
	Name         string
	Description  string
	Category     string
	OwnerLogin   string
	Enabled      bool
	OperatorName string // notify on failure, empty if none
	Steps        []JobStep
	Schedules    []JobSchedule
}

// ListAgentJobs returns all agent jobs with steps and schedules attached.
func ListAgentJobs(ctx context.Context, sess Session) ([]AgentJob, error) {
	jobRows, err := sess.QueryMaps(ctx, `
		SELECT j.job_id, j.name, j.description, j.enabled,
		       c.name AS category, SUSER_SNAME(j.owner_sid) AS owner_login,
		       ISNULL(o.name, '') AS operator_name
		FROM msdb.dbo.sysjobs j
		JOIN msdb.dbo.syscategories c ON c.category_id = j.category_id
		LEFT JOIN msdb.dbo.sysoperators o ON o.id = j.notify_email_operator_id
		ORDER BY j.name`)
	if err != nil {
		return nil, fmt.Errorf("listing agent jobs: %w", err)
	}

	jobs := make([]AgentJob, 0, len(jobRows))
	for _, r := range jobRows {
		job := AgentJob{
			Name:         stringVal(r, "name"),
			Description:  stringVal(r, "description"),
			Category:     stringVal(r, "category"),
			OwnerLogin:   stringVal(r, "owner_login"),
			Enabled:      boolVal(r, "enabled"),
			OperatorName: stringVal(r, "operator_name"),
		}

		jobID := r["job_id"]
		stepRows, err := sess.QueryMaps(ctx, `
			SELECT s.step_id, s.step_name, s.subsystem, s.command,
			       ISNULL(s.database_name, '') AS database_name,
			       ISNULL(p.name, '') AS proxy_name
			FROM msdb.dbo.sysjobsteps s
			LEFT JOIN msdb.dbo.sysproxies p ON p.proxy_id = s.proxy_id
			WHERE s.job_id = @p1
			ORDER BY s.step_id`, jobID)
		if err != nil {
			return nil, fmt.Errorf("listing steps for job %s: %w", job.Name, err)
		}
		for _, sr := range stepRows {
			job.Steps = append(job.Steps, JobStep{
				ID:        intVal(sr, "step_id"),
				Name:      stringVal(sr, "step_name"),
				Subsystem: stringVal(sr, "subsystem"),
				Command:   stringVal(sr, "command"),
				Database:  stringVal(sr, "database_name"),
				ProxyName: stringVal(sr, "proxy_name"),
			})
		}

		schedRows, err := sess.QueryMaps(ctx, `
			SELECT sch.name, sch.enabled, sch.freq_type, sch.freq_interval,
			       sch.active_start_time
			FROM msdb.dbo.sysjobschedules js
			JOIN msdb.dbo.sysschedules sch ON sch.schedule_id = js.schedule_id
			WHERE js.job_id = @p1`, jobID)
		if err != nil {
			return nil, fmt.Errorf("listing schedules for job %s: %w", job.Name, err)
		}
		for _, scr := range schedRows {
			job.Schedules = append(job.Schedules, JobSchedule{
				Name:            stringVal(scr, "name"),
				Enabled:         boolVal(scr, "enabled"),
				FreqType:        intVal(scr, "freq_type"),
				FreqInterval:    intVal(scr, "freq_interval"),
				ActiveStartTime: intVal(scr, "active_start_time"),
			})
		}

		jobs = append(jobs, job)
	}
	return jobs, nil
}

// AgentJobExists checks for an agent job by name.
func AgentJobExists(ctx context.Context, sess Session, name string) (bool, error) {
	v, err := sess.ScalarString(ctx,
		"SELECT name FROM msdb.dbo.sysjobs WHERE name = @p1", name)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// ProxyExists checks for an agent proxy by name.
func ProxyExists(ctx context.Context, sess Session, name string) (bool, error) {
	v, err := sess.ScalarString(ctx,
		"SELECT name FROM msdb.dbo.sysproxies WHERE name = @p1", name)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// OperatorExists checks for an agent operator by name.
func OperatorExists(ctx context.Context, sess Session, name string) (bool, error) {
	v, err := sess.ScalarString(ctx,
		"SELECT name FROM msdb.dbo.sysoperators WHERE name = @p1", name)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// MailAccount is a Database Mail account.
type MailAccount struct {
	Name         string
	Description  string
	EmailAddress string
	DisplayName  string
	ReplyTo      string
	MailServer   string
}

// MailProfile is a Database Mail profile with its accounts in sequence order.
type MailProfile struct {
	Name        string
	Description string
	Accounts    []string
}

// ListMailAccounts returns all Database Mail accounts.
func ListMailAccounts(ctx context.Context, sess Session) ([]MailAccount, error) {
	rows, err := sess.QueryMaps(ctx, `
		SELECT a.name, ISNULL(a.description, '') AS description,
		       a.email_address, ISNULL(a.display_name, '') AS display_name,
		       ISNULL(a.replyto_address, '') AS replyto_address,
		       s.servername
		FROM msdb.dbo.sysmail_account a
		JOIN msdb.dbo.sysmail_server s ON s.account_id = a.account_id
		ORDER BY a.name`)
	if err != nil {
		return nil, fmt.Errorf("listing mail accounts: %w", err)
	}
	accounts := make([]MailAccount, 0, len(rows))
	for _, r := range rows {
		accounts = append(accounts, MailAccount{
			Name:         stringVal(r, "name"),
			Description:  stringVal(r, "description"),
			EmailAddress: stringVal(r, "email_address"),
			DisplayName:  stringVal(r, "display_name"),
			ReplyTo:      stringVal(r, "replyto_address"),
			MailServer:   stringVal(r, "servername"),
		})
	}
	return accounts, nil
}

// ListMailProfiles returns all Database Mail profiles with account names in
// sequence order.
func ListMailProfiles(ctx context.Context, sess Session) ([]MailProfile, error) {
	rows, err := sess.QueryMaps(ctx, `
		SELECT p.name, ISNULL(p.description, '') AS description
		FROM msdb.dbo.sysmail_profile p
		ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("listing mail profiles: %w", err)
	}
	profiles := make([]MailProfile, 0, len(rows))
	for _, r := range rows {
		profile := MailProfile{
			Name:        stringVal(r, "name"),
			Description: stringVal(r, "description"),
		}
		acctRows, err := sess.QueryMaps(ctx, `
			SELECT a.name
			FROM msdb.dbo.sysmail_profileaccount pa
			JOIN msdb.dbo.sysmail_profile p ON p.profile_id = pa.profile_id
			JOIN msdb.dbo.sysmail_account a ON a.account_id = pa.account_id
			WHERE p.name = @p1
			ORDER BY pa.sequence_number`, profile.Name)
		if err != nil {
			return nil, fmt.Errorf("listing accounts for profile %s: %w", profile.Name, err)
		}
		for _, ar := range acctRows {
			profile.Accounts = append(profile.Accounts, stringVal(ar, "name"))
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// MailAccountExists checks for a Database Mail account by name.
func MailAccountExists(ctx context.Context, sess Session, name string) (bool, error) {
	v, err := sess.ScalarString(ctx,
		"SELECT name FROM msdb.dbo.sysmail_account WHERE name = @p1", name)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// MailProfileExists checks for a Database Mail profile by name.
func MailProfileExists(ctx context.Context, sess Session, name string) (bool, error) {
	v, err := sess.ScalarString(ctx,
		"SELECT name FROM msdb.dbo.sysmail_profile WHERE name = @p1", name)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// CustomError is a user-defined message in sys.messages.
type CustomError struct {
	MessageID int
	Language  string
	Severity  int
	Text      string
	IsLogged  bool
}

// ListCustomErrors returns user-defined messages (id > 50000).
func ListCustomErrors(ctx context.Context, sess Session) ([]CustomError, error) {
	rows, err := sess.QueryMaps(ctx, `
		SELECT m.message_id, l.name AS language, m.severity, m.text, m.is_event_logged
		FROM sys.messages m
		JOIN sys.syslanguages l ON l.msglangid = m.language_id
		WHERE m.message_id > 50000
		ORDER BY m.message_id, m.language_id`)
	if err != nil {
		return nil, fmt.Errorf("listing custom errors: %w", err)
	}
	msgs := make([]CustomError, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, CustomError{
			MessageID: intVal(r, "message_id"),
			Language:  stringVal(r, "language"),
			Severity:  intVal(r, "severity"),
			Text:      stringVal(r, "text"),
			IsLogged:  boolVal(r, "is_event_logged"),
		})
	}
	return msgs, nil
}

// CustomErrorExists checks for a user-defined message by id.
func CustomErrorExists(ctx context.Context, sess Session, messageID int) (bool, error) {
	v, err := sess.ScalarString(ctx,
		"SELECT CAST(message_id AS nvarchar(12)) FROM sys.messages WHERE message_id = @p1 AND language_id = 1033",
		messageID)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// BackupDevice is a row of sys.backup_devices.
type BackupDevice struct {
	Name         string
	PhysicalName string
	TypeDesc     string // DISK or TAPE
}

// ListBackupDevices returns all backup devices.
func ListBackupDevices(ctx context.Context, sess Session) ([]BackupDevice, error) {
	rows, err := sess.QueryMaps(ctx, `
		SELECT name, physical_name, type_desc
		FROM sys.backup_devices
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing backup devices: %w", err)
	}
	devices := make([]BackupDevice, 0, len(rows))
	for _, r := range rows {
		devices = append(devices, BackupDevice{
			Name:         stringVal(r, "name"),
			PhysicalName: stringVal(r, "physical_name"),
			TypeDesc:     stringVal(r, "type_desc"),
		})
	}
	return devices, nil
}

// BackupDeviceExists checks for a backup device by name.
func BackupDeviceExists(ctx context.Context, sess Session, name string) (bool, error) {
	v, err := sess.ScalarString(ctx,
		"SELECT name FROM sys.backup_devices WHERE name = @p1", name)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// Credential is a row of sys.credentials. Secrets are not readable.
type Credential struct {
	Name     string
	Identity string
}

// ListCredentials returns all server credentials.
func ListCredentials(ctx context.Context, sess Session) ([]Credential, error) {
	rows, err := sess.QueryMaps(ctx, `
		SELECT name, credential_identity
		FROM sys.credentials
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}
	creds := make([]Credential, 0, len(rows))
	for _, r := range rows {
		creds = append(creds, Credential{
			Name:     stringVal(r, "name"),
			Identity: stringVal(r, "credential_identity"),
		})
	}
	return creds, nil
}

// CredentialExists checks for a server credential by name.
func CredentialExists(ctx context.Context, sess Session, name string) (bool, error) {
	v, err := sess.ScalarString(ctx,
		"SELECT name FROM sys.credentials WHERE name = @p1", name)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// LinkedServer is a row of sys.servers with is_linked = 1.
type LinkedServer struct {
	Name       string
	Product    string
	Provider   string
	DataSource string
	Catalog    string
}

// ListLinkedServers returns all linked servers.
func ListLinkedServers(ctx context.Context, sess Session) ([]LinkedServer, error) {
	rows, err := sess.QueryMaps(ctx, `
		SELECT name, product, provider,
		       ISNULL(data_source, '') AS data_source,
		       ISNULL(catalog, '') AS catalog
		FROM sys.servers
		WHERE is_linked = 1
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing linked servers: %w", err)
	}
	servers := make([]LinkedServer, 0, len(rows))
	for _, r := range rows {
		servers = append(servers, LinkedServer{
			Name:       stringVal(r, "name"),
			Product:    stringVal(r, "product"),
			Provider:   stringVal(r, "provider"),
			DataSource: stringVal(r, "data_source"),
			Catalog:    stringVal(r, "catalog"),
		})
	}
	return servers, nil
}

// LinkedServerExists checks for a linked server by name.
func LinkedServerExists(ctx context.Context, sess Session, name string) (bool, error) {
	v, err := sess.ScalarString(ctx,
		"SELECT name FROM sys.servers WHERE name = @p1 AND is_linked = 1", name)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// ConfigOption is a row of sys.configurations.
type ConfigOption struct {
	Name       string
	Value      int
	ValueInUse int
	IsDynamic  bool
	IsAdvanced bool
}

// ListConfigOptions returns all sp_configure options and their values.
func ListConfigOptions(ctx context.Context, sess Session) ([]ConfigOption, error) {
	rows, err := sess.QueryMaps(ctx, `
		SELECT name, CAST(value AS int) AS value,
		       CAST(value_in_use AS int) AS value_in_use,
		       is_dynamic, is_advanced
		FROM sys.configurations
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing configurations: %w", err)
	}
	opts := make([]ConfigOption, 0, len(rows))
	for _, r := range rows {
		opts = append(opts, ConfigOption{
			Name:       stringVal(r, "name"),
			Value:      intVal(r, "value"),
			ValueInUse: intVal(r, "value_in_use"),
			IsDynamic:  boolVal(r, "is_dynamic"),
			IsAdvanced: boolVal(r, "is_advanced"),
		})
	}
	return opts, nil
}

// StartupProcedure is a procedure in master marked to run at instance startup.
type StartupProcedure struct {
	Schema string
	Name   string
}

// ListStartupProcedures returns procedures flagged ExecIsStartup in master.
func ListStartupProcedures(ctx context.Context, sess Session) ([]StartupProcedure, error) {
	rows, err := sess.QueryMaps(ctx, `
		SELECT SCHEMA_NAME(p.schema_id) AS schema_name, p.name
		FROM master.sys.procedures p
		WHERE OBJECTPROPERTY(p.object_id, 'ExecIsStartup') = 1
		ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("listing startup procedures: %w", err)
	}
	procs := make([]StartupProcedure, 0, len(rows))
	for _, r := range rows {
		procs = append(procs, StartupProcedure{
			Schema: stringVal(r, "schema_name"),
			Name:   stringVal(r, "name"),
		})
	}
	return procs, nil
}

// StartupProcedureExists checks whether a procedure exists in master,
// regardless of its startup flag.
func StartupProcedureExists(ctx context.Context, sess Session, schema, name string) (bool, error) {
	v, err := sess.ScalarString(ctx, `
		SELECT p.name FROM master.sys.procedures p
		WHERE p.name = @p1 AND SCHEMA_NAME(p.schema_id) = @p2`, name, schema)
	if err != nil {
		return false, err
	}
	return v != "", nil
}
