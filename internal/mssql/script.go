package mssql

import (
	"fmt"
	"strings"
)

// Statements are regenerated from structured catalog fields rather than
// rewritten from scripts fetched off the source, so destination identity never
// leaks into generated text by substring accident.

// Strategy is one way of creating an object: a named, ordered batch of
// statements. Executors try strategies in order and stop at the first one
// whose statements all succeed.
type Strategy struct {
	Name       string
	Statements []string
}

// QuoteName bracket-quotes a T-SQL identifier.
func QuoteName(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// QuoteString single-quotes a T-SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// LoginCreateStrategies builds the creation strategies for a login. SQL login
// passwords cannot be read off the source, so the login is created with the
// supplied placeholder password and must be reset afterwards.
func LoginCreateStrategies(l Login, placeholderPassword string) []Strategy {
	if l.Type == "S" {
		stmt := fmt.Sprintf("CREATE LOGIN %s WITH PASSWORD = %s, DEFAULT_DATABASE = %s",
			QuoteName(l.Name), QuoteString(placeholderPassword), QuoteName(l.DefaultDatabase))
		if l.DefaultLanguage != "" {
			stmt += ", DEFAULT_LANGUAGE = " + QuoteName(l.DefaultLanguage)
		}
		stmt += fmt.Sprintf(", CHECK_POLICY = %s, CHECK_EXPIRATION = %s",
			onOff(l.CheckPolicy), onOff(l.CheckExpiration))

		statements := []string{stmt}
		if l.Disabled {
			statements = append(statements, "ALTER LOGIN "+QuoteName(l.Name)+" DISABLE")
		}
		return []Strategy{{Name: "create login", Statements: statements}}
	}

	// Windows principal
	stmt := fmt.Sprintf("CREATE LOGIN %s FROM WINDOWS WITH DEFAULT_DATABASE = %s",
		QuoteName(l.Name), QuoteName(l.DefaultDatabase))
	statements := []string{stmt}
	if l.Disabled {
		statements = append(statements, "ALTER LOGIN "+QuoteName(l.Name)+" DISABLE")
	}
	return []Strategy{{Name: "create windows login", Statements: statements}}
}

// LoginDropStatement builds the drop statement for a login.
func LoginDropStatement(name string) string {
	return "DROP LOGIN " + QuoteName(name)
}

// AgentJobCreateStrategies builds the creation strategies for an agent job:
// the msdb stored-procedure route first, then a minimal fallback that creates
// the job shell without schedules.
func AgentJobCreateStrategies(j AgentJob) []Strategy {
	full := []string{jobAddStatement(j)}
	for _, s := range j.Steps {
		full = append(full, jobStepStatement(j.Name, s))
	}
	for _, sch := range j.Schedules {
		full = append(full, jobScheduleStatement(j.Name, sch))
	}
	full = append(full, fmt.Sprintf(
		"EXEC msdb.dbo.sp_add_jobserver @job_name = %s, @server_name = N'(local)'",
		QuoteString(j.Name)))

	minimal := []string{jobAddStatement(j)}
	for _, s := range j.Steps {
		minimal = append(minimal, jobStepStatement(j.Name, s))
	}
	minimal = append(minimal, fmt.Sprintf(
		"EXEC msdb.dbo.sp_add_jobserver @job_name = %s, @server_name = N'(local)'",
		QuoteString(j.Name)))

	return []Strategy{
		{Name: "job with schedules", Statements: full},
		{Name: "job without schedules", Statements: minimal},
	}
}

func jobAddStatement(j AgentJob) string {
	return fmt.Sprintf(
		"EXEC msdb.dbo.sp_add_job @job_name = %s, @enabled = %d, @description = %s, @owner_login_name = %s",
		QuoteString(j.Name), boolBit(j.Enabled), QuoteString(j.Description), QuoteString(j.OwnerLogin))
}

func jobStepStatement(jobName string, s JobStep) string {
	stmt := fmt.Sprintf(
		"EXEC msdb.dbo.sp_add_jobstep @job_name = %s, @step_id = %d, @step_name = %s, @subsystem = %s, @command = %s",
		QuoteString(jobName), s.ID, QuoteString(s.Name), QuoteString(s.Subsystem), QuoteString(s.Command))
	if s.Database != "" {
		stmt += ", @database_name = " + QuoteString(s.Database)
	}
	if s.ProxyName != "" {
		stmt += ", @proxy_name = " + QuoteString(s.ProxyName)
	}
	return stmt
}

func jobScheduleStatement(jobName string, sch JobSchedule) string {
	return fmt.Sprintf(
		"EXEC msdb.dbo.sp_add_jobschedule @job_name = %s, @name = %s, @enabled = %d, @freq_type = %d, @freq_interval = %d, @active_start_time = %d",
		QuoteString(jobName), QuoteString(sch.Name), boolBit(sch.Enabled),
		sch.FreqType, sch.FreqInterval, sch.ActiveStartTime)
}

// AgentJobDropStatement builds the drop statement for an agent job.
func AgentJobDropStatement(name string) string {
	return "EXEC msdb.dbo.sp_delete_job @job_name = " + QuoteString(name)
}

// MailAccountCreateStrategies builds the creation strategy for a mail account.
func MailAccountCreateStrategies(a MailAccount) []Strategy {
	stmt := fmt.Sprintf(
		"EXEC msdb.dbo.sysmail_add_account_sp @account_name = %s, @description = %s, @email_address = %s, @display_name = %s, @replyto_address = %s, @mailserver_name = %s",
		QuoteString(a.Name), QuoteString(a.Description), QuoteString(a.EmailAddress),
		QuoteString(a.DisplayName), QuoteString(a.ReplyTo), QuoteString(a.MailServer))
	return []Strategy{{Name: "add mail account", Statements: []string{stmt}}}
}

// MailAccountDropStatement builds the drop statement for a mail account.
func MailAccountDropStatement(name string) string {
	return "EXEC msdb.dbo.sysmail_delete_account_sp @account_name = " + QuoteString(name)
}

// MailProfileCreateStrategies builds the creation strategy for a mail profile
// and its account bindings.
func MailProfileCreateStrategies(p MailProfile) []Strategy {
	statements := []string{fmt.Sprintf(
		"EXEC msdb.dbo.sysmail_add_profile_sp @profile_name = %s, @description = %s",
		QuoteString(p.Name), QuoteString(p.Description))}
	for i, acct := range p.Accounts {
		statements = append(statements, fmt.Sprintf(
			"EXEC msdb.dbo.sysmail_add_profileaccount_sp @profile_name = %s, @account_name = %s, @sequence_number = %d",
			QuoteString(p.Name), QuoteString(acct), i+1))
	}
	return []Strategy{{Name: "add mail profile", Statements: statements}}
}

// MailProfileDropStatement builds the drop statement for a mail profile.
func MailProfileDropStatement(name string) string {
	return "EXEC msdb.dbo.sysmail_delete_profile_sp @profile_name = " + QuoteString(name)
}

// CustomErrorCreateStrategies builds the creation strategies for a user
// message: sp_addmessage with @lang first, falling back to us_english only.
func CustomErrorCreateStrategies(e CustomError) []Strategy {
	withLang := fmt.Sprintf(
		"EXEC sp_addmessage @msgnum = %d, @severity = %d, @msgtext = %s, @lang = %s, @with_log = %s, @replace = 'replace'",
		e.MessageID, e.Severity, QuoteString(e.Text), QuoteString(e.Language), QuoteString(logFlag(e.IsLogged)))
	plain := fmt.Sprintf(
		"EXEC sp_addmessage @msgnum = %d, @severity = %d, @msgtext = %s, @with_log = %s, @replace = 'replace'",
		e.MessageID, e.Severity, QuoteString(e.Text), QuoteString(logFlag(e.IsLogged)))
	return []Strategy{
		{Name: "addmessage with language", Statements: []string{withLang}},
		{Name: "addmessage us_english", Statements: []string{plain}},
	}
}

// CustomErrorDropStatement builds the drop statement for a user message.
func CustomErrorDropStatement(messageID int) string {
	return fmt.Sprintf("EXEC sp_dropmessage @msgnum = %d, @lang = 'all'", messageID)
}

// BackupDeviceCreateStrategies builds the creation strategy for a backup device.
func BackupDeviceCreateStrategies(d BackupDevice) []Strategy {
	devType := "disk"
	if strings.EqualFold(d.TypeDesc, "TAPE") {
		devType = "tape"
	}
	stmt := fmt.Sprintf("EXEC sp_addumpdevice @devtype = %s, @logicalname = %s, @physicalname = %s",
		QuoteString(devType), QuoteString(d.Name), QuoteString(d.PhysicalName))
	return []Strategy{{Name: "add dump device", Statements: []string{stmt}}}
}

// BackupDeviceDropStatement builds the drop statement for a backup device.
func BackupDeviceDropStatement(name string) string {
	return "EXEC sp_dropdevice @logicalname = " + QuoteString(name)
}

// CredentialCreateStrategies builds the creation strategy for a credential.
// Secrets are not exportable, so the credential is created with an empty
// secret and must be completed manually.
func CredentialCreateStrategies(c Credential) []Strategy {
	stmt := fmt.Sprintf("CREATE CREDENTIAL %s WITH IDENTITY = %s, SECRET = ''",
		QuoteName(c.Name), QuoteString(c.Identity))
	return []Strategy{{Name: "create credential", Statements: []string{stmt}}}
}

// CredentialDropStatement builds the drop statement for a credential.
func CredentialDropStatement(name string) string {
	return "DROP CREDENTIAL " + QuoteName(name)
}

// LinkedServerCreateStrategies builds the creation strategies for a linked
// server: full provider registration first, then the SQL Server shorthand.
func LinkedServerCreateStrategies(ls LinkedServer) []Strategy {
	full := fmt.Sprintf(
		"EXEC sp_addlinkedserver @server = %s, @srvproduct = %s, @provider = %s, @datasrc = %s",
		QuoteString(ls.Name), QuoteString(ls.Product), QuoteString(ls.Provider), QuoteString(ls.DataSource))
	if ls.Catalog != "" {
		full += ", @catalog = " + QuoteString(ls.Catalog)
	}
	shorthand := fmt.Sprintf("EXEC sp_addlinkedserver @server = %s, @srvproduct = 'SQL Server'",
		QuoteString(ls.Name))
	return []Strategy{
		{Name: "linked server with provider", Statements: []string{full}},
		{Name: "linked server shorthand", Statements: []string{shorthand}},
	}
}

// LinkedServerDropStatement builds the drop statement for a linked server,
// dropping its login mappings with it.
func LinkedServerDropStatement(name string) string {
	return fmt.Sprintf("EXEC sp_dropserver @server = %s, @droplogins = 'droplogins'", QuoteString(name))
}

// StartupProcedureEnableStatement marks a master procedure to run at startup.
func StartupProcedureEnableStatement(p StartupProcedure) string {
	return fmt.Sprintf("EXEC sp_procoption @ProcName = %s, @OptionName = 'startup', @OptionValue = 'on'",
		QuoteString(p.Schema+"."+p.Name))
}

// ConfigOptionSetStatements builds the sp_configure batch for one option.
// Advanced options need 'show advanced options' toggled around the change.
func ConfigOptionSetStatements(opt ConfigOption, value int) []string {
	set := fmt.Sprintf("EXEC sp_configure %s, %d", QuoteString(opt.Name), value)
	if !opt.IsAdvanced {
		return []string{set, "RECONFIGURE"}
	}
	return []string{
		"EXEC sp_configure 'show advanced options', 1",
		"RECONFIGURE",
		set,
		"RECONFIGURE",
		"EXEC sp_configure 'show advanced options', 0",
		"RECONFIGURE",
	}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}

func logFlag(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
