package mssql

import (
	"strings"
	"testing"
)

func TestQuoteName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "[plain]"},
		{"with space", "[with space]"},
		{"evil]name", "[evil]]name]"},
	}
	for _, tt := range tests {
		if got := QuoteName(tt.in); got != tt.want {
			t.Errorf("QuoteName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "'plain'"},
		{"O'Brien", "'O''Brien'"},
		{"", "''"},
	}
	for _, tt := range tests {
		if got := QuoteString(tt.in); got != tt.want {
			t.Errorf("QuoteString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoginCreateStrategies_SQLLogin(t *testing.T) {
	l := Login{
		Name:            "appuser",
		Type:            "S",
		DefaultDatabase: "app1",
		DefaultLanguage: "us_english",
		Disabled:        true,
		CheckPolicy:     true,
	}
	strats := LoginCreateStrategies(l, "Temp-123")
	if len(strats) != 1 {
		t.Fatalf("got %d strategies, want 1", len(strats))
	}
	stmts := strats[0].Statements
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want create + disable", len(stmts))
	}
	create := stmts[0]
	for _, want := range []string{
		"CREATE LOGIN [appuser]",
		"PASSWORD = 'Temp-123'",
		"DEFAULT_DATABASE = [app1]",
		"CHECK_POLICY = ON",
		"CHECK_EXPIRATION = OFF",
	} {
		if !strings.Contains(create, want) {
			t.Errorf("create statement %q missing %q", create, want)
		}
	}
	if stmts[1] != "ALTER LOGIN [appuser] DISABLE" {
		t.Errorf("disable statement = %q", stmts[1])
	}
}

func TestLoginCreateStrategies_WindowsLogin(t *testing.T) {
	l := Login{Name: `CORP\svc-backup`, Type: "U", DefaultDatabase: "master"}
	strats := LoginCreateStrategies(l, "unused")
	stmt := strats[0].Statements[0]
	if !strings.Contains(stmt, "FROM WINDOWS") {
		t.Errorf("windows login statement %q missing FROM WINDOWS", stmt)
	}
	if strings.Contains(stmt, "PASSWORD") {
		t.Errorf("windows login statement %q must not carry a password", stmt)
	}
	if !strings.Contains(stmt, `[CORP\svc-backup]`) {
		t.Errorf("statement %q missing quoted name", stmt)
	}
}

func TestAgentJobCreateStrategies(t *testing.T) {
	j := AgentJob{
		Name:       "Nightly ETL",
		OwnerLogin: "sa",
		Enabled:    true,
		Steps: []JobStep{
			{ID: 1, Name: "load", Subsystem: "TSQL", Command: "EXEC dbo.load", Database: "app1"},
		},
		Schedules: []JobSchedule{
			{Name: "daily", Enabled: true, FreqType: 4, FreqInterval: 1, ActiveStartTime: 10000},
		},
	}
	strats := AgentJobCreateStrategies(j)
	if len(strats) != 2 {
		t.Fatalf("got %d strategies, want schedule + fallback", len(strats))
	}

	// The full strategy carries the schedule, the fallback must not.
	joined := strings.Join(strats[0].Statements, "\n")
	if !strings.Contains(joined, "sp_add_jobschedule") {
		t.Errorf("full strategy missing schedule:\n%s", joined)
	}
	fallback := strings.Join(strats[1].Statements, "\n")
	if strings.Contains(fallback, "sp_add_jobschedule") {
		t.Errorf("fallback strategy must not carry schedules:\n%s", fallback)
	}

	for _, s := range strats {
		joined := strings.Join(s.Statements, "\n")
		for _, want := range []string{
			"sp_add_job @job_name = 'Nightly ETL'",
			"@database_name = 'app1'",
			"sp_add_jobserver",
		} {
			if !strings.Contains(joined, want) {
				t.Errorf("strategy %s missing %q:\n%s", s.Name, want, joined)
			}
		}
	}
}

func TestCustomErrorCreateStrategies(t *testing.T) {
	e := CustomError{MessageID: 50001, Language: "Deutsch", Severity: 16, Text: "kaputt", IsLogged: true}
	strats := CustomErrorCreateStrategies(e)
	if len(strats) != 2 {
		t.Fatalf("got %d strategies, want language + plain", len(strats))
	}
	if !strings.Contains(strats[0].Statements[0], "@lang = 'Deutsch'") {
		t.Errorf("preferred strategy %q missing language", strats[0].Statements[0])
	}
	if strings.Contains(strats[1].Statements[0], "@lang") {
		t.Errorf("fallback strategy %q must not pass a language", strats[1].Statements[0])
	}
	for _, s := range strats {
		if !strings.Contains(s.Statements[0], "@with_log = 'TRUE'") {
			t.Errorf("strategy %q missing with_log", s.Statements[0])
		}
	}
}

func TestMailProfileCreateStrategies_SequenceOrder(t *testing.T) {
	p := MailProfile{Name: "Ops", Accounts: []string{"first", "second"}}
	stmts := MailProfileCreateStrategies(p)[0].Statements
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want profile + 2 bindings", len(stmts))
	}
	if !strings.Contains(stmts[1], "@account_name = 'first', @sequence_number = 1") {
		t.Errorf("first binding = %q", stmts[1])
	}
	if !strings.Contains(stmts[2], "@account_name = 'second', @sequence_number = 2") {
		t.Errorf("second binding = %q", stmts[2])
	}
}

func TestLinkedServerCreateStrategies(t *testing.T) {
	ls := LinkedServer{Name: "REPORTS", Product: "", Provider: "MSOLEDBSQL", DataSource: "reports.corp.local", Catalog: "rpt"}
	strats := LinkedServerCreateStrategies(ls)
	if !strings.Contains(strats[0].Statements[0], "@provider = 'MSOLEDBSQL'") {
		t.Errorf("full strategy = %q", strats[0].Statements[0])
	}
	if !strings.Contains(strats[0].Statements[0], "@catalog = 'rpt'") {
		t.Errorf("full strategy missing catalog: %q", strats[0].Statements[0])
	}
	if !strings.Contains(strats[1].Statements[0], "@srvproduct = 'SQL Server'") {
		t.Errorf("shorthand strategy = %q", strats[1].Statements[0])
	}
}

func TestConfigOptionSetStatements(t *testing.T) {
	plain := ConfigOption{Name: "remote query timeout (s)"}
	if got := ConfigOptionSetStatements(plain, 300); len(got) != 2 {
		t.Errorf("plain option: got %d statements, want set + reconfigure: %v", len(got), got)
	}

	advanced := ConfigOption{Name: "max degree of parallelism", IsAdvanced: true}
	stmts := ConfigOptionSetStatements(advanced, 4)
	if len(stmts) != 6 {
		t.Fatalf("advanced option: got %d statements, want toggled batch: %v", len(stmts), stmts)
	}
	if !strings.Contains(stmts[0], "'show advanced options', 1") {
		t.Errorf("batch does not open the advanced toggle: %q", stmts[0])
	}
	if !strings.Contains(stmts[4], "'show advanced options', 0") {
		t.Errorf("batch does not close the advanced toggle: %q", stmts[4])
	}
	if !strings.Contains(stmts[2], "'max degree of parallelism', 4") {
		t.Errorf("set statement = %q", stmts[2])
	}
}

func TestBackupDeviceCreateStrategies_TapeType(t *testing.T) {
	d := BackupDevice{Name: "tapedev", PhysicalName: `\\.\tape0`, TypeDesc: "TAPE"}
	stmt := BackupDeviceCreateStrategies(d)[0].Statements[0]
	if !strings.Contains(stmt, "@devtype = 'tape'") {
		t.Errorf("statement = %q, want tape devtype", stmt)
	}
}
