package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlops/mssql-workbench/internal/models"
)

func TestParseStartupParameters(t *testing.T) {
	raw := `-dC:\Data\master.mdf;-eC:\Log\ERRORLOG;-lC:\Data\mastlog.ldf;-T3226;-T1118;-g512`
	p := ParseStartupParameters(raw)

	require.Equal(t, `C:\Data\master.mdf`, p.MasterDataFile)
	require.Equal(t, `C:\Log\ERRORLOG`, p.ErrorLogFile)
	require.Equal(t, `C:\Data\mastlog.ldf`, p.MasterLogFile)
	require.Equal(t, []int{1118, 3226}, p.TraceFlags)
	require.Equal(t, []string{"-g512"}, p.Extra)
}

func TestStartupParameters_RoundTrip(t *testing.T) {
	raw := `-dC:\Data\master.mdf;-eC:\Log\ERRORLOG;-lC:\Data\mastlog.ldf;-T1118;-T3226;-g512`
	p := ParseStartupParameters(raw)
	require.Equal(t, raw, p.String())
}

func TestWithTraceFlag_Idempotent(t *testing.T) {
	p := StartupParameters{TraceFlags: []int{3226}}
	p = p.WithTraceFlag(1118)
	p = p.WithTraceFlag(1118)
	require.Equal(t, []int{1118, 3226}, p.TraceFlags)
}

func TestWithoutTraceFlag(t *testing.T) {
	p := StartupParameters{TraceFlags: []int{1118, 3226}}
	p = p.WithoutTraceFlag(3226)
	require.Equal(t, []int{1118}, p.TraceFlags)
	p = p.WithoutTraceFlag(9999)
	require.Equal(t, []int{1118}, p.TraceFlags)
}

func TestReadStartupParameters(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["SQLArg"] = "-dC:\\Data\\master.mdf\n-eC:\\Log\\ERRORLOG\n-lC:\\Data\\mastlog.ldf\n-T3226\n"

	p, err := ReadStartupParameters(context.Background(), runner, "SALES")
	require.NoError(t, err)
	require.Equal(t, `C:\Data\master.mdf`, p.MasterDataFile)
	require.Equal(t, []int{3226}, p.TraceFlags)
	require.Len(t, runner.calls, 1)
	require.Contains(t, runner.calls[0], "'SALES'")
}

func TestSetStartupParameters_NoChangeSkipped(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["SQLArg"] = "-dC:\\Data\\master.mdf\n-eC:\\Log\\ERRORLOG\n-lC:\\Data\\mastlog.ldf\n"

	inst := &models.Instance{Host: "srva"}
	desired := ParseStartupParameters(`-dC:\Data\master.mdf;-eC:\Log\ERRORLOG;-lC:\Data\mastlog.ldf`)
	report, err := SetStartupParameters(context.Background(), runner, inst, desired, discard)
	require.NoError(t, err)
	require.Len(t, report.Statuses, 1)
	require.Equal(t, models.StatusSkipped, report.Statuses[0].Status)
	require.Empty(t, runner.callsMatching("New-ItemProperty"))
}

func TestSetStartupParameters_WritesAndNotesRestart(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["SQLArg"] = "-dC:\\Data\\master.mdf\n-eC:\\Log\\ERRORLOG\n-lC:\\Data\\mastlog.ldf\n"

	inst := &models.Instance{Host: "srva"}
	current := ParseStartupParameters(`-dC:\Data\master.mdf;-eC:\Log\ERRORLOG;-lC:\Data\mastlog.ldf`)
	desired := current.WithTraceFlag(3226)

	report, err := SetStartupParameters(context.Background(), runner, inst, desired, discard)
	require.NoError(t, err)
	require.Len(t, report.Statuses, 1)
	st := report.Statuses[0]
	require.Equal(t, models.StatusSuccessful, st.Status)
	require.Contains(t, st.Notes, "restart required")
	require.Contains(t, st.Notes, "before: "+current.String())
	require.Len(t, runner.callsMatching("New-ItemProperty"), 1)
	require.Contains(t, runner.callsMatching("New-ItemProperty")[0], "-T3226")
}
