package ops

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sqlops/mssql-workbench/internal/models"
	"github.com/sqlops/mssql-workbench/internal/remote"
)

// StartupParameters is the parsed form of the semicolon-delimited startup
// parameter string (-d master data file, -e error log, -l master log file,
// -T trace flags, anything else carried through verbatim).
type StartupParameters struct {
	MasterDataFile string   `json:"master_data_file"`
	ErrorLogFile   string   `json:"error_log_file"`
	MasterLogFile  string   `json:"master_log_file"`
	TraceFlags     []int    `json:"trace_flags,omitempty"`
	Extra          []string `json:"extra,omitempty"`
}

// ParseStartupParameters splits a raw semicolon-delimited parameter string.
func ParseStartupParameters(raw string) StartupParameters {
	var p StartupParameters
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case strings.HasPrefix(part, "-d"):
			p.MasterDataFile = part[2:]
		case strings.HasPrefix(part, "-e"):
			p.ErrorLogFile = part[2:]
		case strings.HasPrefix(part, "-l"):
			p.MasterLogFile = part[2:]
		case strings.HasPrefix(part, "-T"):
			if n, err := strconv.Atoi(part[2:]); err == nil {
				p.TraceFlags = append(p.TraceFlags, n)
			} else {
				p.Extra = append(p.Extra, part)
			}
		default:
			p.Extra = append(p.Extra, part)
		}
	}
	sort.Ints(p.TraceFlags)
	return p
}

// String rejoins the parameters into the semicolon-delimited registry form.
// Field order is fixed so round-tripping is stable.
func (p StartupParameters) String() string {
	var parts []string
	if p.MasterDataFile != "" {
		parts = append(parts, "-d"+p.MasterDataFile)
	}
	if p.ErrorLogFile != "" {
		parts = append(parts, "-e"+p.ErrorLogFile)
	}
	if p.MasterLogFile != "" {
		parts = append(parts, "-l"+p.MasterLogFile)
	}
	for _, tf := range p.TraceFlags {
		parts = append(parts, "-T"+strconv.Itoa(tf))
	}
	parts = append(parts, p.Extra...)
	return strings.Join(parts, ";")
}

// WithTraceFlag returns a copy with the trace flag present exactly once.
func (p StartupParameters) WithTraceFlag(n int) StartupParameters {
	for _, tf := range p.TraceFlags {
		if tf == n {
			return p
		}
	}
	flags := append(append([]int{}, p.TraceFlags...), n)
	sort.Ints(flags)
	p.TraceFlags = flags
	return p
}

// WithoutTraceFlag returns a copy with the trace flag removed.
func (p StartupParameters) WithoutTraceFlag(n int) StartupParameters {
	flags := make([]int, 0, len(p.TraceFlags))
	for _, tf := range p.TraceFlags {
		if tf != n {
			flags = append(flags, tf)
		}
	}
	p.TraceFlags = flags
	return p
}

// startupParamsRegPath is the registry value holding startup parameters for
// an instance. Named instances use MSSQL$<name> under the instance-id key;
// reading the id first keeps this correct across versions.
func startupParamsCommand(instanceName string) string {
	inst := "MSSQLSERVER"
	if instanceName != "" {
		inst = instanceName
	}
	return fmt.Sprintf(
		`powershell -NoProfile -Command "$id = (Get-ItemProperty 'HKLM:\SOFTWARE\Microsoft\Microsoft SQL Server\Instance Names\SQL').'%s'; (Get-ItemProperty \"HKLM:\SOFTWARE\Microsoft\Microsoft SQL Server\$id\MSSQLServer\Parameters\").PSObject.Properties | Where-Object Name -like 'SQLArg*' | Sort-Object Name | ForEach-Object Value"`,
		inst)
}

// ReadStartupParameters reads the current startup parameters off the host.
func ReadStartupParameters(ctx context.Context, runner remote.Runner, instanceName string) (StartupParameters, error) {
	out, err := runner.Run(ctx, startupParamsCommand(instanceName))
	if err != nil {
		return StartupParameters{}, fmt.Errorf("reading startup parameters: %w", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return ParseStartupParameters(strings.Join(lines, ";")), nil
}

// SetStartupParameters writes the given parameters back to the host registry
// and reports the before and after strings. The change takes effect at the
// next service restart; this function never restarts the service.
func SetStartupParameters(ctx context.Context, runner remote.Runner, inst *models.Instance, desired StartupParameters, logger func(string)) (*models.Report, error) {
	report := &models.Report{}
	target := inst.Address()

	current, err := ReadStartupParameters(ctx, runner, inst.InstanceName)
	if err != nil {
		return nil, err
	}

	if current.String() == desired.String() {
		report.Append(models.NewStatus("", target, "startup parameters", "startupparams",
			models.StatusSkipped, "already set to "+desired.String()))
		return report, nil
	}

	instName := "MSSQLSERVER"
	if inst.InstanceName != "" {
		instName = inst.InstanceName
	}
	var script strings.Builder
	script.WriteString(fmt.Sprintf(
		`$id = (Get-ItemProperty 'HKLM:\SOFTWARE\Microsoft\Microsoft SQL Server\Instance Names\SQL').'%s'; `, instName))
	script.WriteString(`$key = \"HKLM:\SOFTWARE\Microsoft\Microsoft SQL Server\$id\MSSQLServer\Parameters\"; `)
	script.WriteString(`Get-Item $key | Select-Object -ExpandProperty Property | Where-Object {$_ -like 'SQLArg*'} | ForEach-Object { Remove-ItemProperty $key -Name $_ }; `)
	for i, arg := range strings.Split(desired.String(), ";") {
		script.WriteString(fmt.Sprintf(`New-ItemProperty $key -Name 'SQLArg%d' -Value '%s' -PropertyType String | Out-Null; `, i, arg))
	}

	cmd := `powershell -NoProfile -Command "` + script.String() + `"`
	if _, err := runner.Run(ctx, cmd); err != nil {
		report.Append(models.NewStatus("", target, "startup parameters", "startupparams",
			models.StatusFailed, err.Error()))
		return report, nil
	}

	note := fmt.Sprintf("before: %s; after: %s; restart required", current.String(), desired.String())
	report.Append(models.NewStatus("", target, "startup parameters", "startupparams",
		models.StatusSuccessful, note))
	logger("Startup parameters updated on " + target + " (restart required)")
	return report, nil
}
