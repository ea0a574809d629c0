package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/sqlops/mssql-workbench/internal/models"
)

// Directory is the lookup contract against the directory service. The checker
// only reads; SPN registration stays a manual, privileged operation.
type Directory interface {
	// LookupSPN reports whether the given SPN is registered.
	LookupSPN(ctx context.Context, spn string) (bool, error)
}

// RequiredSPNs derives the service principal names an instance needs for
// Kerberos. The default instance needs the bare host SPN plus the port form;
// a named instance needs the instance-name form plus its port form.
func RequiredSPNs(fqdn, instanceName string, port int) []string {
	host := strings.ToLower(fqdn)
	if instanceName == "" {
		return []string{
			"MSSQLSvc/" + host,
			fmt.Sprintf("MSSQLSvc/%s:%d", host, port),
		}
	}
	return []string{
		fmt.Sprintf("MSSQLSvc/%s:%s", host, instanceName),
		fmt.Sprintf("MSSQLSvc/%s:%d", host, port),
	}
}

// TestSPNs checks every required SPN against the directory and emits one
// status record each: Successful when registered, Skipped with a note when
// missing, Failed when the lookup itself errored. Nothing is ever written.
func TestSPNs(ctx context.Context, dir Directory, inst *models.Instance, fqdn string, logger func(string)) (*models.Report, error) {
	report := &models.Report{}
	target := inst.Address()

	for _, spn := range RequiredSPNs(fqdn, inst.InstanceName, inst.EffectivePort()) {
		found, err := dir.LookupSPN(ctx, spn)
		switch {
		case err != nil:
			report.Append(models.NewStatus("", target, spn, "spn",
				models.StatusFailed, "lookup failed: "+err.Error()))
			logger(fmt.Sprintf("  Failed: %s: %v", spn, err))
		case found:
			report.Append(models.NewStatus("", target, spn, "spn",
				models.StatusSuccessful, "registered"))
			logger("  Registered: " + spn)
		default:
			report.Append(models.NewStatus("", target, spn, "spn",
				models.StatusSkipped, "not registered; run setspn -S "+spn))
			logger("  Missing: " + spn)
		}
	}
	return report, nil
}
