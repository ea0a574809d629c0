package ops

import (
	"context"
	"fmt"

	"github.com/sqlops/mssql-workbench/internal/models"
	"github.com/sqlops/mssql-workbench/internal/remote"
)

// FirewallRule describes the desired state of one inbound rule on the
// instance host.
type FirewallRule struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Protocol    string `json:"protocol"` // TCP or UDP
	LocalPort   int    `json:"local_port"`
}

// RuleForInstance builds the desired rule for an instance's listener port.
// Named instances are identified by instance name; the rule name and display
// name are identical.
func RuleForInstance(inst *models.Instance) FirewallRule {
	name := "SQL Server default instance"
	if inst.InstanceName != "" {
		name = "SQL Server instance " + inst.InstanceName
	}
	return FirewallRule{
		Name:        name,
		DisplayName: name,
		Protocol:    "TCP",
		LocalPort:   inst.EffectivePort(),
	}
}

// BrowserRule builds the SQL Server Browser rule needed when clients reach a
// named instance without a static port in the connection string.
func BrowserRule() FirewallRule {
	return FirewallRule{
		Name:        "SQL Server Browser",
		DisplayName: "SQL Server Browser",
		Protocol:    "UDP",
		LocalPort:   1434,
	}
}

// RulesForInstance returns the full desired rule set for an instance: the
// listener rule, plus the Browser rule for named instances.
func RulesForInstance(inst *models.Instance) []FirewallRule {
	rules := []FirewallRule{RuleForInstance(inst)}
	if inst.InstanceName != "" {
		rules = append(rules, BrowserRule())
	}
	return rules
}

func (r FirewallRule) existsCommand() string {
	return fmt.Sprintf(
		`powershell -NoProfile -Command "Get-NetFirewallRule -Name '%s' -ErrorAction Stop | Out-Null"`,
		r.Name)
}

func (r FirewallRule) createCommand() string {
	return fmt.Sprintf(
		`powershell -NoProfile -Command "New-NetFirewallRule -Name '%s' -DisplayName '%s' -Direction Inbound -Protocol %s -LocalPort %d -Action Allow | Out-Null"`,
		r.Name, r.DisplayName, r.Protocol, r.LocalPort)
}

func (r FirewallRule) removeCommand() string {
	return fmt.Sprintf(
		`powershell -NoProfile -Command "Remove-NetFirewallRule -Name '%s'"`, r.Name)
}

// ApplyFirewallRules reconciles the desired rules on the instance host.
// An existing rule is Skipped unless force, in which case it is removed and
// recreated. One status record per rule.
func ApplyFirewallRules(ctx context.Context, runner remote.Runner, inst *models.Instance, force bool, logger func(string)) (*models.Report, error) {
	report := &models.Report{}
	target := inst.Address()

	for _, rule := range RulesForInstance(inst) {
		_, err := runner.Run(ctx, rule.existsCommand())
		exists := err == nil

		if exists && !force {
			report.Append(models.NewStatus("", target, rule.Name, "firewall",
				models.StatusSkipped, "Already exists on destination"))
			logger("  Skipped: " + rule.Name + " (exists)")
			continue
		}
		if exists {
			if _, err := runner.Run(ctx, rule.removeCommand()); err != nil {
				report.Append(models.NewStatus("", target, rule.Name, "firewall",
					models.StatusFailed, "remove failed: "+err.Error()))
				logger(fmt.Sprintf("  Failed: %s: %v", rule.Name, err))
				continue
			}
		}
		if _, err := runner.Run(ctx, rule.createCommand()); err != nil {
			report.Append(models.NewStatus("", target, rule.Name, "firewall",
				models.StatusFailed, err.Error()))
			logger(fmt.Sprintf("  Failed: %s: %v", rule.Name, err))
			continue
		}
		report.Append(models.NewStatus("", target, rule.Name, "firewall",
			models.StatusSuccessful, fmt.Sprintf("%s %d inbound allowed", rule.Protocol, rule.LocalPort)))
		logger("  Created: " + rule.Name)
	}
	return report, nil
}
