package migration

import (
	"context"
	"fmt"
	"strconv"

	"github.com/juju/collections/set"

	"github.com/sqlops/mssql-workbench/internal/models"
	"github.com/sqlops/mssql-workbench/internal/mssql"
)

// Options control a migration run.
type Options struct {
	// Force authorizes drop-and-recreate of objects that already exist on
	// the destination.
	Force bool `json:"force,omitempty"`

	// ExcludeCategories names categories to skip entirely.
	ExcludeCategories []string `json:"exclude_categories,omitempty"`

	// ExcludeObjects names individual objects to skip, keyed by category.
	ExcludeObjects map[string][]string `json:"exclude_objects,omitempty"`

	// PlaceholderPassword is assigned to migrated SQL logins, whose real
	// passwords cannot be read off the source.
	PlaceholderPassword string `json:"-"`
}

func (o Options) placeholder() string {
	if o.PlaceholderPassword != "" {
		return o.PlaceholderPassword
	}
	return "ChangeMe-331aA"
}

// dependency is a pre-check run before an object is touched: if the referenced
// object is missing on the destination, the target is Skipped, never Failed.
type dependency struct {
	desc   string
	exists func() (bool, error)
}

// runner executes one category at a time against a single destination,
// accumulating exactly one status record per object.
type runner struct {
	ctx     context.Context
	dst     mssql.Session
	srcName string
	dstName string
	opts    Options
	exclude set.Strings
	logger  func(string)
}

// status builds a record stamped with this runner's source and destination.
func (r *runner) status(name, objType, status, notes string) models.OperationStatus {
	return models.NewStatus(r.srcName, r.dstName, name, objType, status, notes)
}

func (r *runner) objectExcluded(category, name string) bool {
	for _, n := range r.opts.ExcludeObjects[category] {
		if n == name {
			return true
		}
	}
	return false
}

// apply implements the per-object state machine shared by every category:
//
//	exists & !Force -> Skipped
//	exists &  Force -> Drop -> Create -> Successful | Failed
//	!exists         -> Create -> Successful | Failed
//
// Dependencies are checked first; a missing dependency short-circuits to
// Skipped with the dependency named. Creation tries each strategy in order
// and records Failed only when all of them fail.
func (r *runner) apply(name, objType string, exists func() (bool, error), deps []dependency, drop string, strategies []mssql.Strategy) models.OperationStatus {
	for _, d := range deps {
		ok, err := d.exists()
		if err != nil {
			return r.status(name, objType, models.StatusFailed,
				fmt.Sprintf("checking dependency %s: %v", d.desc, err))
		}
		if !ok {
			return r.status(name, objType, models.StatusSkipped,
				fmt.Sprintf("depends on %s, which does not exist on destination", d.desc))
		}
	}

	found, err := exists()
	if err != nil {
		return r.status(name, objType, models.StatusFailed, "existence check failed: "+err.Error())
	}

	if found {
		if !r.opts.Force {
			return r.status(name, objType, models.StatusSkipped, "Already exists on destination")
		}
		if err := r.dst.Exec(r.ctx, drop); err != nil {
			return r.status(name, objType, models.StatusFailed, "drop failed: "+err.Error())
		}
	}

	if len(strategies) == 0 {
		return r.status(name, objType, models.StatusFailed, "no creation strategy")
	}

	var lastErr error
	for _, strat := range strategies {
		lastErr = nil
		for _, stmt := range strat.Statements {
			if err := r.dst.Exec(r.ctx, stmt); err != nil {
				lastErr = fmt.Errorf("%s: %w", strat.Name, err)
				break
			}
		}
		if lastErr == nil {
			return r.status(name, objType, models.StatusSuccessful, "")
		}
	}
	return r.status(name, objType, models.StatusFailed, lastErr.Error())
}

// importAll runs every category in fixed order against the destination.
// Each category appends its own status records to the report before the next
// category starts, so a failure in one category never orphans earlier results
// and never aborts later categories.
func importAll(ctx context.Context, dst mssql.Session, data *ExportedData, preview *models.MigrationPreview, opts Options, report *models.Report, logger func(string)) {
	r := &runner{
		ctx:     ctx,
		dst:     dst,
		srcName: data.SourceName,
		dstName: dst.Info().Name,
		opts:    opts,
		exclude: set.NewStrings(opts.ExcludeCategories...),
		logger:  logger,
	}

	if preview != nil {
		for _, warn := range preview.Warnings {
			report.Warn(warn)
		}
	}

	for _, category := range CategoryOrder {
		if r.exclude.Contains(category) {
			logger("=== Skipping " + category + " (excluded) ===")
			continue
		}
		logger("=== Migrating " + category + " ===")
		var statuses []models.OperationStatus
		switch category {
		case "spconfigure":
			statuses = r.migrateSpConfigure(data.SpConfigure)
		case "customerrors":
			statuses = r.migrateCustomErrors(data.CustomErrors)
		case "credentials":
			statuses = r.migrateCredentials(data.Credentials)
		case "backupdevices":
			statuses = r.migrateBackupDevices(data.BackupDevices)
		case "dbmail":
			statuses = r.migrateDBMail(data.MailAccounts, data.MailProfiles)
		case "logins":
			statuses = r.migrateLogins(data.Logins)
		case "agentjobs":
			statuses = r.migrateAgentJobs(data.AgentJobs)
		case "linkedservers":
			statuses = r.migrateLinkedServers(data.LinkedServers)
		case "startupprocs":
			statuses = r.migrateStartupProcs(data.StartupProcs)
		}
		for _, st := range statuses {
			logger(fmt.Sprintf("  %s: %s %s", st.Status, st.Name, st.Notes))
		}
		report.Append(statuses...)
	}
}

// migrateSpConfigure aligns destination sp_configure values with the source.
// Matching values are Skipped; non-dynamic options that differ would need an
// instance restart to take effect and are reported NotSupported.
func (r *runner) migrateSpConfigure(src []mssql.ConfigOption) []models.OperationStatus {
	destOpts, err := mssql.ListConfigOptions(r.ctx, r.dst)
	if err != nil {
		return []models.OperationStatus{
			r.status("sp_configure", "spconfigure", models.StatusFailed,
				"reading destination configuration: "+err.Error()),
		}
	}
	destByName := make(map[string]mssql.ConfigOption, len(destOpts))
	for _, o := range destOpts {
		destByName[o.Name] = o
	}

	var statuses []models.OperationStatus
	for _, opt := range src {
		if r.objectExcluded("spconfigure", opt.Name) {
			continue
		}
		dest, ok := destByName[opt.Name]
		if !ok {
			statuses = append(statuses, r.status(opt.Name, "spconfigure", models.StatusNotSupported,
				"option does not exist on destination"))
			continue
		}
		if dest.ValueInUse == opt.ValueInUse {
			statuses = append(statuses, r.status(opt.Name, "spconfigure", models.StatusSkipped,
				"value already matches"))
			continue
		}
		if !dest.IsDynamic {
			statuses = append(statuses, r.status(opt.Name, "spconfigure", models.StatusNotSupported,
				"option is not dynamic and requires a restart"))
			continue
		}
		var execErr error
		for _, stmt := range mssql.ConfigOptionSetStatements(dest, opt.ValueInUse) {
			if execErr = r.dst.Exec(r.ctx, stmt); execErr != nil {
				break
			}
		}
		if execErr != nil {
			statuses = append(statuses, r.status(opt.Name, "spconfigure", models.StatusFailed, execErr.Error()))
			continue
		}
		statuses = append(statuses, r.status(opt.Name, "spconfigure", models.StatusSuccessful,
			fmt.Sprintf("%d -> %d", dest.ValueInUse, opt.ValueInUse)))
	}
	return statuses
}

func (r *runner) migrateCustomErrors(errs []mssql.CustomError) []models.OperationStatus {
	var statuses []models.OperationStatus
	for _, e := range errs {
		e := e
		name := strconv.Itoa(e.MessageID)
		if r.objectExcluded("customerrors", name) {
			continue
		}
		statuses = append(statuses, r.apply(name, "customerrors",
			func() (bool, error) { return mssql.CustomErrorExists(r.ctx, r.dst, e.MessageID) },
			nil,
			mssql.CustomErrorDropStatement(e.MessageID),
			mssql.CustomErrorCreateStrategies(e)))
	}
	return statuses
}

func (r *runner) migrateCredentials(creds []mssql.Credential) []models.OperationStatus {
	var statuses []models.OperationStatus
	for _, c := range creds {
		c := c
		if r.objectExcluded("credentials", c.Name) {
			continue
		}
		st := r.apply(c.Name, "credentials",
			func() (bool, error) { return mssql.CredentialExists(r.ctx, r.dst, c.Name) },
			nil,
			mssql.CredentialDropStatement(c.Name),
			mssql.CredentialCreateStrategies(c))
		if st.Status == models.StatusSuccessful {
			st.Notes = "created with empty secret; set the secret manually"
		}
		statuses = append(statuses, st)
	}
	return statuses
}

func (r *runner) migrateBackupDevices(devices []mssql.BackupDevice) []models.OperationStatus {
	var statuses []models.OperationStatus
	for _, d := range devices {
		d := d
		if r.objectExcluded("backupdevices", d.Name) {
			continue
		}
		statuses = append(statuses, r.apply(d.Name, "backupdevices",
			func() (bool, error) { return mssql.BackupDeviceExists(r.ctx, r.dst, d.Name) },
			nil,
			mssql.BackupDeviceDropStatement(d.Name),
			mssql.BackupDeviceCreateStrategies(d)))
	}
	return statuses
}

// migrateDBMail copies accounts first, then profiles. A profile referencing
// an account that is absent on the destination is Skipped before anything is
// created, so no partial profile is ever left behind.
func (r *runner) migrateDBMail(accounts []mssql.MailAccount, profiles []mssql.MailProfile) []models.OperationStatus {
	var statuses []models.OperationStatus
	for _, a := range accounts {
		a := a
		if r.objectExcluded("dbmail", a.Name) {
			continue
		}
		statuses = append(statuses, r.apply(a.Name, "mailaccount",
			func() (bool, error) { return mssql.MailAccountExists(r.ctx, r.dst, a.Name) },
			nil,
			mssql.MailAccountDropStatement(a.Name),
			mssql.MailAccountCreateStrategies(a)))
	}
	for _, p := range profiles {
		p := p
		if r.objectExcluded("dbmail", p.Name) {
			continue
		}
		var deps []dependency
		for _, acct := range p.Accounts {
			acct := acct
			deps = append(deps, dependency{
				desc: "mail account " + acct,
				exists: func() (bool, error) {
					return mssql.MailAccountExists(r.ctx, r.dst, acct)
				},
			})
		}
		statuses = append(statuses, r.apply(p.Name, "mailprofile",
			func() (bool, error) { return mssql.MailProfileExists(r.ctx, r.dst, p.Name) },
			deps,
			mssql.MailProfileDropStatement(p.Name),
			mssql.MailProfileCreateStrategies(p)))
	}
	return statuses
}

func (r *runner) migrateLogins(logins []mssql.Login) []models.OperationStatus {
	var statuses []models.OperationStatus
	for _, l := range logins {
		l := l
		if r.objectExcluded("logins", l.Name) {
			continue
		}
		deps := []dependency{{
			desc: "default database " + l.DefaultDatabase,
			exists: func() (bool, error) {
				return mssql.DatabaseExists(r.ctx, r.dst, l.DefaultDatabase)
			},
		}}
		st := r.apply(l.Name, "logins",
			func() (bool, error) { return mssql.LoginExists(r.ctx, r.dst, l.Name) },
			deps,
			mssql.LoginDropStatement(l.Name),
			mssql.LoginCreateStrategies(l, r.opts.placeholder()))
		if st.Status == models.StatusSuccessful && l.Type == "S" {
			st.Notes = "created with placeholder password; reset before use"
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// migrateAgentJobs copies agent jobs. Missing owner login, step target
// database, step proxy, or notify operator each short-circuit to Skipped with
// the dependency named.
func (r *runner) migrateAgentJobs(jobs []mssql.AgentJob) []models.OperationStatus {
	var statuses []models.OperationStatus
	for _, j := range jobs {
		j := j
		if r.objectExcluded("agentjobs", j.Name) {
			continue
		}
		var deps []dependency
		if j.OwnerLogin != "" {
			owner := j.OwnerLogin
			deps = append(deps, dependency{
				desc: "owner login " + owner,
				exists: func() (bool, error) {
					return mssql.LoginExists(r.ctx, r.dst, owner)
				},
			})
		}
		for _, step := range j.Steps {
			if step.Database != "" {
				db := step.Database
				deps = append(deps, dependency{
					desc: "database " + db,
					exists: func() (bool, error) {
						return mssql.DatabaseExists(r.ctx, r.dst, db)
					},
				})
			}
			if step.ProxyName != "" {
				proxy := step.ProxyName
				deps = append(deps, dependency{
					desc: "proxy " + proxy,
					exists: func() (bool, error) {
						return mssql.ProxyExists(r.ctx, r.dst, proxy)
					},
				})
			}
		}
		if j.OperatorName != "" {
			op := j.OperatorName
			deps = append(deps, dependency{
				desc: "operator " + op,
				exists: func() (bool, error) {
					return mssql.OperatorExists(r.ctx, r.dst, op)
				},
			})
		}
		statuses = append(statuses, r.apply(j.Name, "agentjobs",
			func() (bool, error) { return mssql.AgentJobExists(r.ctx, r.dst, j.Name) },
			deps,
			mssql.AgentJobDropStatement(j.Name),
			mssql.AgentJobCreateStrategies(j)))
	}
	return statuses
}

func (r *runner) migrateLinkedServers(servers []mssql.LinkedServer) []models.OperationStatus {
	var statuses []models.OperationStatus
	for _, ls := range servers {
		ls := ls
		if r.objectExcluded("linkedservers", ls.Name) {
			continue
		}
		st := r.apply(ls.Name, "linkedservers",
			func() (bool, error) { return mssql.LinkedServerExists(r.ctx, r.dst, ls.Name) },
			nil,
			mssql.LinkedServerDropStatement(ls.Name),
			mssql.LinkedServerCreateStrategies(ls))
		if st.Status == models.StatusSuccessful {
			st.Notes = "linked server logins are not migrated; recreate mappings manually"
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// migrateStartupProcs flags destination procedures to run at startup. The
// procedure body itself is part of the database migration, so a procedure
// absent from the destination's master is a missing dependency, not a failure.
func (r *runner) migrateStartupProcs(procs []mssql.StartupProcedure) []models.OperationStatus {
	var statuses []models.OperationStatus
	for _, p := range procs {
		p := p
		name := p.Schema + "." + p.Name
		if r.objectExcluded("startupprocs", name) {
			continue
		}
		found, err := mssql.StartupProcedureExists(r.ctx, r.dst, p.Schema, p.Name)
		if err != nil {
			statuses = append(statuses, r.status(name, "startupprocs", models.StatusFailed,
				"existence check failed: "+err.Error()))
			continue
		}
		if !found {
			statuses = append(statuses, r.status(name, "startupprocs", models.StatusSkipped,
				fmt.Sprintf("depends on procedure %s, which does not exist on destination", name)))
			continue
		}
		if err := r.dst.Exec(r.ctx, mssql.StartupProcedureEnableStatement(p)); err != nil {
			statuses = append(statuses, r.status(name, "startupprocs", models.StatusFailed, err.Error()))
			continue
		}
		statuses = append(statuses, r.status(name, "startupprocs", models.StatusSuccessful, ""))
	}
	return statuses
}
