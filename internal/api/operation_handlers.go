package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sqlops/mssql-workbench/internal/migration"
	"github.com/sqlops/mssql-workbench/internal/mssql"
	"github.com/sqlops/mssql-workbench/internal/ops"
	"github.com/sqlops/mssql-workbench/internal/remote"
)

// RunSnapshots creates snapshots of the selected databases, async.
func (s *Server) RunSnapshots(w http.ResponseWriter, r *http.Request) {
	inst := s.Instances.Get(chi.URLParam(r, "id"))
	if inst == nil {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}

	var opts ops.SnapshotOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	job := s.Jobs.Create("snapshot-create", inst.ID)
	go func() {
		ctx := context.Background()
		client, err := mssql.Connect(ctx, inst)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		defer client.Close()

		job.AppendLog("Creating snapshots on " + client.Info().Name)
		report, err := ops.CreateSnapshots(ctx, client, opts, job.AppendLog)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		job.SetReport(report)
		job.Complete()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// RunQueryStoreCopy copies query-store options from a source database on a
// source instance to selected databases on this instance, async.
func (s *Server) RunQueryStoreCopy(w http.ResponseWriter, r *http.Request) {
	dst := s.Instances.Get(chi.URLParam(r, "id"))
	if dst == nil {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}

	var req struct {
		SourceID       string             `json:"source_id"`
		SourceDatabase string             `json:"source_database"`
		Selector       migration.Selector `json:"selector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	src := s.Instances.Get(req.SourceID)
	if src == nil {
		writeError(w, http.StatusNotFound, "source instance not found")
		return
	}
	if req.SourceDatabase == "" {
		writeError(w, http.StatusBadRequest, "source_database is required")
		return
	}
	if !req.Selector.All && len(req.Selector.Include) == 0 && len(req.Selector.Exclude) == 0 {
		writeError(w, http.StatusBadRequest, migration.ErrNoFilter.Error())
		return
	}

	job := s.Jobs.Create("querystore-copy", dst.ID)
	go func() {
		ctx := context.Background()
		srcClient, err := mssql.Connect(ctx, src)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		defer srcClient.Close()
		dstClient, err := mssql.Connect(ctx, dst)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		defer dstClient.Close()

		job.AppendLog("Copying query store options from " + srcClient.Info().Name +
			"." + req.SourceDatabase + " to " + dstClient.Info().Name)
		report, err := ops.CopyQueryStoreOptions(ctx, srcClient, req.SourceDatabase,
			dstClient, req.Selector, job.AppendLog)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		job.SetReport(report)
		job.Complete()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// RunFirewall reconciles the instance's firewall rules over SSH, async.
func (s *Server) RunFirewall(w http.ResponseWriter, r *http.Request) {
	inst := s.Instances.Get(chi.URLParam(r, "id"))
	if inst == nil {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}
	if inst.OSUser == "" {
		writeError(w, http.StatusBadRequest, "instance has no OS user configured for SSH access")
		return
	}

	var req struct {
		Force bool `json:"force"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	job := s.Jobs.Create("firewall-apply", inst.ID)
	go func() {
		ctx := context.Background()
		runner, err := remote.Dial(remote.Options{
			Host:           inst.Host,
			User:           inst.OSUser,
			KeyPath:        inst.OSKeyPath,
			KnownHostsPath: inst.OSKnownHosts,
		})
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		defer runner.Close()

		job.AppendLog("Applying firewall rules on " + inst.Host)
		report, err := ops.ApplyFirewallRules(ctx, runner, inst, req.Force, job.AppendLog)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		job.SetReport(report)
		job.Complete()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// RunStartupParams reads, edits and writes back the instance's startup
// parameters over SSH, async.
func (s *Server) RunStartupParams(w http.ResponseWriter, r *http.Request) {
	inst := s.Instances.Get(chi.URLParam(r, "id"))
	if inst == nil {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}
	if inst.OSUser == "" {
		writeError(w, http.StatusBadRequest, "instance has no OS user configured for SSH access")
		return
	}

	var req struct {
		AddTraceFlags    []int `json:"add_trace_flags"`
		RemoveTraceFlags []int `json:"remove_trace_flags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	job := s.Jobs.Create("startupparams-set", inst.ID)
	go func() {
		ctx := context.Background()
		runner, err := remote.Dial(remote.Options{
			Host:           inst.Host,
			User:           inst.OSUser,
			KeyPath:        inst.OSKeyPath,
			KnownHostsPath: inst.OSKnownHosts,
		})
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		defer runner.Close()

		current, err := ops.ReadStartupParameters(ctx, runner, inst.InstanceName)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		desired := current
		for _, tf := range req.AddTraceFlags {
			desired = desired.WithTraceFlag(tf)
		}
		for _, tf := range req.RemoveTraceFlags {
			desired = desired.WithoutTraceFlag(tf)
		}

		job.AppendLog("Setting startup parameters on " + inst.Address())
		report, err := ops.SetStartupParameters(ctx, runner, inst, desired, job.AppendLog)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		job.SetReport(report)
		job.Complete()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}
