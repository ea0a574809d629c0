package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sqlops/mssql-workbench/internal/mssql"
)

// ObjectCategory describes a browsable object category on an instance.
type ObjectCategory struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// categoryRegistry lists the browsable categories in display order, each with
// a fetch that reduces catalog rows to names.
var categoryRegistry = []struct {
	ObjectCategory
	fetch func(context.Context, mssql.Session) ([]string, error)
}{
	{ObjectCategory{"databases", "Databases"}, func(ctx context.Context, sess mssql.Session) ([]string, error) {
		dbs, err := mssql.ListDatabases(ctx, sess)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(dbs))
		for _, db := range dbs {
			names = append(names, db.Name)
		}
		return names, nil
	}},
	{ObjectCategory{"logins", "Logins"}, func(ctx context.Context, sess mssql.Session) ([]string, error) {
		logins, err := mssql.ListLogins(ctx, sess)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(logins))
		for _, l := range logins {
			names = append(names, l.Name)
		}
		return names, nil
	}},
	{ObjectCategory{"agentjobs", "Agent Jobs"}, func(ctx context.Context, sess mssql.Session) ([]string, error) {
		jobs, err := mssql.ListAgentJobs(ctx, sess)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(jobs))
		for _, j := range jobs {
			names = append(names, j.Name)
		}
		return names, nil
	}},
	{ObjectCategory{"dbmail", "Database Mail"}, func(ctx context.Context, sess mssql.Session) ([]string, error) {
		profiles, err := mssql.ListMailProfiles(ctx, sess)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(profiles))
		for _, p := range profiles {
			names = append(names, p.Name)
		}
		return names, nil
	}},
	{ObjectCategory{"customerrors", "Custom Errors"}, func(ctx context.Context, sess mssql.Session) ([]string, error) {
		errs, err := mssql.ListCustomErrors(ctx, sess)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(errs))
		for _, e := range errs {
			names = append(names, strconv.Itoa(e.MessageID))
		}
		return names, nil
	}},
	{ObjectCategory{"backupdevices", "Backup Devices"}, func(ctx context.Context, sess mssql.Session) ([]string, error) {
		devices, err := mssql.ListBackupDevices(ctx, sess)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(devices))
		for _, d := range devices {
			names = append(names, d.Name)
		}
		return names, nil
	}},
	{ObjectCategory{"linkedservers", "Linked Servers"}, func(ctx context.Context, sess mssql.Session) ([]string, error) {
		servers, err := mssql.ListLinkedServers(ctx, sess)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(servers))
		for _, ls := range servers {
			names = append(names, ls.Name)
		}
		return names, nil
	}},
	{ObjectCategory{"credentials", "Credentials"}, func(ctx context.Context, sess mssql.Session) ([]string, error) {
		creds, err := mssql.ListCredentials(ctx, sess)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(creds))
		for _, c := range creds {
			names = append(names, c.Name)
		}
		return names, nil
	}},
}

func (s *Server) ListObjectCategories(w http.ResponseWriter, r *http.Request) {
	if s.Instances.Get(chi.URLParam(r, "id")) == nil {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}
	categories := make([]ObjectCategory, 0, len(categoryRegistry))
	for _, c := range categoryRegistry {
		categories = append(categories, c.ObjectCategory)
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) ListObjectsOfCategory(w http.ResponseWriter, r *http.Request) {
	inst := s.Instances.Get(chi.URLParam(r, "id"))
	if inst == nil {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}
	category := chi.URLParam(r, "category")

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	for _, c := range categoryRegistry {
		if c.Name != category {
			continue
		}
		client, err := mssql.Connect(ctx, inst)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		defer client.Close()

		names, err := c.fetch(ctx, client)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"category": category,
			"objects":  names,
		})
		return
	}
	writeError(w, http.StatusNotFound, "unknown category: "+category)
}
