package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sqlops/mssql-workbench/internal/models"
	"github.com/sqlops/mssql-workbench/internal/mssql"
)

func (s *Server) CreateInstance(w http.ResponseWriter, r *http.Request) {
	var inst models.Instance
	if err := json.NewDecoder(r.Body).Decode(&inst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if inst.Host == "" {
		writeError(w, http.StatusBadRequest, "host is required")
		return
	}
	s.Instances.Create(&inst)
	writeJSON(w, http.StatusCreated, &inst)
}

func (s *Server) ListInstances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Instances.List())
}

func (s *Server) UpdateInstance(w http.ResponseWriter, r *http.Request) {
	var inst models.Instance
	if err := json.NewDecoder(r.Body).Decode(&inst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	inst.ID = chi.URLParam(r, "id")
	if !s.Instances.Update(&inst) {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}
	writeJSON(w, http.StatusOK, &inst)
}

func (s *Server) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	if !s.Instances.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestInstance connects, records health and version, and reports the result.
func (s *Server) TestInstance(w http.ResponseWriter, r *http.Request) {
	inst := s.Instances.Get(chi.URLParam(r, "id"))
	if inst == nil {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	client, err := mssql.Connect(ctx, inst)
	if err != nil {
		pingStatus, authStatus := "error", "unknown"
		if errors.Is(err, mssql.ErrAuth) {
			pingStatus, authStatus = "ok", "error"
		}
		s.Instances.SetHealth(inst.ID, pingStatus, err.Error(), authStatus, err.Error())
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}
	defer client.Close()

	info := client.Info()
	s.Instances.SetHealth(inst.ID, "ok", "", "ok", "")
	s.Instances.SetVersion(inst.ID, info.Version, info.Edition)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"server":  info.Name,
		"version": info.Version,
		"edition": info.Edition,
	})
}
