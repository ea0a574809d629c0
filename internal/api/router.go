package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sqlops/mssql-workbench/internal/models"
)

// Server holds shared state for all API handlers.
type Server struct {
	Instances *models.InstanceStore
	Jobs      *models.JobStore
	Previews  *PreviewStore
}

// NewRouter builds the chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Instances
		r.Post("/instances", s.CreateInstance)
		r.Get("/instances", s.ListInstances)
		r.Put("/instances/{id}", s.UpdateInstance)
		r.Delete("/instances/{id}", s.DeleteInstance)
		r.Post("/instances/{id}/test", s.TestInstance)

		// Object browsing
		r.Get("/instances/{id}/objects", s.ListObjectCategories)
		r.Get("/instances/{id}/objects/{category}", s.ListObjectsOfCategory)

		// One-shot operations (async)
		r.Post("/instances/{id}/snapshots", s.RunSnapshots)
		r.Post("/instances/{id}/querystore/copy", s.RunQueryStoreCopy)
		r.Post("/instances/{id}/firewall", s.RunFirewall)
		r.Post("/instances/{id}/startupparams", s.RunStartupParams)

		// Migration
		r.Post("/migrate/preview", s.MigrationPreviewHandler)
		r.Get("/migrate/preview/{jobId}", s.GetMigrationPreview)
		r.Post("/migrate/run", s.MigrationRunHandler)

		// Jobs
		r.Get("/jobs", s.ListJobs)
		r.Get("/jobs/{id}", s.GetJob)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/jobs/{id}/logs", s.StreamJobLogs)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
