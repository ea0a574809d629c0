package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/sqlops/mssql-workbench/internal/api"
	"github.com/sqlops/mssql-workbench/internal/config"
	"github.com/sqlops/mssql-workbench/internal/models"
	"github.com/sqlops/mssql-workbench/internal/mssql"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("mssql-workbench %s (commit: %s, built: %s)\n", version, commit, date)
			os.Exit(0)
		}
	}

	cfg := config.Parse()

	server := &api.Server{
		Instances: models.NewInstanceStore(),
		Jobs:      models.NewJobStore(),
		Previews:  api.NewPreviewStore(),
	}

	// Load pre-configured instances from config file
	for _, ic := range cfg.Instances {
		inst := &models.Instance{
			Name:         ic.Name,
			Host:         ic.Host,
			InstanceName: ic.InstanceName,
			Port:         ic.Port,
			Role:         ic.Role,
			Auth:         ic.Auth,
			Username:     ic.Username,
			Password:     ic.Password,
			TrustCert:    ic.TrustCert,
			OSUser:       ic.OSUser,
			OSKeyPath:    ic.OSKeyPath,
			OSKnownHosts: ic.OSKnownHosts,
		}
		if inst.Name == "" {
			inst.Name = inst.Address()
		}
		if inst.Role == "" {
			inst.Role = "destination"
		}
		if inst.Auth == "" {
			inst.Auth = "sql"
		}
		server.Instances.Create(inst)
		fmt.Printf("Loaded instance: %s (%s:%d)\n", inst.Name, inst.Address(), inst.EffectivePort())

		// Verify connectivity and auth early
		checkInstance(server.Instances, inst)
	}

	fmt.Printf("SQL Server Workbench %s starting on %s\n", version, cfg.Listen)
	fmt.Printf("Open http://localhost%s in your browser\n", cfg.Listen)

	if err := http.ListenAndServe(cfg.Listen, api.NewRouter(server)); err != nil {
		log.Fatal(err)
	}
}

// checkInstance connects once, records health and discovered version, and
// prints the outcome. A failure here is informational: the instance stays
// registered and can be retested from the UI.
func checkInstance(store *models.InstanceStore, inst *models.Instance) {
	client, err := mssql.Connect(context.Background(), inst)
	if err != nil {
		fmt.Printf("  CONNECT FAILED: %s: %v\n", inst.Name, err)
		store.SetHealth(inst.ID, "error", err.Error(), "unknown", "")
		return
	}
	defer client.Close()

	info := client.Info()
	fmt.Printf("  CONNECT OK: %s: %s %s\n", inst.Name, info.Name, info.Version)
	store.SetHealth(inst.ID, "ok", "", "ok", "")
	store.SetVersion(inst.ID, info.Version, info.Edition)
}
