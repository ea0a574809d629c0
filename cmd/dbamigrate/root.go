package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sqlops/mssql-workbench/internal/config"
	"github.com/sqlops/mssql-workbench/internal/migration"
	"github.com/sqlops/mssql-workbench/internal/models"
)

var (
	cfgFile        string
	cfgSource      string
	cfgDests       []string
	cfgExclude     []string
	cfgForce       bool
	cfgPreview     bool
	cfgOutput      string
	cfgPlaceholder string
)

var rootCmd = &cobra.Command{
	Use:   "dbamigrate",
	Short: "Migrate server-level objects between SQL Server instances",
	Long: "Exports logins, agent jobs, database mail, custom errors, backup devices, " +
		"linked servers, sp_configure settings and startup procedures from a source " +
		"instance and recreates them on one or more destinations, reporting one " +
		"status record per object per destination.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgSource == "" {
			return errors.New("--source is required (instance name from the config file)")
		}
		if !cfgPreview && len(cfgDests) == 0 {
			return errors.New("--destination is required unless --preview")
		}
		for _, cat := range cfgExclude {
			if !migration.KnownCategory(cat) {
				return fmt.Errorf("unknown category %q (valid: %v)", cat, migration.CategoryOrder)
			}
		}

		cfg, err := loadInstances(cfgFile)
		if err != nil {
			return err
		}

		src := cfg[cfgSource]
		if src == nil {
			return fmt.Errorf("source instance %q not found in config", cfgSource)
		}

		logger := func(line string) { fmt.Println(line) }
		ctx := context.Background()

		if cfgPreview {
			dst := src
			if len(cfgDests) > 0 {
				if dst = cfg[cfgDests[0]]; dst == nil {
					return fmt.Errorf("destination instance %q not found in config", cfgDests[0])
				}
			}
			preview, _, err := migration.Preview(ctx, src, dst, logger)
			if err != nil {
				return err
			}
			return writePreview(os.Stdout, preview, cfgOutput)
		}

		var dsts []*models.Instance
		for _, name := range cfgDests {
			dst := cfg[name]
			if dst == nil {
				return fmt.Errorf("destination instance %q not found in config", name)
			}
			dsts = append(dsts, dst)
		}

		opts := migration.Options{
			Force:               cfgForce,
			ExcludeCategories:   cfgExclude,
			PlaceholderPassword: cfgPlaceholder,
		}
		report, err := migration.RunMany(ctx, src, dsts, opts, logger)
		if err != nil {
			return err
		}
		return writeReport(os.Stdout, report, cfgOutput)
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Path to config file (YAML), same format as the workbench server")
	rootCmd.Flags().StringVar(&cfgSource, "source", "", "Source instance name")
	rootCmd.Flags().StringSliceVar(&cfgDests, "destination", nil, "Destination instance name (repeatable)")
	rootCmd.Flags().StringSliceVar(&cfgExclude, "exclude", nil, "Category to skip (repeatable)")
	rootCmd.Flags().BoolVar(&cfgForce, "force", false, "Drop and recreate objects that already exist on the destination")
	rootCmd.Flags().BoolVar(&cfgPreview, "preview", false, "Export and preflight only; change nothing")
	rootCmd.Flags().StringVar(&cfgOutput, "output", "table", "Report format: table or yaml")
	rootCmd.Flags().StringVar(&cfgPlaceholder, "login-password", "", "Placeholder password for migrated SQL logins")

	viper.SetEnvPrefix("DBAMIGRATE")
	viper.AutomaticEnv()
	viper.BindPFlag("config", rootCmd.Flags().Lookup("config"))
	viper.BindPFlag("source", rootCmd.Flags().Lookup("source"))
	viper.BindPFlag("login-password", rootCmd.Flags().Lookup("login-password"))
}

// loadInstances reads the workbench YAML config and indexes instances by name.
func loadInstances(path string) (map[string]*models.Instance, error) {
	if path == "" {
		path = viper.GetString("config")
	}
	if path == "" {
		return nil, errors.New("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*models.Instance, len(cfg.Instances))
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
		}
		if inst.Name == "" {
			inst.Name = inst.Address()
		}
		byName[inst.Name] = inst
	}
	return byName, nil
}
