package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// InstanceConfig represents a pre-configured instance in the config file.
type InstanceConfig struct {
	Name         string `yaml:"name"`
	Host         string `yaml:"host"`
	InstanceName string `yaml:"instance_name"`
	Port         int    `yaml:"port"`
	Role         string `yaml:"role"` // "source" or "destination"
	Auth         string `yaml:"auth"` // "sql" or "windows"
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	TrustCert    bool   `yaml:"trust_cert"`
	OSUser       string `yaml:"os_user"`
	OSKeyPath    string `yaml:"os_key_path"`
	OSKnownHosts string `yaml:"os_known_hosts"`
}

// Config holds all configuration (CLI flags + config file).
type Config struct {
	Listen    string           `yaml:"listen"`
	Instances []InstanceConfig `yaml:"instances"`

	// internal: path to config file (from CLI flag)
	configFile string
}

// Parse reads CLI flags, then overlays config file values.
// CLI flags take precedence over config file values.
func Parse() *Config {
	c := &Config{}
	flag.StringVar(&c.configFile, "config", "", "Path to config file (YAML)")
	flag.StringVar(&c.Listen, "listen", "", "HTTP listen address")
	flag.Parse()

	if c.configFile != "" {
		if err := c.loadFile(c.configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
			os.Exit(1)
		}
	}

	if c.Listen == "" {
		c.Listen = ":8080"
	}

	return c
}

// Load reads a YAML config file without consulting CLI flags. Used by tools
// that share the workbench config format but do their own flag handling.
func Load(path string) (*Config, error) {
	c := &Config{}
	if err := c.loadFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// loadFile reads a YAML config file. Values from the file are only applied
// if the corresponding CLI flag was not explicitly set.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if c.Listen == "" && file.Listen != "" {
		c.Listen = file.Listen
	}

	// Instances always come from the config file
	c.Instances = file.Instances

	return nil
}
