package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
instances:
  - name: SRVA
    host: srva.corp.local
    role: source
    auth: sql
    username: sa
    password: secret
    trust_cert: true
  - name: SRVB
    host: srvb.corp.local
    instance_name: SALES
    port: 50001
    role: destination
    auth: windows
    os_user: admin
    os_key_path: /home/admin/.ssh/id_ed25519
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Listen != ":9090" {
		t.Errorf("Listen = %q", c.Listen)
	}
	if len(c.Instances) != 2 {
		t.Fatalf("instances = %d", len(c.Instances))
	}

	a := c.Instances[0]
	if a.Name != "SRVA" || a.Auth != "sql" || !a.TrustCert {
		t.Errorf("first instance = %+v", a)
	}
	b := c.Instances[1]
	if b.InstanceName != "SALES" || b.Port != 50001 || b.OSUser != "admin" {
		t.Errorf("second instance = %+v", b)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "instances: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestLoadFilePreservesExplicitListen(t *testing.T) {
	path := writeConfig(t, `listen: ":9090"`)
	c := &Config{Listen: ":7070"}
	if err := c.loadFile(path); err != nil {
		t.Fatal(err)
	}
	if c.Listen != ":7070" {
		t.Errorf("Listen = %q, flag value must win", c.Listen)
	}
}
