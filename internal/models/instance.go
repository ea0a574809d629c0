package models

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
)

// Instance represents a user-configured SQL Server instance.
type Instance struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Host         string `json:"host"`
	InstanceName string `json:"instance_name,omitempty"` // empty for the default instance
	Port         int    `json:"port"`                    // 0 means browse/default (1433)
	Role         string `json:"role"`                    // "source" or "destination"
	Auth         string `json:"auth"`                    // "sql" or "windows"
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	TrustCert    bool   `json:"trust_cert"` // skip server certificate validation

	// SSH access to the host OS, for firewall and startup-parameter work.
	OSUser       string `json:"os_user,omitempty"`
	OSKeyPath    string `json:"os_key_path,omitempty"`
	OSKnownHosts string `json:"os_known_hosts,omitempty"`

	// Filled in by discovery after the first successful connection.
	Version string `json:"version,omitempty"`
	Edition string `json:"edition,omitempty"`

	// Health, updated by connectivity checks.
	PingStatus string `json:"ping_status,omitempty"` // "ok" or "error"
	PingError  string `json:"ping_error,omitempty"`
	AuthStatus string `json:"auth_status,omitempty"` // "ok", "error", "unknown"
	AuthError  string `json:"auth_error,omitempty"`
}

// Address returns the host[\instance] identifier used in status records
// and connection strings.
func (i *Instance) Address() string {
	if i.InstanceName != "" {
		return i.Host + `\` + i.InstanceName
	}
	return i.Host
}

// EffectivePort returns the TCP port to connect to, defaulting to 1433.
func (i *Instance) EffectivePort() int {
	if i.Port != 0 {
		return i.Port
	}
	return 1433
}

// DSN builds the sqlserver connection URL for this instance. Credentials and
// query values are URL-escaped so special characters never corrupt the URL.
func (i *Instance) DSN() string {
	query := url.Values{}
	query.Set("database", "master")
	if i.InstanceName != "" {
		query.Set("instance", i.InstanceName)
	}
	if i.TrustCert {
		query.Set("trustservercertificate", "true")
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(i.Username, i.Password),
		Host:     fmt.Sprintf("%s:%d", i.Host, i.EffectivePort()),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// InstanceStore is an in-memory thread-safe store for instances.
type InstanceStore struct {
	mu        sync.RWMutex
	instances map[string]*Instance
}

// NewInstanceStore creates an empty instance store.
func NewInstanceStore() *InstanceStore {
	return &InstanceStore{instances: make(map[string]*Instance)}
}

// Create adds a new instance, assigning it a UUID.
func (s *InstanceStore) Create(i *Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i.ID = uuid.New().String()
	s.instances[i.ID] = i
}

// Get returns an instance by ID, or nil if not found.
func (s *InstanceStore) Get(id string) *Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instances[id]
}

// List returns all instances.
func (s *InstanceStore) List() []*Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Instance, 0, len(s.instances))
	for _, i := range s.instances {
		result = append(result, i)
	}
	return result
}

// Update replaces an existing instance's settings.
func (s *InstanceStore) Update(i *Instance) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[i.ID]; !ok {
		return false
	}
	s.instances[i.ID] = i
	return true
}

// Delete removes an instance by ID.
func (s *InstanceStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[id]; !ok {
		return false
	}
	delete(s.instances, id)
	return true
}

// SetVersion records the discovered version and edition on an instance.
func (s *InstanceStore) SetVersion(id, version, edition string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.instances[id]; ok {
		if version != "" {
			i.Version = version
		}
		if edition != "" {
			i.Edition = edition
		}
	}
}

// SetHealth records the latest connectivity and auth check results.
func (s *InstanceStore) SetHealth(id, pingStatus, pingError, authStatus, authError string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.instances[id]; ok {
		i.PingStatus = pingStatus
		i.PingError = pingError
		i.AuthStatus = authStatus
		i.AuthError = authError
	}
}
