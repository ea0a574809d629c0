package ops

import (
	"context"
	"errors"
	"strings"

	"github.com/sqlops/mssql-workbench/internal/mssql"
)

// fakeSession routes queries by substring, the same shape the migration
// package uses for its executor tests.
type fakeSession struct {
	info      mssql.ServerInfo
	queryRows map[string][]mssql.Row
	scalars   map[string]string // query substring → result
	execErrs  map[string]error
	execs     []string
}

func newFakeSession(name, version string) *fakeSession {
	return &fakeSession{
		info:      mssql.ServerInfo{Name: name, Version: version, Edition: "Developer Edition"},
		queryRows: make(map[string][]mssql.Row),
		scalars:   make(map[string]string),
		execErrs:  make(map[string]error),
	}
}

func (f *fakeSession) Info() mssql.ServerInfo { return f.info }

// QueryMaps routes by the longest matching substring, so a query joining two
// stubbed tables gets the more specific answer.
func (f *fakeSession) QueryMaps(_ context.Context, query string, _ ...interface{}) ([]mssql.Row, error) {
	var best string
	found := false
	for sub := range f.queryRows {
		if strings.Contains(query, sub) && len(sub) > len(best) {
			best = sub
			found = true
		}
	}
	if !found {
		return nil, nil
	}
	return f.queryRows[best], nil
}

func (f *fakeSession) ScalarString(_ context.Context, query string, _ ...interface{}) (string, error) {
	for sub, result := range f.scalars {
		if strings.Contains(query, sub) {
			return result, nil
		}
	}
	return "", nil
}

func (f *fakeSession) Exec(_ context.Context, stmt string, _ ...interface{}) error {
	f.execs = append(f.execs, stmt)
	for sub, err := range f.execErrs {
		if strings.Contains(stmt, sub) {
			return err
		}
	}
	return nil
}

func (f *fakeSession) addDatabases(names ...string) {
	rows := f.queryRows["sys.databases"]
	for _, n := range names {
		rows = append(rows, mssql.Row{
			"name":               n,
			"state_desc":         "ONLINE",
			"source_database_id": nil,
			"is_read_only":       false,
		})
	}
	f.queryRows["sys.databases"] = rows
}

// fakeRunner is an in-memory remote.Runner. Commands matching a failSubs
// entry return that error; everything else returns the canned output.
type fakeRunner struct {
	outputs  map[string]string // command substring → stdout
	failSubs map[string]error
	calls    []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs:  make(map[string]string),
		failSubs: make(map[string]error),
	}
}

func (f *fakeRunner) Run(_ context.Context, command string) (string, error) {
	f.calls = append(f.calls, command)
	for sub, err := range f.failSubs {
		if strings.Contains(command, sub) {
			return "", err
		}
	}
	for sub, out := range f.outputs {
		if strings.Contains(command, sub) {
			return out, nil
		}
	}
	return "", nil
}

func (f *fakeRunner) Close() error { return nil }

func (f *fakeRunner) callsMatching(sub string) []string {
	var out []string
	for _, c := range f.calls {
		if strings.Contains(c, sub) {
			out = append(out, c)
		}
	}
	return out
}

var errDenied = errors.New("access denied")

func discard(string) {}
