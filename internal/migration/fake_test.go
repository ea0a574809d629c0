package migration

import (
	"context"
	"errors"
	"strings"

	"github.com/sqlops/mssql-workbench/internal/mssql"
)

// scalarStub answers one existence-style query: matched by query substring
// and, when arg is non-nil, by the first argument.
type scalarStub struct {
	querySub string
	arg      interface{}
	result   string
}

// fakeSession is an in-memory Session for executor tests. Queries are routed
// by substring; executed statements are recorded in order.
type fakeSession struct {
	info      mssql.ServerInfo
	queryRows map[string][]mssql.Row // query substring → rows
	scalars   []scalarStub
	execErrs  map[string]error // statement substring → error
	execs     []string
}

func newFakeSession(name string) *fakeSession {
	return &fakeSession{
		info:      mssql.ServerInfo{Name: name, Version: "15.0.2000.5", Edition: "Developer Edition"},
		queryRows: make(map[string][]mssql.Row),
		execErrs:  make(map[string]error),
	}
}

func (f *fakeSession) Info() mssql.ServerInfo { return f.info }

func (f *fakeSession) QueryMaps(_ context.Context, query string, _ ...interface{}) ([]mssql.Row, error) {
	for sub, rows := range f.queryRows {
		if strings.Contains(query, sub) {
			return rows, nil
		}
	}
	return nil, nil
}

func (f *fakeSession) ScalarString(_ context.Context, query string, args ...interface{}) (string, error) {
	for _, stub := range f.scalars {
		if !strings.Contains(query, stub.querySub) {
			continue
		}
		if stub.arg != nil && (len(args) == 0 || args[0] != stub.arg) {
			continue
		}
		return stub.result, nil
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

// stubExists registers an existence answer for a catalog table and object name.
func (f *fakeSession) stubExists(tableSub string, name interface{}, exists bool) {
	result := ""
	if exists {
		if s, ok := name.(string); ok {
			result = s
		} else {
			result = "found"
		}
	}
	f.scalars = append(f.scalars, scalarStub{querySub: tableSub, arg: name, result: result})
}

// execsMatching returns executed statements containing the substring.
func (f *fakeSession) execsMatching(sub string) []string {
	var out []string
	for _, stmt := range f.execs {
		if strings.Contains(stmt, sub) {
			out = append(out, stmt)
		}
	}
	return out
}

var errBoom = errors.New("boom")

func discard(string) {}

// databaseRows builds sys.databases rows for the enumerator.
func databaseRows(names ...string) []mssql.Row {
	rows := make([]mssql.Row, 0, len(names))
	for _, n := range names {
		rows = append(rows, mssql.Row{
			"name":               n,
			"state_desc":         "ONLINE",
			"source_database_id": nil,
			"is_read_only":       false,
		})
	}
	return rows
}
