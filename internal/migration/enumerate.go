package migration

import (
	"context"
	"errors"

	"github.com/juju/collections/set"

	"github.com/sqlops/mssql-workbench/internal/mssql"
)

var (
	// ErrNoFilter means the caller supplied neither an include list, an
	// exclude list, nor the all flag. This is a configuration error: the
	// command stops before touching any destination.
	ErrNoFilter = errors.New("no database filter supplied: specify databases, an exclusion list, or all databases")

	// ErrNoMatch means filtering left nothing to act on. Recoverable: the
	// caller reports it and moves on.
	ErrNoMatch = errors.New("no databases match the supplied filters")
)

// Selector controls which databases an operation acts on.
type Selector struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
	All     bool     `json:"all,omitempty"`
}

func (s Selector) empty() bool {
	return !s.All && len(s.Include) == 0 && len(s.Exclude) == 0
}

// EnumerateDatabases expands a selector into the concrete list of databases to
// operate on. Eligibility is applied first: system databases, snapshots, and
// databases not online are never candidates. Then the include list is
// intersected and the exclude list subtracted; exclusion wins when a name
// appears in both.
func EnumerateDatabases(ctx context.Context, sess mssql.Session, sel Selector) ([]mssql.Database, error) {
	if sel.empty() {
		return nil, ErrNoFilter
	}

	all, err := mssql.ListDatabases(ctx, sess)
	if err != nil {
		return nil, err
	}

	eligible := make([]mssql.Database, 0, len(all))
	names := set.NewStrings()
	for _, db := range all {
		if mssql.IsSystemDatabase(db.Name) || db.IsSnapshot || db.State != "ONLINE" {
			continue
		}
		eligible = append(eligible, db)
		names.Add(db.Name)
	}

	include := set.NewStrings(sel.Include...)
	exclude := set.NewStrings(sel.Exclude...)

	selected := names
	if !sel.All && !include.IsEmpty() {
		selected = selected.Intersection(include)
	}
	selected = selected.Difference(exclude)

	result := make([]mssql.Database, 0, selected.Size())
	for _, db := range eligible {
		if selected.Contains(db.Name) {
			result = append(result, db)
		}
	}
	if len(result) == 0 {
		return nil, ErrNoMatch
	}
	return result, nil
}
