package migration

import (
	"context"
	"testing"

	"github.com/sqlops/mssql-workbench/internal/models"
	"github.com/sqlops/mssql-workbench/internal/mssql"
)

// withResolver swaps the session resolver for the duration of a test.
func withResolver(t *testing.T, fn func(context.Context, *models.Instance) (mssql.Session, func() error, error)) {
	t.Helper()
	orig := resolver
	resolver = fn
	t.Cleanup(func() { resolver = orig })
}

func sourceWithCustomError() *fakeSession {
	src := newFakeSession("SRVA")
	src.queryRows["sys.messages m"] = []mssql.Row{
		{"message_id": int64(50001), "language": "us_english", "severity": int64(16), "text": "oops", "is_event_logged": false},
	}
	return src
}

// A destination that refuses connections gets one Failed record and the
// remaining destinations are still migrated.
func TestRunMany_DestinationFailureIsolated(t *testing.T) {
	src := &models.Instance{Name: "SRVA", Host: "srva"}
	good1 := &models.Instance{Name: "SRVB", Host: "srvb"}
	bad := &models.Instance{Name: "SRVC", Host: "srvc"}
	good2 := &models.Instance{Name: "SRVD", Host: "srvd"}

	srcSess := sourceWithCustomError()
	dstSessions := map[string]*fakeSession{
		"SRVB": newFakeSession("SRVB"),
		"SRVD": newFakeSession("SRVD"),
	}
	withResolver(t, func(_ context.Context, inst *models.Instance) (mssql.Session, func() error, error) {
		if inst.Name == "SRVA" {
			return srcSess, func() error { return nil }, nil
		}
		if inst.Name == "SRVC" {
			return nil, nil, mssql.ErrUnreachable
		}
		return dstSessions[inst.Name], func() error { return nil }, nil
	})

	report, err := RunMany(context.Background(), src, []*models.Instance{good1, bad, good2}, Options{}, discard)
	if err != nil {
		t.Fatalf("RunMany: %v", err)
	}

	// one custom error per reachable destination, one connection failure
	if len(report.Statuses) != 3 {
		t.Fatalf("got %d statuses, want 3: %+v", len(report.Statuses), report.Statuses)
	}
	var failed, successful int
	for _, st := range report.Statuses {
		switch st.Status {
		case models.StatusFailed:
			failed++
			if st.Type != "connection" {
				t.Errorf("failure record type = %q, want connection", st.Type)
			}
		case models.StatusSuccessful:
			successful++
		}
	}
	if failed != 1 || successful != 2 {
		t.Errorf("failed=%d successful=%d, want 1 and 2", failed, successful)
	}
	for name, sess := range dstSessions {
		if len(sess.execsMatching("sp_addmessage")) != 1 {
			t.Errorf("%s: custom error was not created: %v", name, sess.execs)
		}
	}
}

// A source connection failure aborts the whole run before any destination is
// touched.
func TestRunMany_SourceFailure(t *testing.T) {
	var dialedDest bool
	withResolver(t, func(_ context.Context, inst *models.Instance) (mssql.Session, func() error, error) {
		if inst.Name == "SRVA" {
			return nil, nil, mssql.ErrAuth
		}
		dialedDest = true
		return newFakeSession(inst.Name), func() error { return nil }, nil
	})

	src := &models.Instance{Name: "SRVA", Host: "srva"}
	dst := &models.Instance{Name: "SRVB", Host: "srvb"}
	_, err := RunMany(context.Background(), src, []*models.Instance{dst}, Options{}, discard)
	if err == nil {
		t.Fatal("expected error for unreachable source")
	}
	if dialedDest {
		t.Error("destination was dialed despite source failure")
	}
}

// Preview classifies exported objects against the destination and carries
// the credential and login password warnings.
func TestPreview(t *testing.T) {
	srcSess := sourceWithCustomError()
	srcSess.queryRows["sys.credentials"] = []mssql.Row{
		{"name": "cred1", "credential_identity": "svc"},
	}
	srcSess.queryRows["sys.server_principals sp"] = []mssql.Row{
		{"name": "appuser", "type": "S", "default_database_name": "app1",
			"default_language_name": "us_english", "is_disabled": false,
			"is_policy_checked": true, "is_expiration_checked": false},
	}

	dstSess := newFakeSession("SRVB")
	dstSess.stubExists("sys.messages", 50001, true)
	dstSess.stubExists("sys.credentials", "cred1", false)
	dstSess.stubExists("server_principals", "appuser", false)

	withResolver(t, func(_ context.Context, inst *models.Instance) (mssql.Session, func() error, error) {
		if inst.Name == "SRVA" {
			return srcSess, func() error { return nil }, nil
		}
		return dstSess, func() error { return nil }, nil
	})

	src := &models.Instance{ID: "id-a", Name: "SRVA", Host: "srva"}
	dst := &models.Instance{ID: "id-b", Name: "SRVB", Host: "srvb"}
	preview, data, err := Preview(context.Background(), src, dst, discard)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if data.SourceName != "SRVA" {
		t.Errorf("SourceName = %q", data.SourceName)
	}
	if preview.SourceID != "id-a" || preview.DestinationID != "id-b" {
		t.Errorf("preview not stamped with instance ids: %+v", preview)
	}

	actions := make(map[string]string)
	for _, objs := range preview.Objects {
		for _, obj := range objs {
			actions[obj.Name] = obj.Action
		}
	}
	if actions["50001"] != "skip_exists" {
		t.Errorf("existing message action = %q, want skip_exists", actions["50001"])
	}
	if actions["cred1"] != "create" || actions["appuser"] != "create" {
		t.Errorf("missing objects not classified create: %v", actions)
	}
	if len(preview.Warnings) != 2 {
		t.Errorf("got %d warnings, want credential + login password warnings: %v",
			len(preview.Warnings), preview.Warnings)
	}
}
