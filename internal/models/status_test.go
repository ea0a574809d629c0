package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewStatus(t *testing.T) {
	before := time.Now()
	st := NewStatus("SRVA", "SRVB", "appuser", "logins", StatusSkipped, "Already exists on destination")

	if st.SourceServer != "SRVA" || st.DestinationServer != "SRVB" {
		t.Errorf("servers = %q -> %q", st.SourceServer, st.DestinationServer)
	}
	if st.Status != StatusSkipped {
		t.Errorf("status = %q", st.Status)
	}
	if st.DateTime.Before(before) {
		t.Error("DateTime not stamped at creation")
	}
}

func TestStatusJSONShape(t *testing.T) {
	st := NewStatus("SRVA", "SRVB", "appuser", "logins", StatusSuccessful, "")
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"source_server", "destination_server", "name", "type", "status", "datetime"} {
		if _, ok := m[key]; !ok {
			t.Errorf("marshalled status missing %q: %s", key, raw)
		}
	}
	if _, ok := m["notes"]; ok {
		t.Errorf("empty notes must be omitted: %s", raw)
	}
}

func TestReportAppendAndCounts(t *testing.T) {
	r := &Report{}
	r.Append(
		NewStatus("a", "b", "one", "logins", StatusSuccessful, ""),
		NewStatus("a", "b", "two", "logins", StatusSkipped, ""),
	)
	r.Append(NewStatus("a", "b", "three", "agentjobs", StatusSkipped, ""))
	r.Warn("something to know")

	if len(r.Statuses) != 3 {
		t.Fatalf("statuses = %d", len(r.Statuses))
	}
	if r.Statuses[0].Name != "one" || r.Statuses[2].Name != "three" {
		t.Error("append did not preserve order")
	}

	counts := r.Counts()
	if counts[StatusSuccessful] != 1 || counts[StatusSkipped] != 2 {
		t.Errorf("counts = %v", counts)
	}
	if len(r.Warnings) != 1 {
		t.Errorf("warnings = %v", r.Warnings)
	}
}
