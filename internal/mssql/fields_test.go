package mssql

import "testing"

func TestFieldHelpers(t *testing.T) {
	row := Row{
		"name":    "master",
		"count":   int64(7),
		"ratio":   3.9,
		"textnum": "42",
		"flag":    true,
		"bitflag": int64(1),
		"offbit":  int64(0),
	}

	if got := stringVal(row, "name"); got != "master" {
		t.Errorf("stringVal = %q", got)
	}
	if got := stringVal(row, "missing"); got != "" {
		t.Errorf("stringVal(missing) = %q, want empty", got)
	}
	if got := intVal(row, "count"); got != 7 {
		t.Errorf("intVal(int64) = %d", got)
	}
	if got := intVal(row, "ratio"); got != 3 {
		t.Errorf("intVal(float64) = %d", got)
	}
	if got := intVal(row, "textnum"); got != 42 {
		t.Errorf("intVal(string) = %d", got)
	}
	if got := intVal(row, "missing"); got != 0 {
		t.Errorf("intVal(missing) = %d, want 0", got)
	}
	if !boolVal(row, "flag") {
		t.Error("boolVal(bool) = false")
	}
	if !boolVal(row, "bitflag") {
		t.Error("boolVal(int64 1) = false")
	}
	if boolVal(row, "offbit") {
		t.Error("boolVal(int64 0) = true")
	}
	if boolVal(row, "missing") {
		t.Error("boolVal(missing) = true")
	}
}
