package mssql

import "testing"

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"14.0", "14.0", 0},
		{"14.0", "14.0.2027", -1},
		{"14.0.2027", "14.0", 1},
		{"15.0.2000.5", "14.0.3456.2", 1},
		{"13.0.5026", "13.0.5026", 0},
		{"2.10", "2.9", 1},
		{"", "14.0", -1},
	}
	for _, tt := range tests {
		if got := CompareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		version, min string
		want         bool
	}{
		{"15.0.2000.5", "13.0", true},
		{"12.0.6024", "13.0", false},
		{"13.0", "13.0", true},
		{"", "13.0", true}, // unknown versions pass
		{"15.0", "", true},
	}
	for _, tt := range tests {
		if got := VersionAtLeast(tt.version, tt.min); got != tt.want {
			t.Errorf("VersionAtLeast(%q, %q) = %v, want %v", tt.version, tt.min, got, tt.want)
		}
	}
}

func TestMajorVersion(t *testing.T) {
	tests := []struct {
		version string
		want    int
	}{
		{"15.0.2000.5", 15},
		{"13.0", 13},
		{"garbage", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := MajorVersion(tt.version); got != tt.want {
			t.Errorf("MajorVersion(%q) = %d, want %d", tt.version, got, tt.want)
		}
	}
}

func TestQueryStoreCapabilitiesFor(t *testing.T) {
	tests := []struct {
		version string
		want    QueryStoreCapabilities
	}{
		{"11.0.7001", QueryStoreCapabilities{}},
		{"13.0.5026", QueryStoreCapabilities{Supported: true, SupportsPerDBMaxPlans: true}},
		{"14.0.3456", QueryStoreCapabilities{Supported: true, SupportsWaitStats: true, SupportsPerDBMaxPlans: true}},
		{"15.0.2000", QueryStoreCapabilities{Supported: true, SupportsWaitStats: true, SupportsCustomCapture: true, SupportsPerDBMaxPlans: true}},
		{"16.0.1000", QueryStoreCapabilities{Supported: true, SupportsWaitStats: true, SupportsCustomCapture: true, SupportsPerDBMaxPlans: true}},
	}
	for _, tt := range tests {
		if got := QueryStoreCapabilitiesFor(tt.version); got != tt.want {
			t.Errorf("QueryStoreCapabilitiesFor(%q) = %+v, want %+v", tt.version, got, tt.want)
		}
	}
}
