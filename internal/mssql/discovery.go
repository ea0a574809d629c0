package mssql

import (
	"strconv"
	"strings"
)

// CompareVersions performs a simple dotted-version comparison.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
// Handles partial versions (e.g. "14.0" vs "14.0.2027").
func CompareVersions(a, b string) int {
	aParts := parseVersionParts(a)
	bParts := parseVersionParts(b)

	maxLen := len(aParts)
	if len(bParts) > maxLen {
		maxLen = len(bParts)
	}

	for i := 0; i < maxLen; i++ {
		var av, bv int
		if i < len(aParts) {
			av = aParts[i]
		}
		if i < len(bParts) {
			bv = bParts[i]
		}
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// VersionAtLeast returns true if version >= min. Unknown versions pass.
func VersionAtLeast(version, min string) bool {
	if version == "" || min == "" {
		return true
	}
	return CompareVersions(version, min) >= 0
}

// MajorVersion extracts the leading component of a product version
// (13 = 2016, 14 = 2017, 15 = 2019, 16 = 2022). Returns 0 when unparseable.
func MajorVersion(version string) int {
	parts := parseVersionParts(version)
	if len(parts) == 0 {
		return 0
	}
	return parts[0]
}

func parseVersionParts(v string) []int {
	parts := strings.Split(v, ".")
	result := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		result = append(result, n)
	}
	return result
}

// QueryStoreCapabilities describes which query-store options a server version
// accepts. Selected once per connection and passed by value, so option
// handling never depends on runtime property probing.
type QueryStoreCapabilities struct {
	Supported             bool // query store exists at all (2016+)
	SupportsWaitStats     bool // WAIT_STATS_CAPTURE_MODE (2017+)
	SupportsCustomCapture bool // QUERY_CAPTURE_POLICY (2019+)
	SupportsPerDBMaxPlans bool // MAX_PLANS_PER_QUERY (2016+)
}

// QueryStoreCapabilitiesFor maps a product version onto the option surface it
// supports.
func QueryStoreCapabilitiesFor(version string) QueryStoreCapabilities {
	major := MajorVersion(version)
	return QueryStoreCapabilities{
		Supported:             major >= 13,
		SupportsWaitStats:     major >= 14,
		SupportsCustomCapture: major >= 15,
		SupportsPerDBMaxPlans: major >= 13,
	}
}
