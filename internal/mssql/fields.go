package mssql

import "strconv"

// stringVal safely extracts a string column from a row, returning "" if nil.
func stringVal(r Row, col string) string {
	if v, ok := r[col].(string); ok {
		return v
	}
	return ""
}

// intVal safely extracts an integer column from a row.
func intVal(r Row, col string) int {
	return toInt(r[col])
}

// boolVal safely extracts a boolean column from a row. SQL Server bit columns
// may scan as bool or as an integer depending on the query shape.
func boolVal(r Row, col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}
