package util

import (
	"database/sql"
)

// StringToNullString converts a string to sql.NullString.
// An empty string is treated as NULL.
func StringToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// BoolToNumber maps a bool onto an Oracle NUMBER(1) flag.
func BoolToNumber(b bool) int {
	if b {
		return 1
	}
	return 0
}
