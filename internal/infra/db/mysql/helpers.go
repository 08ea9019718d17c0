package mysql

import (
	"database/sql"
	"strings"
)

// nullString stores blank optional fields as NULL.
func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
