package database

import "database/sql"

// NewDBWithoutMigrations opens the file as-is so tests can seed old schemas.
func NewDBWithoutMigrations(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path)
}
