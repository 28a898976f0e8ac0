package store

import (
	"database/sql"
	"fmt"
)

// NewTestDB migrates sqlDB and wraps it. This is only intended for use in
// tests of packages that depend on the store.
func NewTestDB(sqlDB *sql.DB) (*DB, error) {
	if err := migrate(sqlDB); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &DB{sqlDB}, nil
}
