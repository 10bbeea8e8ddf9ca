package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/slok/opentown/internal/log"
)

//go:embed sql/*.sql
var journalSchema embed.FS

// Apply brings the journal schema of db to the latest version and returns it. The
// database stays open, the caller owns it.
func Apply(db *sql.DB, logger log.Logger) (version uint, err error) {
	if db == nil {
		return 0, fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = log.Noop
	}

	src, err := iofs.New(journalSchema, "sql")
	if err != nil {
		return 0, fmt.Errorf("could not load embedded schema: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warningf("Could not close embedded schema: %s", err)
		}
	}()

	// Closing the migrate instance would close db, only the source is released.
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return 0, fmt.Errorf("could not create driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return 0, fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("could not migrate journal: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("could not get journal version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("journal schema version %d is dirty", version)
	}

	return version, nil
}
