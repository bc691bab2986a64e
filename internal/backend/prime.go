package backend

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	mpostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	msqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func (b *Backend) migrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations/"+b.driver)
	if err != nil {
		return nil, err
	}

	var drv database.Driver
	switch b.driver {
	case "postgres":
		drv, err = mpostgres.WithInstance(db, &mpostgres.Config{})
	case "sqlite3":
		drv, err = msqlite3.WithInstance(db, &msqlite3.Config{})
	}
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", src, b.driver, drv)
}

// prime drops whatever is in the target schema and recreates it from the
// bundled migrations. It runs on a dedicated handle, not the serving
// pool: migrate's sqlite3 driver keeps a connection pinned after Drop,
// which would starve a pool capped at one connection.
func (b *Backend) prime() error {
	db, err := sql.Open(b.driver, b.dsn)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer db.Close()

	ctx, cancel := b.opCtx()
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return &ConnectionError{Err: err}
	}

	m, err := b.migrator(db)
	if err != nil {
		return fmt.Errorf("prime: %w", err)
	}
	if err := m.Drop(); err != nil {
		return fmt.Errorf("prime: drop schema: %w", err)
	}

	// Drop removes migrate's own bookkeeping table as well, so rebuild the
	// migrator before applying.
	m, err = b.migrator(db)
	if err != nil {
		return fmt.Errorf("prime: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("prime: apply schema: %w", err)
	}
	return nil
}
