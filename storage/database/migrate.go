package database

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed migrations
var migrations embed.FS

func newMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	engine := db.DriverName()

	src, err := iofs.New(migrations, "migrations/"+engine)
	if err != nil {
		return nil, errors.Wrap(err, "loading migrations")
	}

	var dst database.Driver
	switch engine {
	case EngineSQLite:
		dst, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	case EnginePostgres:
		dst, err = postgres.WithInstance(db.DB, &postgres.Config{})
	default:
		err = errors.Errorf("unsupported database engine %q", engine)
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, engine, dst)
	return m, errors.Wrap(err, "creating migrator")
}

// Migrate applies all pending migrations.
func Migrate(db *sqlx.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// Rollback reverts the last `steps` migrations.
func Rollback(db *sqlx.DB, steps int) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err = m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "rolling back database")
	}
	return nil
}

// Version returns the current migration version, 0 when none was applied.
func Version(db *sqlx.DB) (uint, bool, error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, errors.Wrap(err, "reading migration version")
}
