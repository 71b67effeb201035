package database

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationURL turns a DSN from DSN into a golang-migrate database URL.
// The schema files hold several statements each.
func MigrationURL(dsn string) string {
	return "mysql://" + dsn + "&multiStatements=true"
}

// Migrate applies every pending embedded migration.  An up-to-date schema
// is not an error.
func Migrate(dsn string, log logrus.FieldLogger) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "open embedded migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, MigrationURL(dsn))
	if err != nil {
		return errors.Wrap(err, "init migrate")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.WithFields(logrus.Fields{"source_error": srcErr, "db_error": dbErr}).Warn("closing migrate")
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "apply migrations")
	}
	version, dirty, err := m.Version()
	if err != nil {
		log.WithError(err).Warn("could not read schema version")
		return nil
	}
	if dirty {
		return errors.Errorf("schema version %d is dirty", version)
	}
	log.WithField("version", version).Info("schema up to date")
	return nil
}
