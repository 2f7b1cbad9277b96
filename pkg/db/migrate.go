package db

import (
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"

	"resourcedesk/pkg/config"
)

// MigrateConfig applies every pending migration under migrationsPath.
// A bare directory is treated as a file:// source.
func MigrateConfig(migrationsPath string, cfg config.Config) error {
	m, err := migrate.New(sourceURL(migrationsPath), migrationConnString(cfg))
	if err != nil {
		return errors.Wrap(err, "init migrate")
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return errors.Wrap(err, "migrate up")
	}
	return nil
}

// MigrateDown rolls back steps migrations.
func MigrateDown(migrationsPath string, cfg config.Config, steps int) error {
	m, err := migrate.New(sourceURL(migrationsPath), migrationConnString(cfg))
	if err != nil {
		return errors.Wrap(err, "init migrate")
	}
	defer func() { _, _ = m.Close() }()

	if steps <= 0 {
		steps = 1
	}
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrate down")
	}
	return nil
}

func sourceURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}
