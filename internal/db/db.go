package db

import (
	"database/sql"
	"embed"
	"net/http"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
	"github.com/rs/zerolog/log"
	"gitlab.com/tozd/go/errors"

	// Import the sqlite3 driver. The blank import is used because we only
	// need the driver to be registered with database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens a connection to the SQLite database at the specified path
// and ensures the connection is valid.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Errorf("failed to open database: %w", err)
	}

	// An in-memory database only lives as long as its connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Ping the database to verify the connection is alive.
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, errors.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// RunMigrations applies the SQLite migrations found under migrations/sqlite
// in migrationsFS to database.
func RunMigrations(database *sql.DB, migrationsFS embed.FS) error {
	source, err := httpfs.New(http.FS(migrationsFS), "migrations/sqlite")
	if err != nil {
		return errors.Errorf("could not create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(database, &sqlite3.Config{})
	if err != nil {
		return errors.Errorf("could not create sqlite3 migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("httpfs", source, "sqlite3", driver)
	if err != nil {
		return errors.Errorf("failed to create migrate instance: %w", err)
	}

	return up(m)
}

// RunPostgresMigrations applies the migrations under migrations/postgres to
// the database at url (a postgres:// or postgresql:// URL).
func RunPostgresMigrations(url string, migrationsFS embed.FS) error {
	source, err := httpfs.New(http.FS(migrationsFS), "migrations/postgres")
	if err != nil {
		return errors.Errorf("could not create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("httpfs", source, pgxURL(url))
	if err != nil {
		return errors.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	return up(m)
}

func up(m *migrate.Migrate) error {
	log.Info().Msg("Applying database migrations from embedded files...")
	err := m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Errorf("an error occurred while applying migrations: %w", err)
	}

	log.Info().Msg("Migrations applied successfully.")
	return nil
}

// pgxURL rewrites a postgres URL to the scheme of the pgx v5 migration driver.
func pgxURL(url string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(url, scheme) {
			return "pgx5://" + strings.TrimPrefix(url, scheme)
		}
	}
	return url
}
