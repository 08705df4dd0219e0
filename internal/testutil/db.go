package testutil

import (
	"database/sql"
	"testing"

	"github.com/vrsandeep/xwc-settings/internal/assets"
	"github.com/vrsandeep/xwc-settings/internal/db"
)

// SetupTestDB creates an in-memory SQLite database and applies all migrations.
// It returns the database connection, ready for use in tests.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.InitDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	// Attach a cleanup function to automatically close the DB when the test completes.
	t.Cleanup(func() {
		database.Close()
	})

	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	return database
}

// SeedOptions writes name/value pairs straight into the options table.
func SeedOptions(t *testing.T, database *sql.DB, options map[string]string) {
	t.Helper()
	for name, value := range options {
		if _, err := database.Exec("INSERT INTO options (option_name, option_value) VALUES (?, ?)", name, value); err != nil {
			t.Fatalf("Failed to seed option %q: %v", name, err)
		}
	}
}
