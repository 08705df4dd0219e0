// Shared test setup for the app and API server.

package testutil

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/vrsandeep/xwc-settings/internal/api"
	"github.com/vrsandeep/xwc-settings/internal/config"
	"github.com/vrsandeep/xwc-settings/internal/core"
)

// TestConfig returns a valid configuration reading the "xwc" settings page
// group, with plugins loaded from an empty temporary directory.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{Port: 8080, LogLevel: "debug"}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = ":memory:"
	cfg.Database.ValueFormat = "serialized"
	cfg.Settings.Page = "xwc"
	cfg.Plugins.Path = t.TempDir()
	cfg.Admin.Username = "admin"
	return cfg
}

// SetupTestApp builds a core.App on an in-memory database holding seed.
func SetupTestApp(t *testing.T, cfg *config.Config, seed map[string]string) *core.App {
	t.Helper()
	database := SetupTestDB(t)
	SeedOptions(t, database, seed)

	app, err := core.NewWithDB(context.Background(), cfg, database, zerolog.New(zerolog.NewTestWriter(t)))
	if err != nil {
		t.Fatalf("Failed to set up app: %v", err)
	}
	app.Version = "test"
	go app.WsHub().Run()
	return app
}

// SetupTestServer initializes a full core.App and api.Server for integration testing.
func SetupTestServer(t *testing.T, cfg *config.Config, seed map[string]string) (*api.Server, *core.App) {
	t.Helper()
	app := SetupTestApp(t, cfg, seed)
	return api.NewServer(app), app
}
