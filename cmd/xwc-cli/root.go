package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/vrsandeep/xwc-settings/internal/config"
	"github.com/vrsandeep/xwc-settings/internal/core"
	"github.com/vrsandeep/xwc-settings/internal/logger"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	debug      bool
)

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default ./config.yml)")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "xwc-cli",
		Short:         "Inspect and edit the settings stored in the options table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addRootFlags(cmd)

	cmd.AddCommand(
		newDumpCmd(),
		newGetCmd(),
		newHasCmd(),
		newOptionsCmd(),
		newImportCmd(),
		newDeleteCmd(),
	)
	return cmd
}

// openApp loads the configuration and builds the application the commands
// work on. The caller closes it.
func openApp(cmd *cobra.Command) (*core.App, error) {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	level := "warn"
	if debug {
		level = zerolog.LevelDebugValue
	}
	log := logger.Console(level)
	logger.SetGlobal(log)

	app, err := core.New(logger.WithContext(cmd.Context(), log), cfg, log)
	if err != nil {
		return nil, errors.Errorf("opening settings: %w", err)
	}
	return app, nil
}
