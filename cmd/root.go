package cmd

import (
	"fmt"
	"os"

	"github.com/cactusfleur/afrispiration/internal/catalog"
	"github.com/cactusfleur/afrispiration/internal/config"
	"github.com/cactusfleur/afrispiration/internal/logging"
	"github.com/cactusfleur/afrispiration/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is the state shared by every subcommand once the root command has
// loaded configuration and opened the store.
type app struct {
	configPath string
	over       config.Overrides

	cfg     config.Config
	log     *zap.Logger
	store   store.Store
	catalog *catalog.Catalog
}

func (a *app) setup() error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working dir: %w", err)
	}
	cfg, src, err := config.Load(wd, a.configPath, os.Environ(), a.over)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	if src != "" {
		a.log.Debug("loaded config", zap.String("path", src))
	}

	db, err := store.OpenSQLite(cfg.DB)
	if err != nil {
		return err
	}
	a.store = db
	a.catalog = catalog.New(db,
		catalog.WithLogger(a.log),
		catalog.WithSlugMaxAttempts(cfg.SlugMaxAttempts),
	)
	a.log.Debug("opened store", zap.String("db", cfg.DB))
	return nil
}

func (a *app) teardown() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("close store", zap.Error(err))
		}
		a.store = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func newRoot() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "afri",
		Short:         "Manage the designer, event and editorial directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Commands that never touch the store skip setup.
			if cmd.Annotations["store"] == "none" {
				return nil
			}
			return a.setup()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to config file (default ./"+config.FileName+")")
	root.PersistentFlags().StringVar(&a.over.DB, "db", "", "SQLite database path (overrides config)")
	root.PersistentFlags().StringVar(&a.over.LogLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newEntityCmd(a, designerCommand),
		newEntityCmd(a, eventCommand),
		newEntityCmd(a, postCommand),
		newEntityCmd(a, categoryCommand),
		newContentCmd(a),
		newGeoCmd(a),
		newConfigCmd(a),
	)
	return root, a
}

// Execute runs the root command.
func Execute() {
	root, a := newRoot()
	err := root.Execute()
	a.teardown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
