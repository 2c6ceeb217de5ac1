package cmd

import (
	"fmt"
	"mapshare/internal/auth"
	"mapshare/internal/config"
	"mapshare/internal/db"
	"mapshare/internal/logger"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg   *config.Config
	debug bool

	registry *auth.Registry
	manager  *auth.Manager
)

var rootCmd = &cobra.Command{
	Use:          "mapshare",
	Short:        "Save map state to cloud storage and share it",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		registry = newRegistry(cfg)

		clientCmds := map[string]bool{
			"status": true, "stop": true,
			"install": true, "uninstall": true,
		}
		if clientCmds[cmd.Name()] && cmd.Parent() == rootCmd {
			return nil
		}

		if err := db.Init(cfg.DBPath); err != nil {
			return err
		}

		store, err := newStore(cfg)
		if err != nil {
			return err
		}

		manager = auth.NewManager(store)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", cfg.Port, path)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
