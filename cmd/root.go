package cmd

import (
	"fmt"
	"os"

	"github.com/IAMVanilka/Mnemy/internal/config"
	"github.com/IAMVanilka/Mnemy/internal/db"
	"github.com/IAMVanilka/Mnemy/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfg   *config.Config
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "mnemy",
	Short: "Keep game saves synchronized with a remote backup server",
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

		// Commands that never touch the metadata store.
		noDBCmds := map[string]bool{
			"status": true, "stop": true, "install": true,
			"uninstall": true, "login": true, "logout": true,
			"host": true,
		}
		if !noDBCmds[cmd.Name()] {
			if err := db.Init(cfg.DBPath); err != nil {
				return err
			}
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", cfg.DaemonPort, path)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
