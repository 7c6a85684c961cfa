package cmd

import (
	"context"
	"fmt"

	"github.com/IAMVanilka/Mnemy/internal/config"
	"github.com/IAMVanilka/Mnemy/internal/remote"
	"github.com/spf13/cobra"
)

var hostSkipCheck bool

var hostCmd = &cobra.Command{
	Use:   "host [url]",
	Short: "Show or set the backup server host",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if cfg.Host == "" {
				fmt.Println("no host configured")
			} else {
				fmt.Println(cfg.Host)
			}
			return nil
		}

		host := args[0]

		if !hostSkipCheck {
			client := remote.NewClient()
			if !client.CheckHealth(context.Background(), host) {
				return fmt.Errorf("server at %s did not answer the health probe (use --force to save anyway)", host)
			}
		}

		if err := config.SaveHost(host); err != nil {
			return err
		}

		fmt.Printf("host set to %s\n", host)
		return nil
	},
}

func init() {
	hostCmd.Flags().BoolVar(&hostSkipCheck, "force", false, "Save the host without probing it")
	rootCmd.AddCommand(hostCmd)
}
