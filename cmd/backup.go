package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/IAMVanilka/Mnemy/internal/remote"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage server-side backups",
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups stored on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := remote.NewClient()
		backups, err := client.Backups(context.Background())
		if err != nil {
			return err
		}

		if len(backups) == 0 {
			fmt.Println("no backups on the server")
			return nil
		}

		for game, entries := range backups {
			fmt.Printf("%s:\n", game)
			if list, ok := entries.([]any); ok {
				for _, entry := range list {
					fmt.Printf("  %v\n", entry)
				}
			} else {
				fmt.Printf("  %v\n", entries)
			}
		}

		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <game> <backup>",
	Short: "Restore a named backup on the server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := remote.NewClient()
		if err := client.RestoreBackup(context.Background(), args[0], args[1]); err != nil {
			return err
		}

		fmt.Printf("restored %s for %s\n", args[1], args[0])
		fmt.Println("run 'mnemy sync' to pull the restored saves")
		return nil
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <game> <backup>",
	Short: "Delete a named backup on the server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := remote.NewClient()
		err := client.DeleteBackup(context.Background(), args[0], args[1])
		if errors.Is(err, remote.ErrRemoteNotFound) {
			fmt.Printf("backup %s for %s was not on the server\n", args[1], args[0])
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("deleted backup %s for %s\n", args[1], args[0])
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupListCmd, backupRestoreCmd, backupDeleteCmd)
	rootCmd.AddCommand(backupCmd)
}
