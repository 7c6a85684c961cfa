package cmd

import (
	"context"
	"fmt"

	"github.com/IAMVanilka/Mnemy/internal/credstore"
	"github.com/IAMVanilka/Mnemy/internal/remote"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the server API token",
}

var authLoginCmd = &cobra.Command{
	Use:   "login <token>",
	Short: "Store the API token in the OS credential store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := credstore.SaveToken(args[0]); err != nil {
			return err
		}

		fmt.Println("token stored")
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := credstore.ClearToken(); err != nil {
			return err
		}

		fmt.Println("token removed")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Validate the stored token against the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := remote.NewClient()
		ok, err := client.CheckToken(context.Background())
		if err != nil {
			return err
		}

		if ok {
			fmt.Println("token is valid")
		} else {
			fmt.Println("token is invalid")
		}

		return nil
	},
}

func init() {
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
