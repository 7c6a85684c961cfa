package cmd

import (
	"context"
	"fmt"

	"github.com/IAMVanilka/Mnemy/internal/remote"
	"github.com/spf13/cobra"
)

var (
	coverOut   string
	coverSteam bool
)

var gameServerListCmd = &cobra.Command{
	Use:   "server-list",
	Short: "List the games the server knows about",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := remote.NewClient()
		games, err := client.GamesData(context.Background())
		if err != nil {
			return err
		}

		if len(games) == 0 {
			fmt.Println("server knows no games")
			return nil
		}

		for _, game := range games {
			if name, ok := game["game_name"]; ok {
				fmt.Println(name)
			}
		}

		return nil
	},
}

var gameCoverCmd = &cobra.Command{
	Use:   "cover <name>",
	Short: "Download a game's cover image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		out := coverOut
		if out == "" {
			out = name + ".jpg"
		}

		client := remote.NewClient()
		ctx := context.Background()

		if coverSteam {
			url, err := client.SteamCoverURL(ctx, name)
			if err != nil {
				return err
			}

			fmt.Println(url)
			return nil
		}

		if err := client.DownloadImage(ctx, name, out); err != nil {
			return err
		}

		fmt.Printf("saved cover to %s\n", out)
		return nil
	},
}

func init() {
	gameCoverCmd.Flags().StringVar(&coverOut, "out", "", "Output file (default <name>.jpg)")
	gameCoverCmd.Flags().BoolVar(&coverSteam, "steam", false, "Print the Steam store cover URL instead of downloading from the server")

	gameCmd.AddCommand(gameServerListCmd, gameCoverCmd)
}
