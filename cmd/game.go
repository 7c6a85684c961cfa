package cmd

import (
	"context"
	"fmt"

	"github.com/IAMVanilka/Mnemy/internal/model"
	"github.com/IAMVanilka/Mnemy/internal/remote"
	"github.com/IAMVanilka/Mnemy/internal/repository"
	"github.com/spf13/cobra"
)

var gameCmd = &cobra.Command{
	Use:   "game",
	Short: "Manage tracked games",
}

var (
	gameExePath       string
	gameSavesPath     string
	gameDeleteRemote  bool
	gameDeleteBackups bool
)

var gameAddCmd = &cobra.Command{
	Use:   "add <name> <saves-path>",
	Short: "Track a game",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := repository.NewGameRepository()
		game, err := repo.Add(args[0], args[1], gameExePath)
		if err != nil {
			return err
		}

		fmt.Printf("tracking %s (saves: %s)\n", game.Name, game.SavesPath)
		if game.GamePath == "" {
			fmt.Println("no executable set; the watcher will ignore this game until you run 'mnemy game edit --exe'")
		}
		return nil
	},
}

var gameListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked games",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := repository.NewGameRepository()
		games, err := repo.GetAll()
		if err != nil {
			return err
		}

		if len(games) == 0 {
			fmt.Println("no games tracked, use 'mnemy game add <name> <saves-path>'")
			return nil
		}

		fmt.Printf("%-24s %-36s %-36s %s\n", "NAME", "SAVES", "EXECUTABLE", "LAST SYNC")
		for _, g := range games {
			lastSync := "never"
			if g.LastSyncAt != nil {
				lastSync = g.LastSyncAt.Format("2006-01-02 15:04:05")
			}

			exe := g.GamePath
			if exe == "" {
				exe = "-"
			}

			fmt.Printf("%-24s %-36s %-36s %s\n", g.Name, g.SavesPath, exe, lastSync)
		}

		return nil
	},
}

var gameRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Stop tracking a game, optionally deleting its server data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		repo := repository.NewGameRepository()

		if gameDeleteRemote {
			client := remote.NewClient()
			if err := client.DeleteGame(context.Background(), name, gameDeleteBackups); err != nil {
				return err
			}
			fmt.Printf("deleted %s on the server\n", name)
		}

		if err := repo.Delete(name); err != nil {
			return err
		}

		fmt.Printf("no longer tracking %s\n", name)
		return nil
	},
}

var gameRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a game locally and on the server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldName, newName := args[0], args[1]

		client := remote.NewClient()
		if err := client.RenameGame(context.Background(), oldName, newName); err != nil {
			return err
		}

		repo := repository.NewGameRepository()
		if _, err := repo.Update(oldName, model.GamePatch{Name: &newName}); err != nil {
			return err
		}

		fmt.Printf("renamed %s to %s\n", oldName, newName)
		return nil
	},
}

var gameEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Change a game's saves or executable path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := model.GamePatch{}
		if cmd.Flags().Changed("saves") {
			patch.SavesPath = &gameSavesPath
		}
		if cmd.Flags().Changed("exe") {
			patch.GamePath = &gameExePath
		}
		if patch.SavesPath == nil && patch.GamePath == nil {
			return fmt.Errorf("nothing to change, pass --saves and/or --exe")
		}

		repo := repository.NewGameRepository()
		game, err := repo.Update(args[0], patch)
		if err != nil {
			return err
		}

		fmt.Printf("updated %s (saves: %s, exe: %s)\n", game.Name, game.SavesPath, game.GamePath)
		return nil
	},
}

func init() {
	gameAddCmd.Flags().StringVar(&gameExePath, "exe", "", "Path to the game executable the watcher should monitor")
	gameRemoveCmd.Flags().BoolVar(&gameDeleteRemote, "remote", false, "Also delete the game's data on the server")
	gameRemoveCmd.Flags().BoolVar(&gameDeleteBackups, "backups", false, "With --remote, delete server-side backups too")
	gameEditCmd.Flags().StringVar(&gameSavesPath, "saves", "", "New saves directory")
	gameEditCmd.Flags().StringVar(&gameExePath, "exe", "", "New executable path")

	gameCmd.AddCommand(gameAddCmd, gameListCmd, gameRemoveCmd, gameRenameCmd, gameEditCmd)
	rootCmd.AddCommand(gameCmd)
}
