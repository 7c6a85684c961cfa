package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/IAMVanilka/Mnemy/internal/logger"
	"github.com/IAMVanilka/Mnemy/internal/remote"
	"github.com/IAMVanilka/Mnemy/internal/repository"
	"github.com/IAMVanilka/Mnemy/internal/syncer"
	"github.com/spf13/cobra"
)

var (
	syncPush bool
	syncPull bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [game]",
	Short: "Sync one game's saves with the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()
		name := args[0]

		if syncPush && syncPull {
			return fmt.Errorf("--push and --pull are mutually exclusive")
		}

		repo := repository.NewGameRepository()
		s := syncer.New(repo, remote.NewClient())
		ctx := context.Background()

		var (
			outcome syncer.Outcome
			err     error
		)

		switch {
		case syncPush:
			outcome, err = s.Push(ctx, name)
		case syncPull:
			outcome, err = s.Pull(ctx, name)
		default:
			outcome, err = s.Sync(ctx, name)
		}

		if errors.Is(err, syncer.ErrFirstSync) {
			fmt.Printf("%s has never been synced.\n", name)
			fmt.Println("Decide explicitly:")
			fmt.Printf("  mnemy sync %s --push   upload local saves, creating the remote copy\n", name)
			fmt.Printf("  mnemy sync %s --pull   download remote saves, discarding local ones\n", name)
			return err
		}
		if err != nil {
			return err
		}

		switch outcome.Direction {
		case syncer.DirectionUpload:
			fmt.Printf("done: uploaded %d file(s)\n", outcome.Files)
		case syncer.DirectionDownload:
			fmt.Println("done: pulled full remote copy")
		default:
			fmt.Println("done: nothing to sync")
		}

		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncPush, "push", false, "Resolve a first sync by uploading local saves")
	syncCmd.Flags().BoolVar(&syncPull, "pull", false, "Resolve a first sync by downloading remote saves")
	rootCmd.AddCommand(syncCmd)
}
