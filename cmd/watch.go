package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IAMVanilka/Mnemy/internal/daemon"
	"github.com/IAMVanilka/Mnemy/internal/logger"
	"github.com/IAMVanilka/Mnemy/internal/notify"
	"github.com/IAMVanilka/Mnemy/internal/remote"
	"github.com/IAMVanilka/Mnemy/internal/repository"
	"github.com/IAMVanilka/Mnemy/internal/syncer"
	"github.com/IAMVanilka/Mnemy/internal/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the background daemon: watch tracked games and sync on exit",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	repo := repository.NewGameRepository()
	client := remote.NewClient()
	sync := syncer.New(repo, client)
	w := watcher.New(repo, sync, notify.NewDesktop(),
		cfg.StartPollInterval, cfg.ExitPollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Run(ctx)

	srv := daemon.NewServer(w, sync, repo, cfg.DaemonPort)
	srv.Start()

	logger.Log.Info("mnemy daemon started",
		zap.Int("port", cfg.DaemonPort))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Log.Info("shutting down", zap.String("signal", sig.String()))
	case <-srv.StopCh():
		logger.Log.Info("stop requested via API")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
