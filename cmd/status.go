package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/IAMVanilka/Mnemy/internal/watcher"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(body io.ReadCloser) {
			_ = body.Close()
		}(resp.Body)

		var result struct {
			Watcher watcher.Snapshot `json:"watcher"`
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		snap := result.Watcher
		fmt.Printf("phase:    %s\n", snap.Phase)
		if snap.Game != "" {
			fmt.Printf("game:     %s (pid %d)\n", snap.Game, snap.PID)
		}
		fmt.Printf("bindings: %d\n", snap.Bindings)
		fmt.Printf("synced:   %d, failed: %d\n", snap.Synced, snap.Failed)
		if snap.LastSync != nil {
			fmt.Printf("last sync: %s\n", snap.LastSync.Format("2006-01-02 15:04:05"))
		}
		if snap.LastError != "" {
			fmt.Printf("last error: %s\n", snap.LastError)
		}
		fmt.Printf("uptime:   %s\n", time.Since(snap.StartedAt).Round(time.Second))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
