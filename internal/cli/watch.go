package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/bankerscore/internal/model"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep syncing in the foreground and stream sync events",
		Long: `Run auto-sync in the foreground and print sync notifications as
they happen.

Events include:
  - sync_started / sync_succeeded / sync_failed
  - conflict_detected / conflict_resolved
  - remote_merged
  - online / offline
  - signed_in / signed_out

Press Ctrl+C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := requireEngine(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			if !jsonOutput {
				_, _ = fmt.Fprintln(w, "Watching for sync events")
			}
			if engine.Status().SignedIn {
				if _, err := engine.SyncNow(ctx); err != nil {
					// Reported through the event stream as well
					logger.Warn("initial sync failed", slog.String("error", err.Error()))
				}
			}

			events := engine.Events()
			for {
				select {
				case <-ctx.Done():
					if !jsonOutput {
						_, _ = fmt.Fprintln(w, "\nStopped")
					}
					return nil
				case evt := <-events:
					printEvent(w, evt, jsonOutput)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// EventLine is one sync event as printed
type EventLine struct {
	Time    time.Time `json:"time"`
	Event   string    `json:"event"`
	Message string    `json:"message"`
}

func printEvent(w io.Writer, evt model.Event, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(EventLine{
			Time:    evt.Timestamp,
			Event:   string(evt.Type),
			Message: evt.Message,
		})
		_, _ = fmt.Fprintln(w, string(data))
		return
	}

	timestamp := evt.Timestamp.Local().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, evt.Type, evt.Message)
}
