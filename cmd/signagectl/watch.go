package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/signage-backend/internal/client"
	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/platform/envutil"
)

var (
	watchServer       string
	watchSectionQuiet time.Duration
	watchGlobalQuiet  time.Duration
	watchTimeout      time.Duration
	watchReconnect    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow live updates like a display would",
	Long: `Connect to the coordinator's stream, answer heartbeats, and re-fetch
state after each burst of change notifications settles.

Section updates re-read only the touched sections; settings updates
re-read everything.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchServer, "server", envutil.String("SIGNAGE_SERVER", "http://localhost:3000"), "coordinator base URL")
	watchCmd.Flags().DurationVar(&watchSectionQuiet, "section-quiet", client.DefaultSectionQuiet, "quiet period before re-fetching updated sections")
	watchCmd.Flags().DurationVar(&watchGlobalQuiet, "global-quiet", client.DefaultGlobalQuiet, "quiet period before a full re-fetch")
	watchCmd.Flags().DurationVar(&watchTimeout, "liveness-timeout", client.DefaultLivenessTimeout, "reconnect when the server is silent this long")
	watchCmd.Flags().DurationVar(&watchReconnect, "reconnect-delay", client.DefaultReconnectDelay, "delay between reconnect attempts")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	states := client.NewStateClient(watchServer)
	wlog := log.With("server", watchServer)

	refresh := func(ctx context.Context, sections []types.SectionKey, full bool) {
		snap, err := states.Snapshot(ctx)
		if err != nil {
			wlog.Warn("State fetch failed", "error", err)
			return
		}
		if full {
			wlog.Info("Full refresh",
				"materials", len(snap.Materials),
				"groups", len(snap.Groups),
				"assignments", len(snap.Assignments),
				"settings", snap.Settings,
			)
			return
		}
		for _, key := range sections {
			wlog.Info("Section refresh", "section", key, "items", len(client.SectionContent(snap, key)))
		}
	}

	coalescer := client.NewCoalescer(ctx, watchSectionQuiet, watchGlobalQuiet, refresh)
	defer coalescer.Stop()

	onMsg := func(n types.Notification) {
		switch n.Type {
		case types.NotifyWelcome, types.NotifyUserJoined, types.NotifyUserLeft:
			if n.Count != nil {
				wlog.Info("Presence", "type", n.Type, "count", *n.Count)
			}
		case types.NotifyBroadcast:
			wlog.Info("Announcement", "content", n.Content, "style", n.Style)
		default:
			coalescer.Notify(n)
		}
	}

	w := client.NewWatcher(client.WatcherConfig{
		URL:             client.WebSocketURL(watchServer),
		LivenessTimeout: watchTimeout,
		ReconnectDelay:  watchReconnect,
	}, log, onMsg, coalescer.Reset)
	return w.Run(ctx)
}
