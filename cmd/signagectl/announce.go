package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/platform/envutil"
	"github.com/yungbote/signage-backend/internal/realtime/bus"
)

var (
	announceRedisAddr string
	announceChannel   string
	announceStyle     string
)

var announceCmd = &cobra.Command{
	Use:   "announce <message>",
	Short: "Push an announcement banner to every display",
	Long: `Publish an announcement on the Redis channel every coordinator
instance subscribes to. Requires the coordinator to run with REDIS_ADDR.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnnounce,
}

func init() {
	announceCmd.Flags().StringVar(&announceRedisAddr, "redis", envutil.String("REDIS_ADDR", "localhost:6379"), "Redis address")
	announceCmd.Flags().StringVar(&announceChannel, "channel", envutil.String("REDIS_CHANNEL", ""), "announcement channel")
	announceCmd.Flags().StringVar(&announceStyle, "style", types.DefaultAnnouncementStyle, "banner style class")
}

func runAnnounce(cmd *cobra.Command, args []string) error {
	content := strings.TrimSpace(strings.Join(args, " "))
	if content == "" {
		return fmt.Errorf("announcement content is empty")
	}
	ctx := cmd.Context()
	b, err := bus.NewRedisBus(ctx, bus.Config{Addr: announceRedisAddr, Channel: announceChannel}, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Publish(ctx, types.Announcement(content, announceStyle)); err != nil {
		return fmt.Errorf("publish announcement: %w", err)
	}
	log.Info("Announcement published", "content", content, "style", announceStyle)
	return nil
}
