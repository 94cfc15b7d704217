package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yungbote/signage-backend/internal/platform/envutil"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

var (
	log     *logger.Logger
	logMode string
)

var rootCmd = &cobra.Command{
	Use:   "signagectl",
	Short: "Operator tools for the signage coordinator",
	Long: "signagectl follows a running coordinator the way a display does, and\n" +
		"pushes operator announcements through the shared Redis channel.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(logMode)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	_ = godotenv.Load()
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", envutil.String("LOG_MODE", "development"), "logger mode (development|production)")
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(announceCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
