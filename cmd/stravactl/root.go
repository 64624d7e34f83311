package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pacelink.app/relay/common/logger"
	"pacelink.app/relay/core/config"
	"pacelink.app/relay/internal/service"
	"pacelink.app/relay/internal/store"
)

var (
	cfg        config.Config
	services   *service.Services
	closeStore func()
)

var rootCmd = &cobra.Command{
	Use:   "stravactl",
	Short: "Manage the Strava relay from the command line",
	Long: `stravactl talks to Strava with the relay's configuration and credential
store. It creates, lists and deletes the push subscription and shows or
refreshes the stored token pair.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(config.ServiceTypeCLI)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger.Setup(cfg)

		tokens, closeFn, err := store.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		closeStore = closeFn
		services = service.NewServices(cfg, tokens, nil)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeStore != nil {
			closeStore()
		}
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
