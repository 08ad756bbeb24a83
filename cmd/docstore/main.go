package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/bankerscore/internal/config"
	"github.com/mcoot/bankerscore/internal/factory"
	"github.com/mcoot/bankerscore/internal/services/accounts"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "docstore",
		Short: "Document store and identity provider for bankerscore sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configFile)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("BANKERSCORE_CONFIG"), "Config file (env: BANKERSCORE_CONFIG)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for a docstore.users password_hash entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := accounts.HashPassword(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	})

	return rootCmd
}

func serve(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	docstore, err := factory.NewDocstore(cfg.Docstore, logger)
	if err != nil {
		logger.Error("failed to create docstore", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := docstore.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	logger.Info("docstore configured",
		slog.String("storage", cfg.Docstore.Storage),
		slog.Int("users", len(cfg.Docstore.Users)),
	)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := docstore.Server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
