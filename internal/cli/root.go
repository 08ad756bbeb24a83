package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/bankerscore/internal/config"
	"github.com/mcoot/bankerscore/internal/factory"
)

var (
	cfg      *Config
	settings *config.Config
	app      *factory.App
	out      *Output
	logger   *slog.Logger
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()
	settings = nil
	app = nil

	rootCmd := &cobra.Command{
		Use:   "bankerscore",
		Short: "Track banker-rotation game scores",
		Long: `bankerscore records a banker-rotation card game: players, rounds,
per-player results against the banker, and running totals.

Games are kept on this device and can be synced to a docstore server so
that other devices see the same registry.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			out = NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			loaded, err := cfg.Settings()
			if err != nil {
				return err
			}
			settings = loaded
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Config file (env: BANKERSCORE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", "", "Local data directory (env: BANKERSCORE_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&cfg.Storage, "storage", "", "Local storage: file, memory, redis (env: BANKERSCORE_STORAGE)")
	rootCmd.PersistentFlags().StringVar(&cfg.User, "user", "", "Your name, used for edit leases (env: BANKERSCORE_USER)")
	rootCmd.PersistentFlags().StringVar(&cfg.RemoteURL, "remote", "", "Docstore URL (env: BANKERSCORE_REMOTE_URL)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&cfg.Sync, "sync", false, "Upload unsynced changes after the command when signed in")

	// Add subcommands
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newRoundCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Run executes the command line in args and then shuts the app down
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil && cfg.Sync && app != nil && app.Sync != nil {
		if _, syncErr := app.Sync.Tick(ctx); syncErr != nil {
			err = fmt.Errorf("sync after command: %w", syncErr)
		}
	}
	if app != nil {
		err = errors.Join(err, app.Close(context.WithoutCancel(ctx)))
		app = nil
	}
	return err
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		NewOutput(outputFormat(), os.Stdout, os.Stderr).PrintError(err)
		os.Exit(1)
	}
}

// requireApp builds and starts the app on first use
func requireApp(cmd *cobra.Command) (*factory.App, error) {
	if app != nil {
		return app, nil
	}

	a, err := factory.New(factory.Config{Client: settings.Client, Logger: logger})
	if err != nil {
		return nil, err
	}
	if err := a.Start(cmd.Context()); err != nil {
		_ = a.Close(cmd.Context())
		return nil, err
	}
	if settings.Client.User != "" && a.Registry.CurrentUser() != settings.Client.User {
		if err := a.Registry.SetCurrentUser(cmd.Context(), settings.Client.User); err != nil {
			_ = a.Close(cmd.Context())
			return nil, err
		}
	}

	app = a
	return app, nil
}

func outputFormat() string {
	if cfg == nil {
		return "text"
	}
	return cfg.Output
}
