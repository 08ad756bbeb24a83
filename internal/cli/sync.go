package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/bankerscore/internal/services/cloudsync"
	"github.com/mcoot/bankerscore/internal/services/identity"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Cloud sync commands",
		Long: `Sync the game registry with a docstore server.

The whole registry is stored as one document. Downloads merge per game,
keeping whichever copy was modified last. If local edits are more than a
minute ahead of the cloud copy, the download is held as a conflict until
it is resolved with 'sync resolve'.`,
	}

	cmd.AddCommand(newSyncLoginCmd())
	cmd.AddCommand(newSyncLogoutCmd())
	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncPushCmd())
	cmd.AddCommand(newSyncPullCmd())
	cmd.AddCommand(newSyncNowCmd())
	cmd.AddCommand(newSyncResolveCmd())

	return cmd
}

func requireEngine(cmd *cobra.Command) (*cloudsync.Engine, error) {
	a, err := requireApp(cmd)
	if err != nil {
		return nil, err
	}
	return a.SyncEngine()
}

func newSyncLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and pull the cloud registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pass == "" {
				pass = os.Getenv("BANKERSCORE_PASSWORD")
			}
			if user == "" || pass == "" {
				return fmt.Errorf("--username and --password (or BANKERSCORE_PASSWORD) are required")
			}
			engine, err := requireEngine(cmd)
			if err != nil {
				return err
			}

			result, err := engine.Connect(cmd.Context(), identity.Credentials{Username: user, Password: pass})
			if err != nil {
				return err
			}
			out.Print(newSyncReport("login", result))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "username", "", "Account username (required)")
	cmd.Flags().StringVar(&pass, "password", "", "Account password (env: BANKERSCORE_PASSWORD)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newSyncLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and stop syncing",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := requireEngine(cmd)
			if err != nil {
				return err
			}
			if err := engine.Disconnect(cmd.Context()); err != nil {
				return err
			}
			out.PrintMessage("Signed out")
			return nil
		},
	}
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sign-in and sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := requireEngine(cmd)
			if err != nil {
				return err
			}
			out.Print(newSyncStatus(engine.Status()))
			return nil
		},
	}
}

func newSyncPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the registry, replacing the cloud copy",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := requireEngine(cmd)
			if err != nil {
				return err
			}
			if err := engine.Upload(cmd.Context()); err != nil {
				return err
			}
			out.Print(SyncReport{Action: "push", Uploaded: true})
			return nil
		},
	}
}

func newSyncPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Download the cloud registry and merge it",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := requireEngine(cmd)
			if err != nil {
				return err
			}
			result, err := engine.DownloadAndMerge(cmd.Context())
			if err != nil {
				return err
			}
			out.Print(newSyncReport("pull", result))
			return nil
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Upload unsynced changes now",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := requireEngine(cmd)
			if err != nil {
				return err
			}
			result, err := engine.SyncNow(cmd.Context())
			if err != nil {
				return err
			}
			out.Print(newSyncReport("sync", result))
			return nil
		},
	}
}

func newSyncResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "resolve <keep-local|adopt-remote>",
		Short:     "Resolve a sync conflict",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(cloudsync.KeepLocal), string(cloudsync.AdoptRemote)},
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := requireEngine(cmd)
			if err != nil {
				return err
			}
			choice := cloudsync.Resolution(args[0])
			if err := engine.ResolveConflict(cmd.Context(), choice); err != nil {
				return err
			}
			if choice == cloudsync.KeepLocal {
				out.PrintMessage("Kept local games and uploaded them")
			} else {
				out.PrintMessage("Replaced local games with the cloud copy")
			}
			return nil
		},
	}
}
