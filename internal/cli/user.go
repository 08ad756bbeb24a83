package cli

import (
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Local user commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <name>",
		Short: "Set your name for edit leases and change stamps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}
			if err := a.Registry.SetCurrentUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			out.PrintMessage("You are now " + a.Registry.CurrentUser())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show your name",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}
			user, err := requireUser(a)
			if err != nil {
				return err
			}
			out.PrintMessage(user)
			return nil
		},
	})

	return cmd
}
