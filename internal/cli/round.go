package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/services/settlement"
)

func newRoundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "round",
		Short: "Round commands for the current game",
	}

	cmd.AddCommand(newRoundBankerCmd())
	cmd.AddCommand(newRoundRecordCmd())
	cmd.AddCommand(newRoundNextCmd())
	cmd.AddCommand(newRoundEditCmd())
	cmd.AddCommand(newRoundTableCmd())

	return cmd
}

func newRoundBankerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "banker <player>",
		Short: "Select the banker and open the round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}

			var round int
			err = mutate(cmd, a, func(g *model.GameData) error {
				p, err := findPlayer(g, args[0])
				if err != nil {
					return err
				}
				round = g.CurrentRound
				return a.Settlement.SelectBanker(g, p.ID)
			})
			if err != nil {
				return err
			}
			out.PrintMessage(fmt.Sprintf("Round %d: %s is the banker", round, args[0]))
			return nil
		},
	}
}

func newRoundRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <player> <amount>",
		Short: "Record a player's result against the banker (positive: banker pays)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}

			err = mutate(cmd, a, func(g *model.GameData) error {
				p, err := findPlayer(g, args[0])
				if err != nil {
					return err
				}
				return a.Settlement.ConfirmAmountText(g, p.ID, args[1])
			})
			if err != nil {
				return err
			}
			out.PrintMessage(fmt.Sprintf("Recorded %s for %s", args[1], args[0]))
			return nil
		},
	}

	// Amounts may be negative; stop flag parsing at the first argument
	// so "-4" is not read as a shorthand flag
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func newRoundNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Settle the round and move to the next one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}

			var rotated bool
			err = mutate(cmd, a, func(g *model.GameData) error {
				var err error
				rotated, err = a.Settlement.NextRound(g)
				return err
			})
			if err != nil {
				return err
			}

			if rotated {
				out.PrintMessage("Round settled. The banker's stint is over; select a new banker.")
			} else {
				out.PrintMessage("Round settled. The banker continues.")
			}
			return nil
		},
	}
}

func newRoundEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <round> <player> <amount>",
		Short: "Correct a recorded result and recompute totals",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}
			roundNumber, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: round must be a number", model.ErrValidation)
			}
			amount, err := settlement.ParseAmount(args[2])
			if err != nil {
				return err
			}

			err = mutate(cmd, a, func(g *model.GameData) error {
				p, err := findAnyPlayer(g, args[1])
				if err != nil {
					return err
				}
				return a.Settlement.EditRecord(g, roundNumber, p.ID, amount)
			})
			if err != nil {
				return err
			}
			out.PrintMessage(fmt.Sprintf("Round %d: %s now %+d", roundNumber, args[1], amount))
			return nil
		},
	}

	// Amounts may be negative; stop flag parsing at the first argument
	// so "-4" is not read as a shorthand flag
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func newRoundTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Show every round's results",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}

			var table *settlement.Table
			if err := a.Registry.View(func(g *model.GameData) {
				table = a.Settlement.RoundTable(g)
			}); err != nil {
				return err
			}
			out.Print(table)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show standings for the current game",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}
			entry, err := a.Registry.CurrentGame()
			if err != nil {
				return err
			}

			out.Print(Standings{
				Game:    entry.Name,
				Players: a.Settlement.Standings(&entry.Data),
			})
			return nil
		},
	}
}
