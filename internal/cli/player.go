package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/bankerscore/internal/model"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Roster commands for the current game",
	}

	cmd.AddCommand(newPlayerAddCmd())
	cmd.AddCommand(newPlayerRemoveCmd())
	cmd.AddCommand(newPlayerListCmd())
	cmd.AddCommand(newPlayerConfirmCmd())

	return cmd
}

func newPlayerAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>...",
		Short: "Seat one or more players",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}

			var added []model.Player
			err = mutate(cmd, a, func(g *model.GameData) error {
				for _, name := range args {
					p, err := a.Settlement.AddPlayer(g, name)
					if err != nil {
						return err
					}
					added = append(added, *p)
				}
				return nil
			})
			if err != nil {
				return err
			}

			names := make([]string, len(added))
			for i, p := range added {
				names[i] = p.Name
			}
			out.PrintMessage("Added " + strings.Join(names, ", "))
			return nil
		},
	}
}

func newPlayerRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Unseat a player; their history is kept",
		Args:  cobra.ExactArgs(1),
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
				return a.Settlement.RemovePlayer(g, p.ID)
			})
			if err != nil {
				return err
			}
			out.PrintMessage("Removed " + args[0])
			return nil
		},
	}
}

func newPlayerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List seated players",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}

			var players []model.Player
			if err := a.Registry.View(func(g *model.GameData) {
				players = g.Players
			}); err != nil {
				return err
			}

			if cfg.Output == "json" {
				out.Print(players)
				return nil
			}
			for _, p := range players {
				out.PrintMessage(fmt.Sprintf("%d. %s (%+d)", p.ID, p.Name, p.TotalWinLoss))
			}
			return nil
		},
	}
}

func newPlayerConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm",
		Short: "Confirm the roster and start the game",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}
			if err := mutate(cmd, a, a.Settlement.ConfirmPlayers); err != nil {
				return err
			}
			out.PrintMessage("Game started; select a banker with: bankerscore round banker <player>")
			return nil
		},
	}
}

// findPlayer resolves a seated player by name or numeric id
func findPlayer(g *model.GameData, ref string) (*model.Player, error) {
	if p := g.GetPlayerByName(ref); p != nil {
		return p, nil
	}
	if id, err := strconv.Atoi(ref); err == nil {
		if p := g.GetPlayer(model.PlayerID(id)); p != nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", model.ErrPlayerNotFound, ref)
}

// findAnyPlayer also resolves players who have left the table
func findAnyPlayer(g *model.GameData, ref string) (*model.Player, error) {
	if p, err := findPlayer(g, ref); err == nil {
		return p, nil
	}
	if p := g.GetHistoricalPlayerByName(ref); p != nil {
		return p, nil
	}
	if id, err := strconv.Atoi(ref); err == nil {
		if p := g.GetHistoricalPlayer(model.PlayerID(id)); p != nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", model.ErrPlayerNotFound, ref)
}
