package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/bankerscore/internal/factory"
	"github.com/mcoot/bankerscore/internal/model"
)

var errNoUser = errors.New("no user set; run 'bankerscore user set <name>' or pass --user")

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game registry commands",
	}

	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameSelectCmd())
	cmd.AddCommand(newGameShowCmd())
	cmd.AddCommand(newGameCloseCmd())
	cmd.AddCommand(newGameReleaseCmd())
	cmd.AddCommand(newGameSettingsCmd())
	cmd.AddCommand(newGameExportCmd())

	return cmd
}

func newGameListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List games, most recently modified first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}

			current := model.GameID("")
			if e, err := a.Registry.CurrentGame(); err == nil {
				current = e.ID
			}
			now := a.Clock.Now()

			games := []GameSummary{}
			for _, e := range a.Registry.ListGames() {
				games = append(games, newGameSummary(e, current, now))
			}
			out.Print(games)
			return nil
		},
	}
}

func newGameCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a game and make it current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}
			user, err := requireUser(a)
			if err != nil {
				return err
			}

			entry, err := a.Registry.CreateGame(cmd.Context(), args[0], user)
			if err != nil {
				return err
			}
			out.Print(newGameSummary(entry, entry.ID, a.Clock.Now()))
			return nil
		},
	}
}

func newGameSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <name|id>",
		Short: "Open a game for editing and take its edit lease",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}
			if _, err := requireUser(a); err != nil {
				return err
			}

			entry, err := a.Registry.SelectGame(cmd.Context(), model.GameID(args[0]))
			if errors.Is(err, model.ErrGameNotFound) {
				entry, err = a.Registry.SelectGameByName(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			out.Print(newGameSummary(entry, entry.ID, a.Clock.Now()))
			return nil
		},
	}
}

func newGameShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current game",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}
			view, err := currentView(a)
			if err != nil {
				return err
			}
			out.Print(view)
			return nil
		},
	}
}

func newGameCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Return to the game list without releasing the lease",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}
			a.Registry.Deselect(cmd.Context())
			out.PrintMessage("No game selected")
			return nil
		},
	}
}

func newGameReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Release the edit lease on the current game",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}
			if err := a.Registry.ReleaseCurrent(cmd.Context()); err != nil {
				return err
			}
			out.PrintMessage("Lease released")
			return nil
		},
	}
}

func newGameSettingsCmd() *cobra.Command {
	var bankerRounds int

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change settings of the current game",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}
			err = mutate(cmd, a, func(g *model.GameData) error {
				return a.Settlement.SetBankerRounds(g, bankerRounds)
			})
			if err != nil {
				return err
			}
			out.PrintMessage(fmt.Sprintf("Bankers now serve %d rounds", bankerRounds))
			return nil
		},
	}

	cmd.Flags().IntVar(&bankerRounds, "banker-rounds", model.DefaultBankerRounds, "Rounds each banker serves before rotation")
	_ = cmd.MarkFlagRequired("banker-rounds")

	return cmd
}

func newGameExportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current game as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(cmd)
			if err != nil {
				return err
			}
			entry, err := a.Registry.CurrentGame()
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(entry, "", "  ")
			if err != nil {
				return err
			}
			if file == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(file, append(data, '\n'), 0o644); err != nil {
				return err
			}
			out.PrintMessage("Exported " + entry.Name + " to " + file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Write to this file instead of stdout")

	return cmd
}

func requireUser(a *factory.App) (string, error) {
	user := a.Registry.CurrentUser()
	if user == "" {
		return "", errNoUser
	}
	return user, nil
}

// mutate applies fn to the current game, first retaking the edit lease if
// it lapsed since the game was selected
func mutate(cmd *cobra.Command, a *factory.App, fn func(g *model.GameData) error) error {
	user, err := requireUser(a)
	if err != nil {
		return err
	}
	entry, err := a.Registry.CurrentGame()
	if err != nil {
		return err
	}
	if !entry.Lock.HeldBy(user, a.Clock.Now()) {
		if _, err := a.Registry.SelectGame(cmd.Context(), entry.ID); err != nil {
			return err
		}
	}
	return a.Registry.Mutate(cmd.Context(), fn)
}

func currentView(a *factory.App) (GameView, error) {
	entry, err := a.Registry.CurrentGame()
	if err != nil {
		return GameView{}, err
	}

	g := &entry.Data
	view := GameView{
		Game:         newGameSummary(entry, entry.ID, a.Clock.Now()),
		Started:      g.GameStarted,
		CurrentRound: g.CurrentRound,
		BankerRounds: g.CustomBankerRounds,
		Players:      g.Players,
	}
	if g.CurrentBankerID != nil {
		if banker := g.GetHistoricalPlayer(*g.CurrentBankerID); banker != nil {
			view.Banker = banker.Name
		}
	}
	view.OpenRound = g.OpenRound()
	return view, nil
}
