package settlement

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mcoot/bankerscore/internal/dependencies/clock"
	"github.com/mcoot/bankerscore/internal/model"
)

// Service applies roster and round operations to a game's settlement state.
// It performs no I/O; persistence is the registry's job.
type Service struct {
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a new settlement Service
func New(clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		clock:  clock,
		logger: logger,
	}
}

// AddPlayer seats a player in the active roster. A name matching a former
// participant reactivates that player with their history intact.
func (s *Service) AddPlayer(g *model.GameData, name string) (*model.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.ErrEmptyPlayerName
	}
	if g.GetPlayerByName(name) != nil {
		return nil, fmt.Errorf("%w: %q", model.ErrPlayerNameTaken, name)
	}
	if len(g.Players) >= model.MaxPlayers {
		return nil, model.ErrRosterFull
	}

	var player model.Player
	if former := g.GetHistoricalPlayerByName(name); former != nil {
		player = *former
		s.logger.Info("player rejoined",
			slog.Int("player_id", int(player.ID)),
			slog.String("name", name),
		)
	} else {
		player = model.Player{ID: g.NextPlayerID, Name: name}
		g.NextPlayerID++
		g.AllPlayers = append(g.AllPlayers, player)
		s.logger.Info("player added",
			slog.Int("player_id", int(player.ID)),
			slog.String("name", name),
		)
	}
	g.Players = append(g.Players, player)

	// Joining mid-round adds a pending record unless the newcomer is the banker
	if round := s.openRound(g); round != nil && round.BankerID != player.ID && round.GetRecord(player.ID) == nil {
		round.Records = append(round.Records, model.Record{
			PlayerID:   player.ID,
			PlayerName: player.Name,
		})
	}

	s.touch(g)
	return &player, nil
}

// RemovePlayer removes a player from the active roster. Their all-time
// record and past round records are left untouched.
func (s *Service) RemovePlayer(g *model.GameData, id model.PlayerID) error {
	for i := range g.Players {
		if g.Players[i].ID == id {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			s.touch(g)
			s.logger.Info("player removed", slog.Int("player_id", int(id)))
			return nil
		}
	}
	return model.ErrPlayerNotFound
}

// ConfirmPlayers starts the game once enough players are seated
func (s *Service) ConfirmPlayers(g *model.GameData) error {
	if len(g.Players) < model.MinPlayers {
		return model.ErrInsufficientPlayers
	}
	g.GameStarted = true
	s.touch(g)
	return nil
}

// SelectBanker opens the round at CurrentRound with the given banker,
// replacing any existing round with that number.
// An inactive player leaves the state unchanged.
func (s *Service) SelectBanker(g *model.GameData, id model.PlayerID) error {
	banker := g.GetPlayer(id)
	if banker == nil {
		s.logger.Warn("banker not in active roster", slog.Int("player_id", int(id)))
		return model.ErrPlayerNotFound
	}

	round := model.Round{
		RoundNumber: g.CurrentRound,
		BankerID:    banker.ID,
		BankerName:  banker.Name,
		Records:     make([]model.Record, 0, len(g.Players)-1),
	}
	for _, p := range g.Players {
		if p.ID == banker.ID {
			continue
		}
		round.Records = append(round.Records, model.Record{
			PlayerID:   p.ID,
			PlayerName: p.Name,
		})
	}

	if existing := g.GetRound(g.CurrentRound); existing != nil {
		*existing = round
	} else {
		g.Rounds = append(g.Rounds, round)
	}

	bankerID := banker.ID
	g.CurrentBankerID = &bankerID
	s.touch(g)
	return nil
}

// ConfirmAmount records a player's result for the open round
func (s *Service) ConfirmAmount(g *model.GameData, id model.PlayerID, amount int) error {
	round := s.openRound(g)
	if round == nil {
		return model.ErrNoActiveRound
	}
	record := round.GetRecord(id)
	if record == nil {
		return model.ErrRecordNotFound
	}
	record.Amount = amount
	record.Completed = true
	s.touch(g)
	return nil
}

// ConfirmAmountText parses raw as an integer and records it for the open round
func (s *Service) ConfirmAmountText(g *model.GameData, id model.PlayerID, raw string) error {
	amount, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	return s.ConfirmAmount(g, id, amount)
}

// NextRound settles the open round into the aggregates and advances.
// rotated is true when the banker completed their stint and a new banker
// must be selected; otherwise the same banker is re-seated.
func (s *Service) NextRound(g *model.GameData) (rotated bool, err error) {
	round := s.openRound(g)
	if round == nil {
		return false, model.ErrNoActiveRound
	}
	if !round.IsComplete() {
		return false, model.ErrRoundIncomplete
	}

	applyRound(g, round)
	mirrorAggregates(g)
	g.CurrentRound++

	if g.CustomBankerRounds < 1 {
		g.CustomBankerRounds = model.DefaultBankerRounds
	}

	bankerID := round.BankerID
	banker := g.GetHistoricalPlayer(bankerID)
	if banker == nil || banker.BankerRounds%g.CustomBankerRounds == 0 || !g.IsActive(bankerID) {
		g.CurrentBankerID = nil
		s.touch(g)
		s.logger.Info("banker rotation due",
			slog.Int("settled_round", round.RoundNumber),
			slog.Int("banker_id", int(bankerID)),
		)
		return true, nil
	}

	return false, s.SelectBanker(g, bankerID)
}

// EditRecord overwrites a stored record and recomputes every aggregate
func (s *Service) EditRecord(g *model.GameData, roundNumber int, id model.PlayerID, amount int) error {
	round := g.GetRound(roundNumber)
	if round == nil {
		return model.ErrRoundNotFound
	}
	record := round.GetRecord(id)
	if record == nil {
		return model.ErrRecordNotFound
	}
	record.Amount = amount
	record.Completed = true

	s.RecomputeTotals(g)
	s.touch(g)
	s.logger.Info("record edited",
		slog.Int("round", roundNumber),
		slog.Int("player_id", int(id)),
		slog.Int("amount", amount),
	)
	return nil
}

// RecomputeTotals rebuilds every aggregate from scratch over the settled
// rounds. Rounds with any incomplete record contribute nothing.
func (s *Service) RecomputeTotals(g *model.GameData) {
	for i := range g.AllPlayers {
		g.AllPlayers[i].TotalWinLoss = 0
		g.AllPlayers[i].BankerRounds = 0
	}
	for i := range g.Rounds {
		round := &g.Rounds[i]
		// The open round is only settled by NextRound
		if round.RoundNumber >= g.CurrentRound || !round.IsComplete() {
			continue
		}
		applyRound(g, round)
	}
	mirrorAggregates(g)
}

// SetBankerRounds sets how many rounds a banker serves before rotation
func (s *Service) SetBankerRounds(g *model.GameData, n int) error {
	if n < 1 {
		return model.ErrInvalidBankerRounds
	}
	g.CustomBankerRounds = n
	s.touch(g)
	return nil
}

// ParseAmount parses a user-entered settlement amount
func ParseAmount(raw string) (int, error) {
	amount, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidAmount, raw)
	}
	return amount, nil
}

// openRound returns the round being recorded, or nil if a banker must be chosen first
func (s *Service) openRound(g *model.GameData) *model.Round {
	if g.CurrentBankerID == nil {
		return nil
	}
	return g.OpenRound()
}

func (s *Service) touch(g *model.GameData) {
	g.LastModified = s.clock.Now()
}

// applyRound adds one round's results to the all-time aggregates
func applyRound(g *model.GameData, round *model.Round) {
	for _, rec := range round.Records {
		if p := g.GetHistoricalPlayer(rec.PlayerID); p != nil {
			p.TotalWinLoss += rec.Amount
		}
	}
	if banker := g.GetHistoricalPlayer(round.BankerID); banker != nil {
		banker.TotalWinLoss += round.BankerTotal()
		banker.BankerRounds++
	}
}

// mirrorAggregates copies the authoritative all-time aggregates onto the active roster
func mirrorAggregates(g *model.GameData) {
	for i := range g.Players {
		if p := g.GetHistoricalPlayer(g.Players[i].ID); p != nil {
			g.Players[i].TotalWinLoss = p.TotalWinLoss
			g.Players[i].BankerRounds = p.BankerRounds
		}
	}
}
