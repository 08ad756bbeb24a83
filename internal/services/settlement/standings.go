package settlement

import (
	"sort"

	"github.com/mcoot/bankerscore/internal/model"
)

// Cell is one active player's entry in a round row
type Cell struct {
	PlayerID  model.PlayerID `json:"playerId"`
	Amount    int            `json:"amount"`
	Completed bool           `json:"completed"`
	Banker    bool           `json:"banker"`
	// Seated is false when the player had no record in the round
	Seated bool `json:"seated"`
}

// Row is one round of the detailed record table
type Row struct {
	RoundNumber int            `json:"roundNumber"`
	BankerID    model.PlayerID `json:"bankerId"`
	BankerName  string         `json:"bankerName"`
	BankerTotal int            `json:"bankerTotal"`
	Complete    bool           `json:"complete"`
	Cells       []Cell         `json:"cells"`
}

// Table is the per-round breakdown for the active roster
type Table struct {
	Players []model.Player `json:"players"`
	Rows    []Row          `json:"rows"`
}

// Standings returns the active roster ordered by total win/loss, best first
func (s *Service) Standings(g *model.GameData) []model.Player {
	players := make([]model.Player, len(g.Players))
	copy(players, g.Players)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].TotalWinLoss > players[j].TotalWinLoss
	})
	return players
}

// RoundTable builds the detailed record table, one row per round in round order
func (s *Service) RoundTable(g *model.GameData) *Table {
	table := &Table{
		Players: make([]model.Player, len(g.Players)),
		Rows:    make([]Row, 0, len(g.Rounds)),
	}
	copy(table.Players, g.Players)

	rounds := make([]model.Round, len(g.Rounds))
	copy(rounds, g.Rounds)
	sort.Slice(rounds, func(i, j int) bool {
		return rounds[i].RoundNumber < rounds[j].RoundNumber
	})

	for i := range rounds {
		round := &rounds[i]
		row := Row{
			RoundNumber: round.RoundNumber,
			BankerID:    round.BankerID,
			BankerName:  round.BankerName,
			BankerTotal: round.BankerTotal(),
			Complete:    round.IsComplete(),
			Cells:       make([]Cell, 0, len(g.Players)),
		}
		for _, p := range g.Players {
			cell := Cell{PlayerID: p.ID}
			switch {
			case p.ID == round.BankerID:
				cell.Banker = true
				cell.Seated = true
				cell.Amount = row.BankerTotal
				cell.Completed = row.Complete
			case round.GetRecord(p.ID) != nil:
				rec := round.GetRecord(p.ID)
				cell.Seated = true
				cell.Amount = rec.Amount
				cell.Completed = rec.Completed
			}
			row.Cells = append(row.Cells, cell)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
