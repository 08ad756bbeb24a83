package model

import "time"

// DefaultBankerRounds is how many rounds a banker serves before rotation
const DefaultBankerRounds = 3

// GameData is the settlement state of a single game
type GameData struct {
	// Players is the active roster; AllPlayers is everyone ever seated.
	// Aggregates are authoritative in AllPlayers and mirrored into Players.
	Players    []Player `json:"players"`
	AllPlayers []Player `json:"allPlayers"`

	CurrentRound       int       `json:"currentRound"`
	CurrentBankerID    *PlayerID `json:"currentBankerId"`
	CustomBankerRounds int       `json:"customBankerRounds"`
	Rounds             []Round   `json:"rounds"`
	GameStarted        bool      `json:"gameStarted"`
	NextPlayerID       PlayerID  `json:"nextPlayerId"`

	GameCreatedAt time.Time `json:"gameCreatedAt"`
	LastModified  time.Time `json:"lastModified"`
}

// NewGameData returns the state of a freshly created game
func NewGameData(now time.Time) GameData {
	return GameData{
		Players:            []Player{},
		AllPlayers:         []Player{},
		CurrentRound:       1,
		CustomBankerRounds: DefaultBankerRounds,
		Rounds:             []Round{},
		NextPlayerID:       1,
		GameCreatedAt:      now,
		LastModified:       now,
	}
}

// GetPlayer returns the active player with the given ID, or nil if not seated
func (g *GameData) GetPlayer(id PlayerID) *Player {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// GetPlayerByName returns the active player with the given name, or nil
func (g *GameData) GetPlayerByName(name string) *Player {
	for i := range g.Players {
		if g.Players[i].Name == name {
			return &g.Players[i]
		}
	}
	return nil
}

// GetHistoricalPlayer returns the all-time record for the given ID, or nil
func (g *GameData) GetHistoricalPlayer(id PlayerID) *Player {
	for i := range g.AllPlayers {
		if g.AllPlayers[i].ID == id {
			return &g.AllPlayers[i]
		}
	}
	return nil
}

// GetHistoricalPlayerByName returns the all-time record for the given name, or nil
func (g *GameData) GetHistoricalPlayerByName(name string) *Player {
	for i := range g.AllPlayers {
		if g.AllPlayers[i].Name == name {
			return &g.AllPlayers[i]
		}
	}
	return nil
}

// GetRound returns the round with the given number, or nil
func (g *GameData) GetRound(number int) *Round {
	for i := range g.Rounds {
		if g.Rounds[i].RoundNumber == number {
			return &g.Rounds[i]
		}
	}
	return nil
}

// OpenRound returns the round at CurrentRound, or nil if no banker was selected yet
func (g *GameData) OpenRound() *Round {
	return g.GetRound(g.CurrentRound)
}

// IsActive returns true if the player is in the active roster
func (g *GameData) IsActive(id PlayerID) bool {
	return g.GetPlayer(id) != nil
}

// Normalize repairs data written by versions that predate the all-time roster
func (g *GameData) Normalize() {
	if g.Players == nil {
		g.Players = []Player{}
	}
	if g.Rounds == nil {
		g.Rounds = []Round{}
	}
	if len(g.AllPlayers) == 0 {
		g.AllPlayers = make([]Player, len(g.Players))
		copy(g.AllPlayers, g.Players)
	}
	if g.CustomBankerRounds <= 0 {
		g.CustomBankerRounds = DefaultBankerRounds
	}
	if g.CurrentRound <= 0 {
		g.CurrentRound = 1
	}
	for _, p := range g.AllPlayers {
		if p.ID >= g.NextPlayerID {
			g.NextPlayerID = p.ID + 1
		}
	}
}

// Clone returns a deep copy
func (g GameData) Clone() GameData {
	out := g
	out.Players = make([]Player, len(g.Players))
	copy(out.Players, g.Players)
	out.AllPlayers = make([]Player, len(g.AllPlayers))
	copy(out.AllPlayers, g.AllPlayers)
	out.Rounds = make([]Round, len(g.Rounds))
	for i, r := range g.Rounds {
		out.Rounds[i] = r.clone()
	}
	if g.CurrentBankerID != nil {
		id := *g.CurrentBankerID
		out.CurrentBankerID = &id
	}
	return out
}
