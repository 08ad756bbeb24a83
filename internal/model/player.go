package model

// PlayerID identifies a player within one game. IDs are allocated from
// GameData.NextPlayerID and are never reused.
type PlayerID int

// Roster limits
const (
	MinPlayers = 2
	MaxPlayers = 20
)

// Player is a roster member and their derived aggregates
type Player struct {
	ID           PlayerID `json:"id"`
	Name         string   `json:"name"`
	TotalWinLoss int      `json:"totalWinLoss"`
	BankerRounds int      `json:"bankerRounds"`
}

// Profile describes the signed-in account
type Profile struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}
