package model

// Record is one non-banker player's result against the banker for a round.
// Positive Amount means the player receives from the banker.
type Record struct {
	PlayerID   PlayerID `json:"playerId"`
	PlayerName string   `json:"playerName"`
	Amount     int      `json:"amount"`
	Completed  bool     `json:"completed"`
}

// Round is one banker's settlement against every other seated player
type Round struct {
	RoundNumber int      `json:"roundNumber"`
	BankerID    PlayerID `json:"bankerId"`
	BankerName  string   `json:"bankerName"`
	Records     []Record `json:"records"`
}

// BankerTotal returns the banker's derived result: the negated sum of all records
func (r *Round) BankerTotal() int {
	total := 0
	for _, rec := range r.Records {
		total -= rec.Amount
	}
	return total
}

// IsComplete returns true if every record has been confirmed
func (r *Round) IsComplete() bool {
	for _, rec := range r.Records {
		if !rec.Completed {
			return false
		}
	}
	return true
}

// GetRecord returns the record for the given player, or nil if not found
func (r *Round) GetRecord(id PlayerID) *Record {
	for i := range r.Records {
		if r.Records[i].PlayerID == id {
			return &r.Records[i]
		}
	}
	return nil
}

func (r Round) clone() Round {
	out := r
	out.Records = make([]Record, len(r.Records))
	copy(out.Records, r.Records)
	return out
}
