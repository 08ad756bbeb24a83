package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestLockIsActive(t *testing.T) {
	tests := []struct {
		name   string
		lock   *Lock
		active bool
	}{
		{"nil lock", nil, false},
		{"future expiry", &Lock{Holder: "Alice", Expiry: now.Add(time.Minute)}, true},
		{"expiry equals now", &Lock{Holder: "Alice", Expiry: now}, false},
		{"expired", &Lock{Holder: "Alice", Expiry: now.Add(-time.Second)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.active, tt.lock.IsActive(now))
		})
	}
}

func TestLockHeldBy(t *testing.T) {
	lock := &Lock{Holder: "Alice", Expiry: now.Add(time.Minute)}

	assert.True(t, lock.HeldBy("Alice", now))
	assert.False(t, lock.HeldBy("Bob", now))
	assert.False(t, lock.HeldBy("Alice", now.Add(2*time.Minute)))

	var unlocked *Lock
	assert.False(t, unlocked.HeldBy("Alice", now))
}

func TestRoundDerivedValues(t *testing.T) {
	r := Round{
		RoundNumber: 1,
		BankerID:    1,
		Records: []Record{
			{PlayerID: 2, Amount: 10, Completed: true},
			{PlayerID: 3, Amount: -4, Completed: false},
		},
	}

	assert.Equal(t, -6, r.BankerTotal())
	assert.False(t, r.IsComplete())

	r.Records[1].Completed = true
	assert.True(t, r.IsComplete())
	assert.Equal(t, -4, r.GetRecord(3).Amount)
	assert.Nil(t, r.GetRecord(9))
}

func TestRoundWithoutRecordsIsComplete(t *testing.T) {
	r := Round{RoundNumber: 1}

	assert.True(t, r.IsComplete())
	assert.Equal(t, 0, r.BankerTotal())
}

func TestGameDataNormalizeSeedsAllPlayers(t *testing.T) {
	// Data saved before the all-time roster existed
	raw := `{"players":[{"id":1,"name":"Amy","totalWinLoss":5},{"id":4,"name":"Ben"}],"currentRound":2}`
	var g GameData
	require.NoError(t, json.Unmarshal([]byte(raw), &g))

	g.Normalize()

	require.Len(t, g.AllPlayers, 2)
	assert.Equal(t, "Amy", g.AllPlayers[0].Name)
	assert.Equal(t, 5, g.AllPlayers[0].TotalWinLoss)
	assert.Equal(t, PlayerID(5), g.NextPlayerID)
	assert.Equal(t, DefaultBankerRounds, g.CustomBankerRounds)
	assert.Equal(t, 2, g.CurrentRound)
	assert.NotNil(t, g.Rounds)
}

func TestGameDataCloneIsDeep(t *testing.T) {
	g := NewGameData(now)
	g.Players = append(g.Players, Player{ID: 1, Name: "Amy"})
	g.AllPlayers = append(g.AllPlayers, Player{ID: 1, Name: "Amy"})
	banker := PlayerID(1)
	g.CurrentBankerID = &banker
	g.Rounds = append(g.Rounds, Round{RoundNumber: 1, Records: []Record{{PlayerID: 2, Amount: 3}}})

	clone := g.Clone()
	clone.Players[0].Name = "Zed"
	clone.Rounds[0].Records[0].Amount = 99
	*clone.CurrentBankerID = 7

	assert.Equal(t, "Amy", g.Players[0].Name)
	assert.Equal(t, 3, g.Rounds[0].Records[0].Amount)
	assert.Equal(t, PlayerID(1), *g.CurrentBankerID)
}

func TestRegistrySortedGames(t *testing.T) {
	r := NewRegistry("Alice")
	r.Games["game_20240101_001"] = &Entry{ID: "game_20240101_001", LastModified: now}
	r.Games["game_20240101_002"] = &Entry{ID: "game_20240101_002", LastModified: now.Add(time.Hour)}
	r.Games["game_20240101_003"] = &Entry{ID: "game_20240101_003", LastModified: now}

	sorted := r.SortedGames()

	require.Len(t, sorted, 3)
	assert.Equal(t, GameID("game_20240101_002"), sorted[0].ID)
	assert.Equal(t, GameID("game_20240101_001"), sorted[1].ID)
	assert.Equal(t, GameID("game_20240101_003"), sorted[2].ID)
	assert.Equal(t, now.Add(time.Hour), r.LatestModification())
}

func TestRegistryLookupAndNormalize(t *testing.T) {
	r := &Registry{Games: map[GameID]*Entry{
		"a": {ID: "a", Name: "Friday"},
		"b": nil,
	}}

	r.Normalize()

	assert.Len(t, r.Games, 1)
	assert.Equal(t, GameID("a"), r.GetGameByName("Friday").ID)
	assert.Nil(t, r.GetGameByName("Saturday"))
	assert.Equal(t, 1, r.Games["a"].Data.CurrentRound)

	empty := &Registry{}
	empty.Normalize()
	assert.NotNil(t, empty.Games)
	assert.True(t, empty.LatestModification().IsZero())
}

func TestRegistryCloneIsDeep(t *testing.T) {
	r := NewRegistry("Alice")
	r.Games["a"] = &Entry{ID: "a", Name: "Friday", Lock: &Lock{Holder: "Alice", Expiry: now}}

	clone := r.Clone()
	clone.Games["a"].Name = "Saturday"
	clone.Games["a"].Lock.Holder = "Bob"

	assert.Equal(t, "Friday", r.Games["a"].Name)
	assert.Equal(t, "Alice", r.Games["a"].Lock.Holder)
}

func TestEntryDecodesLegacyFlatLock(t *testing.T) {
	raw := `{"id":"a","name":"Friday","isLocked":true,"lockHolder":"Alice","lockExpiry":"2024-01-01T12:10:00.000Z"}`
	var e Entry
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	require.NotNil(t, e.Lock)
	assert.Equal(t, "Alice", e.Lock.Holder)
	assert.True(t, e.Lock.HeldBy("Alice", now))
	assert.False(t, e.Lock.IsActive(now.Add(10*time.Minute)))
	assert.Equal(t, "Friday", e.Name)
}

func TestEntryLegacyUnlockedFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not locked", `{"id":"a","isLocked":false,"lockHolder":null,"lockExpiry":null}`},
		{"locked without expiry", `{"id":"a","isLocked":true,"lockHolder":"Alice","lockExpiry":null}`},
		{"stale holder only", `{"id":"a","isLocked":false,"lockHolder":"Alice","lockExpiry":"2024-01-01T12:10:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Entry
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &e))
			assert.Nil(t, e.Lock)
		})
	}
}

func TestEntryNestedLockRoundTrips(t *testing.T) {
	in := Entry{ID: "a", Name: "Friday", Lock: &Lock{Holder: "Bob", Expiry: now}}
	b, err := json.Marshal(&in)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"lock":{"lockHolder":"Bob"`)
	assert.NotContains(t, string(b), "isLocked")

	var out Entry
	require.NoError(t, json.Unmarshal(b, &out))
	require.NotNil(t, out.Lock)
	assert.Equal(t, "Bob", out.Lock.Holder)
	assert.True(t, now.Equal(out.Lock.Expiry))
}

func TestErrorKinds(t *testing.T) {
	locked := &LockedError{GameID: "a", Holder: "Bob", Expiry: now}

	assert.True(t, errors.Is(locked, ErrLocked))
	assert.Contains(t, locked.Error(), "Bob")
	assert.ErrorIs(t, ErrGameNameTaken, ErrDuplicateName)
	assert.ErrorIs(t, ErrRoundIncomplete, ErrInvalidState)
	assert.ErrorIs(t, ErrInvalidCredential, ErrAuthentication)
	assert.NotErrorIs(t, ErrPlayerNotFound, ErrValidation)
}
