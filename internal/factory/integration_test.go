package factory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/services/cloudsync"
	"github.com/mcoot/bankerscore/internal/services/identity"
	"github.com/mcoot/bankerscore/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.Require().NoError(s.app.Start(s.ctx))
	s.Require().NoError(s.app.Registry.SetCurrentUser(s.ctx, "Alice"))
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close(s.ctx))
}

var testCreds = identity.Credentials{Username: TestUsername, Password: TestPassword}

// playRound seats Amy, Ben and Cat and settles one round with Amy as banker
func (s *IntegrationSuite) playRound(app *TestApp) {
	svc := app.Settlement
	err := app.Registry.Mutate(s.ctx, func(g *model.GameData) error {
		for _, name := range []string{"Amy", "Ben", "Cat"} {
			if _, err := svc.AddPlayer(g, name); err != nil {
				return err
			}
		}
		if err := svc.ConfirmPlayers(g); err != nil {
			return err
		}
		if err := svc.SelectBanker(g, 1); err != nil {
			return err
		}
		if err := svc.ConfirmAmount(g, 2, 10); err != nil {
			return err
		}
		if err := svc.ConfirmAmountText(g, 3, "-4"); err != nil {
			return err
		}
		_, err := svc.NextRound(g)
		return err
	})
	s.Require().NoError(err)
}

// Test: a game is created, played and its standings read back
func (s *IntegrationSuite) TestCompleteRoundFlow() {
	s.app.MockRandom.QueueIntn(7)

	entry, err := s.app.Registry.CreateGame(s.ctx, "Friday poker", "Alice")
	s.Require().NoError(err)
	s.Equal(model.GameID("game_20240101_007"), entry.ID)

	s.playRound(s.app)

	var standings []model.Player
	var table []int
	s.Require().NoError(s.app.Registry.View(func(g *model.GameData) {
		standings = s.app.Settlement.Standings(g)
		s.Equal(2, g.CurrentRound)
		s.Require().NotNil(g.CurrentBankerID, "banker keeps the bank until the stint ends")
		s.Equal(model.PlayerID(1), *g.CurrentBankerID)
		table = append(table, g.Rounds[0].BankerTotal())
	}))

	s.Require().Len(standings, 3)
	s.Equal("Ben", standings[0].Name)
	s.Equal(10, standings[0].TotalWinLoss)
	s.Equal("Cat", standings[1].Name)
	s.Equal("Amy", standings[2].Name)
	s.Equal(-6, standings[2].TotalWinLoss)
	s.Equal([]int{-6}, table)

	current, err := s.app.Registry.CurrentGame()
	s.Require().NoError(err)
	s.Equal(3, current.PlayerCount)
	s.Equal(2, current.RoundCount)
	s.True(s.app.Registry.HasUnsavedChanges())
}

// Test: state survives a restart through local storage
func (s *IntegrationSuite) TestRegistryPersistsLocally() {
	_, err := s.app.Registry.CreateGame(s.ctx, "Friday poker", "Alice")
	s.Require().NoError(err)
	s.playRound(s.app)
	s.Require().NoError(s.app.Close(s.ctx))

	restarted := newWithDependencies(s.app.Storage, nil, s.app.MockClock, s.app.MockRandom, cloudsync.DefaultConfig(), testutil.NopLogger())
	s.Require().NoError(restarted.Start(s.ctx))

	games := restarted.Registry.ListGames()
	s.Require().Len(games, 1)
	s.Equal("Friday poker", games[0].Name)
	s.Equal("Alice", restarted.Registry.CurrentUser())
}

// Test: a second device picks up the game through the cloud and respects the lease
func (s *IntegrationSuite) TestTwoDevicesShareGamesThroughTheCloud() {
	entry, err := s.app.Registry.CreateGame(s.ctx, "Friday poker", "Alice")
	s.Require().NoError(err)
	s.playRound(s.app)

	result, err := s.app.Sync.Connect(s.ctx, testCreds)
	s.Require().NoError(err)
	s.True(result.NoRemoteData)
	s.Require().NoError(s.app.Sync.Upload(s.ctx))
	s.False(s.app.Registry.HasUnsavedChanges())

	other := s.app.NewDevice()
	s.Require().NoError(other.Start(s.ctx))
	defer func() { s.Require().NoError(other.Close(s.ctx)) }()
	s.Require().NoError(other.Registry.SetCurrentUser(s.ctx, "Bob"))

	result, err = other.Sync.Connect(s.ctx, testCreds)
	s.Require().NoError(err)
	s.Equal(1, result.Stats.RemoteOnly)

	games := other.Registry.ListGames()
	s.Require().Len(games, 1)
	s.Equal(entry.ID, games[0].ID)
	s.Equal(3, games[0].PlayerCount)

	// Alice still holds the lease
	_, err = other.Registry.SelectGame(s.ctx, entry.ID)
	var locked *model.LockedError
	s.Require().True(errors.As(err, &locked))
	s.Equal("Alice", locked.Holder)

	// Once Alice releases and syncs, Bob can take over
	s.app.MockClock.Advance(time.Minute)
	s.Require().NoError(s.app.Registry.ReleaseCurrent(s.ctx))
	s.Require().NoError(s.app.Sync.Upload(s.ctx))

	result, err = other.Sync.DownloadAndMerge(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, result.Stats.RemoteNewer)

	_, err = other.Registry.SelectGame(s.ctx, entry.ID)
	s.Require().NoError(err)

	status := other.Sync.Status()
	s.True(status.SignedIn)
	s.Equal("alice@example.com", status.UserID)
}

// Test: sync is unavailable without a remote
func (s *IntegrationSuite) TestSyncDisabledWithoutRemote() {
	app := newWithDependencies(s.app.Storage, nil, s.app.MockClock, s.app.MockRandom, cloudsync.DefaultConfig(), testutil.NopLogger())

	_, err := app.SyncEngine()

	s.ErrorIs(err, ErrSyncDisabled)
	s.Nil(app.Identity)
}
