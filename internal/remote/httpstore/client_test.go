package httpstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bankerscore/internal/api"
	"github.com/mcoot/bankerscore/internal/dependencies/mocks"
	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/remote"
	"github.com/mcoot/bankerscore/internal/remote/memory"
	"github.com/mcoot/bankerscore/internal/remote/storetest"
	"github.com/mcoot/bankerscore/internal/services/accounts"
	"github.com/mcoot/bankerscore/internal/services/identity"
	"github.com/mcoot/bankerscore/internal/testutil"
)

// ClientSuite runs the shared store behaviour over a real HTTP round trip
type ClientSuite struct {
	storetest.Suite
	server   *httptest.Server
	client   *Client
	clock    *mocks.MockClock
	accounts *accounts.Service
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	var err error
	s.accounts, err = accounts.New(s.clock, accounts.Config{Secret: []byte("0123456789abcdef0123")}, testutil.NopLogger())
	s.Require().NoError(err)
	s.Require().NoError(s.accounts.Register(context.Background(), "alice", "secret123", "Alice", "alice@example.com"))

	router := api.NewRouter(api.RouterConfig{
		Logger:        testutil.NopLogger(),
		Provider:      s.accounts,
		Authenticator: storetest.Tokens(),
		Store:         memory.New(storetest.Tokens(), s.clock, memory.Config{QuotaBytes: 32}),
	})
	s.server = httptest.NewServer(router)

	s.client = NewClient(s.server.URL, 5*time.Second)
	s.Store = s.client
	s.Ctx = context.Background()
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) TestHealth() {
	s.NoError(s.client.Health(s.Ctx))
}

func (s *ClientSuite) TestQuotaMapsToQuotaKind() {
	_, err := s.client.CreateFile(s.Ctx, storetest.AliceToken, "big.json", remote.FolderRef{}, make([]byte, 64))
	s.ErrorIs(err, model.ErrQuota)

	var statusErr *StatusError
	s.Require().ErrorAs(err, &statusErr)
	s.Equal(http.StatusForbidden, statusErr.Status)
	s.Equal("QUOTA_EXCEEDED", statusErr.API.Code)
}

func (s *ClientSuite) TestMissingTokenFailsWithoutRequest() {
	_, err := s.client.GetFileContent(s.Ctx, "", remote.FileRef{ID: "x"})
	s.ErrorIs(err, model.ErrNotSignedIn)
}

func (s *ClientSuite) TestUnreachableServerIsConnectivity() {
	s.server.Close()

	_, err := s.client.FindByName(s.Ctx, storetest.AliceToken, "games-data.json", "")
	s.ErrorIs(err, model.ErrConnectivity)

	_, err = s.client.SignIn(s.Ctx, identity.Credentials{Username: "alice", Password: "secret123"})
	s.ErrorIs(err, model.ErrConnectivity)
}

// Provider tests

func (s *ClientSuite) TestSignInAndExchange() {
	result, err := s.client.SignIn(s.Ctx, identity.Credentials{Username: "alice", Password: "secret123"})
	s.Require().NoError(err)
	s.NotEmpty(result.IDToken)
	s.Equal("alice@example.com", result.Profile.Email)

	access, err := s.client.RequestAccessToken(s.Ctx, result.IDToken)
	s.Require().NoError(err)
	s.NotEmpty(access.Token)
	s.Equal(s.clock.Now().Add(15*time.Minute), access.Expiry.UTC())

	owner, err := s.accounts.Authenticate(s.Ctx, access.Token)
	s.Require().NoError(err)
	s.Equal("alice", owner)
}

func (s *ClientSuite) TestSignInBadCredentials() {
	_, err := s.client.SignIn(s.Ctx, identity.Credentials{Username: "alice", Password: "nope-nope"})
	s.ErrorIs(err, model.ErrAuthentication)
}

func (s *ClientSuite) TestRevokedIDTokenCannotBeExchanged() {
	result, err := s.client.SignIn(s.Ctx, identity.Credentials{Username: "alice", Password: "secret123"})
	s.Require().NoError(err)

	s.Require().NoError(s.client.Revoke(s.Ctx, result.IDToken))

	_, err = s.client.RequestAccessToken(s.Ctx, result.IDToken)
	s.ErrorIs(err, model.ErrAuthentication)
}
