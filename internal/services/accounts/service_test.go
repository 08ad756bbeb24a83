package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bankerscore/internal/dependencies/mocks"
	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/services/identity"
	"github.com/mcoot/bankerscore/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ctx = context.Background()

	hash, err := HashPassword("correct-horse")
	s.Require().NoError(err)

	cfg := DefaultConfig()
	cfg.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Users = []User{{Username: "alice", PasswordHash: hash, Name: "Alice", Email: "alice@example.com"}}

	s.service, err = New(s.clock, cfg, testutil.NopLogger())
	s.Require().NoError(err)
}

func (s *ServiceSuite) signIn() *identity.SignInResult {
	result, err := s.service.SignIn(s.ctx, identity.Credentials{Username: "alice", Password: "correct-horse"})
	s.Require().NoError(err)
	return result
}

func (s *ServiceSuite) TestNewRequiresSecret() {
	_, err := New(s.clock, DefaultConfig(), testutil.NopLogger())
	s.ErrorIs(err, model.ErrValidation)
}

// SignIn tests

func (s *ServiceSuite) TestSignInReturnsProfile() {
	result := s.signIn()

	s.NotEmpty(result.IDToken)
	s.Equal(model.Profile{Subject: "alice", Email: "alice@example.com", Name: "Alice"}, result.Profile)
}

func (s *ServiceSuite) TestSignInWrongPassword() {
	_, err := s.service.SignIn(s.ctx, identity.Credentials{Username: "alice", Password: "nope"})
	s.ErrorIs(err, model.ErrAuthentication)

	_, err = s.service.SignIn(s.ctx, identity.Credentials{Username: "mallory", Password: "correct-horse"})
	s.ErrorIs(err, model.ErrAuthentication)
}

// Token tests

func (s *ServiceSuite) TestAccessTokenAuthenticates() {
	result := s.signIn()

	access, err := s.service.RequestAccessToken(s.ctx, result.IDToken)
	s.Require().NoError(err)
	s.Equal(s.clock.Now().Add(15*time.Minute), access.Expiry)

	owner, err := s.service.Authenticate(s.ctx, access.Token)
	s.Require().NoError(err)
	s.Equal("alice", owner)
}

func (s *ServiceSuite) TestTokenTypesAreNotInterchangeable() {
	result := s.signIn()
	access, err := s.service.RequestAccessToken(s.ctx, result.IDToken)
	s.Require().NoError(err)

	_, err = s.service.Authenticate(s.ctx, result.IDToken)
	s.ErrorIs(err, model.ErrInvalidToken)

	_, err = s.service.RequestAccessToken(s.ctx, access.Token)
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestExpiredAccessTokenRejected() {
	result := s.signIn()
	access, err := s.service.RequestAccessToken(s.ctx, result.IDToken)
	s.Require().NoError(err)

	s.clock.Advance(16 * time.Minute)

	_, err = s.service.Authenticate(s.ctx, access.Token)
	s.ErrorIs(err, model.ErrAuthentication)
}

func (s *ServiceSuite) TestExpiredIDTokenCannotBeExchanged() {
	result := s.signIn()
	s.clock.Advance(2 * time.Hour)

	_, err := s.service.RequestAccessToken(s.ctx, result.IDToken)
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestForgedTokenRejected() {
	other, err := New(s.clock, Config{Secret: []byte("another-secret-of-32-bytes------")}, testutil.NopLogger())
	s.Require().NoError(err)
	s.Require().NoError(other.Register(s.ctx, "alice", "password1", "", ""))
	result, err := other.SignIn(s.ctx, identity.Credentials{Username: "alice", Password: "password1"})
	s.Require().NoError(err)

	_, err = s.service.RequestAccessToken(s.ctx, result.IDToken)
	s.ErrorIs(err, model.ErrInvalidToken)

	_, err = s.service.Authenticate(s.ctx, "")
	s.ErrorIs(err, model.ErrAuthentication)
}

func (s *ServiceSuite) TestRevoke() {
	result := s.signIn()
	access, err := s.service.RequestAccessToken(s.ctx, result.IDToken)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Revoke(s.ctx, access.Token))

	_, err = s.service.Authenticate(s.ctx, access.Token)
	s.ErrorIs(err, model.ErrInvalidToken)

	// ID token is unaffected
	_, err = s.service.RequestAccessToken(s.ctx, result.IDToken)
	s.NoError(err)

	s.NoError(s.service.Revoke(s.ctx, "garbage"))
}

// Register tests

func (s *ServiceSuite) TestRegister() {
	s.Require().NoError(s.service.Register(s.ctx, "bob", "hunter22", "Bob", "bob@example.com"))

	result, err := s.service.SignIn(s.ctx, identity.Credentials{Username: "bob", Password: "hunter22"})
	s.Require().NoError(err)
	s.Equal("Bob", result.Profile.Name)

	s.ErrorIs(s.service.Register(s.ctx, "bob", "hunter22", "", ""), model.ErrDuplicateName)
	s.ErrorIs(s.service.Register(s.ctx, "carol", "short", "", ""), model.ErrValidation)
	s.ErrorIs(s.service.Register(s.ctx, " ", "hunter22", "", ""), model.ErrValidation)
}
