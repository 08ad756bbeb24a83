package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/mcoot/bankerscore/internal/dependencies/clock"
	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/storage"
)

// accessTokenSkew renews access tokens slightly before they expire
const accessTokenSkew = 30 * time.Second

// Singleflight keys, one pending request per credential type
const (
	flightSignIn      = "sign-in"
	flightAccessToken = "access-token"
)

// Service manages the signed-in session on this device. Only the ID token
// and profile are persisted; access tokens live in memory.
type Service struct {
	provider Provider
	storage  storage.Storage
	clock    clock.Clock
	logger   *slog.Logger

	flight singleflight.Group

	mu      sync.RWMutex
	session *model.CachedSession
	access  *AccessToken
}

// New creates a new identity Service
func New(provider Provider, storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		storage:  storage,
		clock:    clock,
		logger:   logger,
	}
}

// SignIn authenticates with the provider and caches the session.
// Concurrent calls share a single provider request.
func (s *Service) SignIn(ctx context.Context, creds Credentials) (*model.Profile, error) {
	v, err, shared := s.flight.Do(flightSignIn, func() (any, error) {
		result, err := s.provider.SignIn(ctx, creds)
		if err != nil {
			return nil, err
		}

		session := &model.CachedSession{
			IDToken:   result.IDToken,
			Profile:   result.Profile,
			Timestamp: s.clock.Now(),
		}
		if err := s.storage.SaveSession(ctx, session); err != nil {
			s.logger.Error("failed to cache session",
				slog.String("error", err.Error()),
			)
		}

		s.mu.Lock()
		s.session = session
		s.access = nil
		s.mu.Unlock()

		s.logger.Info("signed in",
			slog.String("user", result.Profile.Email),
		)
		return &result.Profile, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("sign-in request coalesced")
	}
	profile := *v.(*model.Profile)
	return &profile, nil
}

// Restore reloads a cached session, discarding it if the ID token has expired.
// It reports whether a session was restored.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	session, err := s.storage.GetSession(ctx)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}

	if !s.tokenValid(session.IDToken) {
		s.logger.Info("cached session expired, discarding")
		if err := s.storage.DeleteSession(ctx); err != nil {
			return false, err
		}
		return false, nil
	}

	s.mu.Lock()
	s.session = session
	s.access = nil
	s.mu.Unlock()
	return true, nil
}

// AccessToken returns a valid access token, requesting a new one from the
// provider when the cached one is missing or about to expire
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	session := s.session
	access := s.access
	s.mu.RUnlock()

	if session == nil {
		return "", model.ErrNotSignedIn
	}
	if access != nil && s.clock.Now().Add(accessTokenSkew).Before(access.Expiry) {
		return access.Token, nil
	}
	if !s.tokenValid(session.IDToken) {
		_ = s.clearLocal(ctx)
		return "", model.ErrInvalidToken
	}

	v, err, _ := s.flight.Do(flightAccessToken, func() (any, error) {
		token, err := s.provider.RequestAccessToken(ctx, session.IDToken)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.session == session {
			s.access = token
		}
		s.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(*AccessToken).Token, nil
}

// SignOut revokes the access token on a best-effort basis and clears local state
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.RLock()
	access := s.access
	s.mu.RUnlock()

	if access != nil {
		if err := s.provider.Revoke(ctx, access.Token); err != nil {
			s.logger.Warn("failed to revoke access token",
				slog.String("error", err.Error()),
			)
		}
	}
	return s.clearLocal(ctx)
}

// ForceSignOut clears local credentials without contacting the provider.
// Used when the remote store rejects our credentials.
func (s *Service) ForceSignOut(ctx context.Context) error {
	s.logger.Warn("forcing local sign-out")
	return s.clearLocal(ctx)
}

// IsSignedIn reports whether a session is active
func (s *Service) IsSignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil
}

// Profile returns the signed-in profile, or nil
func (s *Service) Profile() *model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	profile := s.session.Profile
	return &profile
}

// UserID returns the account identifier recorded in uploaded documents
func (s *Service) UserID() string {
	profile := s.Profile()
	if profile == nil {
		return ""
	}
	if profile.Email != "" {
		return profile.Email
	}
	return profile.Subject
}

func (s *Service) clearLocal(ctx context.Context) error {
	s.mu.Lock()
	s.session = nil
	s.access = nil
	s.mu.Unlock()
	return s.storage.DeleteSession(ctx)
}

// tokenValid reads the exp claim without verifying the signature; the
// provider verifies tokens, the client only needs to know when to stop using one
func (s *Service) tokenValid(idToken string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return s.clock.Now().Before(claims.ExpiresAt.Time)
}
