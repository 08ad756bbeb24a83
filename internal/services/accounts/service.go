package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/bankerscore/internal/dependencies/clock"
	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/remote"
	"github.com/mcoot/bankerscore/internal/services/identity"
)

// Token uses
const (
	useID     = "id"
	useAccess = "access"
)

// Errors
var (
	ErrUsernameExists = fmt.Errorf("%w: username already exists", model.ErrDuplicateName)
	ErrWeakPassword   = fmt.Errorf("%w: password must be at least 8 characters", model.ErrValidation)
)

// User is an account known to the provider
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
}

// Config holds configuration for the accounts service
type Config struct {
	Issuer         string
	Secret         []byte
	IDTokenTTL     time.Duration
	AccessTokenTTL time.Duration
	Users          []User
}

// DefaultConfig returns default token lifetimes
func DefaultConfig() Config {
	return Config{
		Issuer:         "bankerscore-docstore",
		IDTokenTTL:     time.Hour,
		AccessTokenTTL: 15 * time.Minute,
	}
}

type claims struct {
	jwt.RegisteredClaims
	Use   string `json:"use"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Service issues and verifies tokens for configured users.
// It is the server side of identity.Provider and authenticates remote store calls.
type Service struct {
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	users   map[string]User
	revoked map[string]time.Time
}

// Ensure Service serves both roles
var (
	_ identity.Provider    = (*Service)(nil)
	_ remote.Authenticator = (*Service)(nil)
)

// New creates a new accounts Service
func New(clock clock.Clock, cfg Config, logger *slog.Logger) (*Service, error) {
	defaults := DefaultConfig()
	if cfg.Issuer == "" {
		cfg.Issuer = defaults.Issuer
	}
	if cfg.IDTokenTTL == 0 {
		cfg.IDTokenTTL = defaults.IDTokenTTL
	}
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = defaults.AccessTokenTTL
	}
	if len(cfg.Secret) < 16 {
		return nil, fmt.Errorf("%w: token secret must be at least 16 bytes", model.ErrValidation)
	}

	s := &Service{
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
		users:   make(map[string]User),
		revoked: make(map[string]time.Time),
	}
	for _, u := range cfg.Users {
		s.users[u.Username] = u
	}
	return s, nil
}

// HashPassword returns a bcrypt hash suitable for User.PasswordHash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register creates an account
func (s *Service) Register(ctx context.Context, username, password, name, email string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.ErrEmptyUserName
	}
	if len(password) < 8 {
		return ErrWeakPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return ErrUsernameExists
	}
	s.users[username] = User{Username: username, PasswordHash: hash, Name: name, Email: email}

	s.logger.Info("account registered", slog.String("username", username))
	return nil
}

// SignIn verifies the password and issues an ID token
func (s *Service) SignIn(ctx context.Context, creds identity.Credentials) (*identity.SignInResult, error) {
	s.mu.RLock()
	user, ok := s.users[creds.Username]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, model.ErrInvalidCredential
	}

	token, _, err := s.issue(user, useID, s.cfg.IDTokenTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("signed in", slog.String("username", user.Username))
	return &identity.SignInResult{
		IDToken: token,
		Profile: profileOf(user),
	}, nil
}

// RequestAccessToken exchanges a valid ID token for an access token
func (s *Service) RequestAccessToken(ctx context.Context, idToken string) (*identity.AccessToken, error) {
	c, err := s.verify(idToken, useID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	user, ok := s.users[c.Subject]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrInvalidToken
	}

	token, expiry, err := s.issue(user, useAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	return &identity.AccessToken{Token: token, Expiry: expiry}, nil
}

// Revoke invalidates a token until it would have expired anyway.
// Unparseable tokens are ignored.
func (s *Service) Revoke(ctx context.Context, token string) error {
	c := claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil || c.ID == "" {
		return nil
	}

	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, expiry := range s.revoked {
		if now.After(expiry) {
			delete(s.revoked, id)
		}
	}
	expiry := now.Add(s.cfg.IDTokenTTL)
	if c.ExpiresAt != nil {
		expiry = c.ExpiresAt.Time
	}
	s.revoked[c.ID] = expiry
	return nil
}

// Authenticate resolves an access token to the owning username
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	c, err := s.verify(token, useAccess)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

func (s *Service) issue(user User, use string, ttl time.Duration) (string, time.Time, error) {
	now := s.clock.Now()
	expiry := now.Add(ttl)
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Use:   use,
		Email: user.Email,
		Name:  user.Name,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiry, nil
}

func (s *Service) verify(token, use string) (*claims, error) {
	if token == "" {
		return nil, model.ErrNotSignedIn
	}

	c := &claims{}
	_, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", model.ErrInvalidToken)
		}
		return nil, model.ErrInvalidToken
	}
	if c.Use != use {
		return nil, fmt.Errorf("%w: wrong token type", model.ErrInvalidToken)
	}

	s.mu.RLock()
	_, revoked := s.revoked[c.ID]
	s.mu.RUnlock()
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", model.ErrInvalidToken)
	}
	return c, nil
}

func profileOf(u User) model.Profile {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	return model.Profile{
		Subject: u.Username,
		Email:   u.Email,
		Name:    name,
	}
}
