package identity

import (
	"context"
	"time"

	"github.com/mcoot/bankerscore/internal/model"
)

// Credentials identify an account to the identity provider
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignInResult is what a successful sign-in yields
type SignInResult struct {
	IDToken string        `json:"idToken"`
	Profile model.Profile `json:"profile"`
}

// AccessToken is a short-lived bearer credential for the remote store
type AccessToken struct {
	Token  string    `json:"accessToken"`
	Expiry time.Time `json:"expiry"`
}

// Provider is the identity collaborator
type Provider interface {
	SignIn(ctx context.Context, creds Credentials) (*SignInResult, error)

	// RequestAccessToken exchanges a still-valid ID token for an access token
	RequestAccessToken(ctx context.Context, idToken string) (*AccessToken, error)

	// Revoke invalidates an access or ID token
	Revoke(ctx context.Context, token string) error
}
