package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/iliyamo/streaming-catalog/internal/errs"
)

// ExternalIdentity is what an OIDC provider tells us about a user.
type ExternalIdentity struct {
	Email     string
	FirstName string
	LastName  string
}

// OIDCProvider runs the authorization-code flow against an OpenID Connect
// provider such as Google.
type OIDCProvider struct {
	config   oauth2.Config
	verifier *oidc.IDTokenVerifier
}

func NewOIDCProvider(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &OIDCProvider{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// AuthCodeURL is where the browser is sent to sign in.
func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a verified identity.  Accounts
// are matched by email, so an unverified email is rejected.
func (p *OIDCProvider) Exchange(ctx context.Context, code string) (ExternalIdentity, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return ExternalIdentity{}, errs.Upstream("oidc exchange failed", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok {
		return ExternalIdentity{}, errs.Upstream("oidc exchange failed", errors.New("no id_token in response"))
	}
	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return ExternalIdentity{}, errs.ErrInvalidCredentials
	}
	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return ExternalIdentity{}, errs.ErrInvalidCredentials
	}
	if claims.Email == "" || !claims.EmailVerified {
		return ExternalIdentity{}, errs.Validation("Email not verified by provider")
	}
	return ExternalIdentity{Email: claims.Email, FirstName: claims.GivenName, LastName: claims.FamilyName}, nil
}
