package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

type Provider string

const (
	ProviderGoogle Provider = "google"
)

// IdentityClaims is what a completed sign-in tells us about the person.
type IdentityClaims struct {
	Provider      Provider
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// OAuthProvider abstracts a configured identity provider so handlers can
// be tested without a live issuer.
type OAuthProvider interface {
	Provider() Provider
	AuthCodeURL(state, nonce string) string
	ExchangeAndVerify(ctx context.Context, code, nonce string) (IdentityClaims, error)
}

type OIDCProviderConfig struct {
	Provider     Provider
	ClientID     string
	ClientSecret string
	RedirectURL  string
	IssuerURL    string
	Scopes       []string
}

func (c OIDCProviderConfig) validate() error {
	switch {
	case c.Provider == "":
		return errors.New("provider is required")
	case strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "":
		return errors.New("client id and secret are required")
	case strings.TrimSpace(c.RedirectURL) == "" || strings.TrimSpace(c.IssuerURL) == "":
		return errors.New("redirect url and issuer url are required")
	}
	return nil
}

// OIDCProvider implements OAuthProvider against any spec-compliant OIDC
// issuer discovered from its issuer URL.
type OIDCProvider struct {
	name     Provider
	verifier *oidc.IDTokenVerifier
	conf     oauth2.Config
}

func NewOIDCProvider(ctx context.Context, cfg OIDCProviderConfig) (*OIDCProvider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	issuer, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discovering oidc provider: %w", err)
	}

	return &OIDCProvider{
		name:     cfg.Provider,
		verifier: issuer.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		conf: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     issuer.Endpoint(),
			Scopes:       cfg.Scopes,
		},
	}, nil
}

func (p *OIDCProvider) Provider() Provider {
	return p.name
}

func (p *OIDCProvider) AuthCodeURL(state, nonce string) string {
	return p.conf.AuthCodeURL(state, oidc.Nonce(nonce))
}

// ExchangeAndVerify swaps the callback code for tokens, checks the ID
// token signature and nonce, and extracts the identity claims.
func (p *OIDCProvider) ExchangeAndVerify(ctx context.Context, code, nonce string) (IdentityClaims, error) {
	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return IdentityClaims{}, fmt.Errorf("exchanging oauth code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return IdentityClaims{}, errors.New("missing id_token in oauth response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return IdentityClaims{}, fmt.Errorf("verifying id token: %w", err)
	}
	if idToken.Nonce != nonce {
		return IdentityClaims{}, errors.New("nonce mismatch")
	}

	return p.claimsFrom(idToken)
}

func (p *OIDCProvider) claimsFrom(idToken *oidc.IDToken) (IdentityClaims, error) {
	var raw struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&raw); err != nil {
		return IdentityClaims{}, fmt.Errorf("parsing id token claims: %w", err)
	}

	return IdentityClaims{
		Provider:      p.name,
		Subject:       raw.Subject,
		Email:         raw.Email,
		EmailVerified: raw.EmailVerified,
		Name:          raw.Name,
		Picture:       raw.Picture,
	}, nil
}
