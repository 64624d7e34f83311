package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"pacelink.app/relay/core/config"
)

var ErrMissingCode = errors.New("missing authorization code")

// NewOAuthConfig describes Strava's OAuth endpoints. Strava wants the client
// secret in the form body and a comma-separated scope list, which is passed
// through as a single scope value.
func NewOAuthConfig(cfg config.StravaConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{cfg.Scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL(),
			TokenURL:  cfg.TokenURL(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

type OAuthService interface {
	AuthorizationURL(state string) string
	// HandleCallback exchanges the code and stores the resulting credential.
	HandleCallback(ctx context.Context, code string) (*AuthorizedAthlete, error)
}

type AuthorizedAthlete struct {
	ID        int64  `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	ExpiresAt int64  `json:"expires_at"`
	Scope     string `json:"scope"`
}

type oauthService struct {
	oauth        *oauth2.Config
	credentials  *CredentialManager
	httpClient   *http.Client
	defaultScope string
}

func NewOAuthService(oauth *oauth2.Config, credentials *CredentialManager, httpClient *http.Client) OAuthService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: tokenEndpointTimeout}
	}
	var scope string
	if len(oauth.Scopes) > 0 {
		scope = oauth.Scopes[0]
	}
	return &oauthService{
		oauth:        oauth,
		credentials:  credentials,
		httpClient:   httpClient,
		defaultScope: scope,
	}
}

func (s *oauthService) AuthorizationURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto"))
}

func (s *oauthService) HandleCallback(ctx context.Context, code string) (*AuthorizedAthlete, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	ctx, cancel := context.WithTimeout(ctx, tokenEndpointTimeout)
	defer cancel()

	tok, err := s.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, s.httpClient), code)
	if err != nil {
		cerr := refreshError(err)
		slog.ErrorContext(ctx, "strava code exchange failed",
			"status", cerr.Status,
			"error", err)
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	cred := credentialFromToken(tok, s.credentials.now())
	if cred.Scope == "" {
		cred.Scope = s.defaultScope
	}
	if err := s.credentials.Store(ctx, cred); err != nil {
		return nil, err
	}

	athlete := athleteFromToken(tok)
	athlete.ExpiresAt = cred.ExpiresAt
	athlete.Scope = cred.Scope

	slog.InfoContext(ctx, "strava authorization completed",
		"athlete_id", athlete.ID,
		"expires_at", cred.ExpiresAt)
	return athlete, nil
}

// Strava includes a summary athlete object in the token response.
func athleteFromToken(tok *oauth2.Token) *AuthorizedAthlete {
	out := &AuthorizedAthlete{}
	raw, ok := tok.Extra("athlete").(map[string]any)
	if !ok {
		return out
	}
	if v, ok := raw["id"].(float64); ok {
		out.ID = int64(v)
	}
	out.Firstname, _ = raw["firstname"].(string)
	out.Lastname, _ = raw["lastname"].(string)
	return out
}
