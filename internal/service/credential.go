package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"pacelink.app/relay/common/logger"
	"pacelink.app/relay/internal/model"
	"pacelink.app/relay/internal/store"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoRefreshToken   = errors.New("no refresh token")
	ErrRefreshFailed    = errors.New("token refresh failed")
)

const (
	DefaultRefreshMargin = 60 * time.Second

	tokenEndpointTimeout = 30 * time.Second
	// Used when the token endpoint omits both expires_at and expires_in.
	defaultTokenLifetime = 6 * time.Hour
	// Used for a configured static token with no known expiry, so it is
	// refreshed almost immediately.
	fallbackTokenLifetime = 60 * time.Second
)

type CredentialErrorKind string

const (
	CredentialNotAuthenticated CredentialErrorKind = "not_authenticated"
	CredentialNoRefreshToken   CredentialErrorKind = "no_refresh_token"
	CredentialRefreshFailed    CredentialErrorKind = "refresh_failed"
)

// CredentialError carries the upstream status and body when a refresh is
// rejected. Match kinds with errors.Is against the Err* sentinels.
type CredentialError struct {
	Kind   CredentialErrorKind
	Status int
	Body   string
	Err    error
}

func (e *CredentialError) Error() string {
	switch e.Kind {
	case CredentialNotAuthenticated:
		return "strava not authenticated: authorize via /strava/auth"
	case CredentialNoRefreshToken:
		return "strava refresh token missing"
	default:
		if e.Status != 0 {
			return fmt.Sprintf("strava token refresh failed: status %d: %s", e.Status, e.Body)
		}
		if e.Err != nil {
			return fmt.Sprintf("strava token refresh failed: %v", e.Err)
		}
		return "strava token refresh failed"
	}
}

func (e *CredentialError) Is(target error) bool {
	switch target {
	case ErrNotAuthenticated:
		return e.Kind == CredentialNotAuthenticated
	case ErrNoRefreshToken:
		return e.Kind == CredentialNoRefreshToken
	case ErrRefreshFailed:
		return e.Kind == CredentialRefreshFailed
	}
	return false
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

type CredentialManagerOptions struct {
	Store          store.TokenStore
	OAuth          *oauth2.Config
	InstallationID string
	RefreshMargin  time.Duration
	// Fallback is used only while the store holds nothing for InstallationID.
	Fallback     *model.Credential
	DefaultScope string
	HTTPClient   *http.Client
	Now          func() time.Time
}

// CredentialManager keeps one installation's Strava token pair valid.
// The in-memory copy mirrors the token store; refreshes are coalesced so
// concurrent callers that all see an expiring token cause one upstream
// exchange. The mutex is never held across network or store I/O.
type CredentialManager struct {
	store          store.TokenStore
	oauth          *oauth2.Config
	installationID string
	margin         time.Duration
	fallback       *model.Credential
	defaultScope   string
	httpClient     *http.Client
	now            func() time.Time

	mu    sync.Mutex
	cred  *model.Credential
	group singleflight.Group
}

func NewCredentialManager(opts CredentialManagerOptions) *CredentialManager {
	m := &CredentialManager{
		store:          opts.Store,
		oauth:          opts.OAuth,
		installationID: opts.InstallationID,
		margin:         opts.RefreshMargin,
		defaultScope:   opts.DefaultScope,
		httpClient:     opts.HTTPClient,
		now:            opts.Now,
	}
	if m.installationID == "" {
		m.installationID = "default"
	}
	if m.margin <= 0 {
		m.margin = DefaultRefreshMargin
	}
	if m.httpClient == nil {
		m.httpClient = &http.Client{Timeout: tokenEndpointTimeout}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if fb := opts.Fallback; fb != nil && (fb.AccessToken != "" || fb.RefreshToken != "") {
		m.fallback = fb.Clone()
		m.fallback.InstallationID = m.installationID
		if m.fallback.TokenType == "" {
			m.fallback.TokenType = model.TokenTypeBearer
		}
		if m.fallback.ExpiresAt == 0 {
			m.fallback.ExpiresAt = m.now().Add(fallbackTokenLifetime).Unix()
		}
	}
	return m
}

func (m *CredentialManager) InstallationID() string {
	return m.installationID
}

// AuthHeader returns "Bearer <token>", refreshing first when the token
// expires within the refresh margin.
func (m *CredentialManager) AuthHeader(ctx context.Context) (string, error) {
	cred, err := m.Current(ctx)
	if err != nil {
		return "", err
	}

	if cred.ExpiresIn(m.now()) < m.margin {
		slog.DebugContext(ctx, "access token near expiry, refreshing",
			"expires_at", cred.ExpiresAt)
		cred, err = m.refresh(ctx, false)
		if err != nil {
			return "", err
		}
	}

	return "Bearer " + cred.AccessToken, nil
}

// Refresh unconditionally exchanges the refresh token. Callers racing with an
// in-flight refresh share its result.
func (m *CredentialManager) Refresh(ctx context.Context) error {
	if _, err := m.Current(ctx); err != nil && !errors.Is(err, ErrNotAuthenticated) {
		return err
	}
	_, err := m.refresh(ctx, true)
	return err
}

// Current returns a copy of the cached credential, loading it from the
// store (then the static fallback) when the cache is empty.
func (m *CredentialManager) Current(ctx context.Context) (*model.Credential, error) {
	m.mu.Lock()
	if m.cred.HasAccessToken() {
		cred := m.cred.Clone()
		m.mu.Unlock()
		return cred, nil
	}
	m.mu.Unlock()

	loaded := m.load(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	// A concurrent Store or refresh may have installed one meanwhile.
	if !m.cred.HasAccessToken() && loaded != nil {
		m.cred = loaded
	}
	if !m.cred.HasAccessToken() {
		return nil, &CredentialError{Kind: CredentialNotAuthenticated}
	}
	return m.cred.Clone(), nil
}

// Reload re-reads the store, replacing the cached credential.
func (m *CredentialManager) Reload(ctx context.Context) error {
	cred, err := m.store.Get(ctx, m.installationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &CredentialError{Kind: CredentialNotAuthenticated, Err: err}
		}
		return fmt.Errorf("reloading credential: %w", err)
	}

	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()

	slog.InfoContext(ctx, "credential reloaded from store",
		"expires_at", cred.ExpiresAt)
	return nil
}

// Store persists a freshly authorized credential and installs it in the cache.
func (m *CredentialManager) Store(ctx context.Context, cred *model.Credential) error {
	if !cred.HasAccessToken() {
		return errors.New("credential has no access token")
	}
	next := cred.Clone()
	next.InstallationID = m.installationID
	if next.TokenType == "" {
		next.TokenType = model.TokenTypeBearer
	}

	if err := m.store.Save(ctx, next); err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}

	m.mu.Lock()
	m.cred = next
	m.mu.Unlock()
	return nil
}

func (m *CredentialManager) load(ctx context.Context) *model.Credential {
	cred, err := m.store.Get(ctx, m.installationID)
	switch {
	case err == nil:
		return cred
	case errors.Is(err, store.ErrNotFound):
	default:
		slog.WarnContext(ctx, "failed to read credential store", "error", err)
	}

	if m.fallback != nil {
		slog.InfoContext(ctx, "using configured static credential")
		return m.fallback.Clone()
	}
	return nil
}

func (m *CredentialManager) refresh(ctx context.Context, force bool) (*model.Credential, error) {
	v, err, shared := m.group.Do("refresh", func() (any, error) {
		m.mu.Lock()
		cur := m.cred.Clone()
		m.mu.Unlock()

		// Another caller refreshed between our expiry check and this flight.
		if !force && cur.HasAccessToken() && cur.ExpiresIn(m.now()) >= m.margin {
			return cur, nil
		}
		if cur == nil || cur.RefreshToken == "" {
			return nil, &CredentialError{Kind: CredentialNoRefreshToken}
		}

		// The flight outlives any single caller's cancellation.
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tokenEndpointTimeout)
		defer cancel()

		next, err := m.exchangeRefreshToken(flightCtx, cur)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.cred = next
		m.mu.Unlock()

		if err := m.store.Save(flightCtx, next.Clone()); err != nil {
			// The new pair stays usable in memory; the next refresh retries the write.
			slog.ErrorContext(ctx, "failed to persist refreshed credential",
				"error", err)
		}
		return next.Clone(), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.DebugContext(ctx, "joined in-flight credential refresh")
	}
	return v.(*model.Credential).Clone(), nil
}

func (m *CredentialManager) exchangeRefreshToken(ctx context.Context, cur *model.Credential) (*model.Credential, error) {
	sc := logger.StartSpan(ctx, "credential.refresh")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(attribute.String("installation_id", m.installationID))

	src := m.oauth.TokenSource(
		context.WithValue(ctx, oauth2.HTTPClient, m.httpClient),
		&oauth2.Token{RefreshToken: cur.RefreshToken},
	)
	tok, err := src.Token()
	if err != nil {
		cerr := refreshError(err)
		sc.RecordError(cerr)
		slog.ErrorContext(ctx, "strava token refresh failed",
			"status", cerr.Status,
			"body", logger.Truncate(cerr.Body, 200))
		return nil, cerr
	}

	next := credentialFromToken(tok, m.now())
	next.InstallationID = m.installationID
	if next.RefreshToken == "" {
		next.RefreshToken = cur.RefreshToken
	}
	if next.Scope == "" {
		next.Scope = cur.Scope
	}
	if next.Scope == "" {
		next.Scope = m.defaultScope
	}

	slog.InfoContext(ctx, "strava token refreshed",
		"expires_at", next.ExpiresAt)
	return next, nil
}

func refreshError(err error) *CredentialError {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		cerr := &CredentialError{Kind: CredentialRefreshFailed, Body: string(rerr.Body), Err: err}
		if rerr.Response != nil {
			cerr.Status = rerr.Response.StatusCode
		}
		return cerr
	}
	return &CredentialError{Kind: CredentialRefreshFailed, Err: err}
}

// credentialFromToken prefers Strava's absolute expires_at over the relative
// expires_in that oauth2 turns into Expiry.
func credentialFromToken(tok *oauth2.Token, now time.Time) *model.Credential {
	cred := &model.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    model.TokenTypeBearer,
	}

	switch v := tok.Extra("expires_at").(type) {
	case float64:
		cred.ExpiresAt = int64(v)
	case int64:
		cred.ExpiresAt = v
	}
	if cred.ExpiresAt == 0 && !tok.Expiry.IsZero() {
		cred.ExpiresAt = tok.Expiry.Unix()
	}
	if cred.ExpiresAt == 0 {
		cred.ExpiresAt = now.Add(defaultTokenLifetime).Unix()
	}

	if scope, ok := tok.Extra("scope").(string); ok {
		cred.Scope = scope
	}
	return cred
}
