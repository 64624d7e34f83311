package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pacelink.app/relay/core/db"
	"pacelink.app/relay/internal/model"
)

const (
	getCredentialSQL = `
SELECT installation_id, access_token, refresh_token, expires_at, token_type, scope, saved_at
FROM strava_credentials
WHERE installation_id = $1`

	upsertCredentialSQL = `
INSERT INTO strava_credentials (installation_id, access_token, refresh_token, expires_at, token_type, scope, saved_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (installation_id) DO UPDATE SET
    access_token  = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    expires_at    = EXCLUDED.expires_at,
    token_type    = EXCLUDED.token_type,
    scope         = EXCLUDED.scope,
    saved_at      = EXCLUDED.saved_at`
)

type credentialStore struct {
	q   db.Querier
	now func() time.Time
}

// NewCredentialStore returns the Postgres-backed TokenStore.
func NewCredentialStore(q db.Querier) TokenStore {
	return &credentialStore{q: q, now: time.Now}
}

func (s *credentialStore) Get(ctx context.Context, installationID string) (*model.Credential, error) {
	var cred model.Credential
	err := s.q.QueryRow(ctx, getCredentialSQL, installationID).Scan(
		&cred.InstallationID,
		&cred.AccessToken,
		&cred.RefreshToken,
		&cred.ExpiresAt,
		&cred.TokenType,
		&cred.Scope,
		&cred.SavedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get credential %s: %w", installationID, err)
	}
	return &cred, nil
}

func (s *credentialStore) Save(ctx context.Context, cred *model.Credential) error {
	if err := validateCredential(cred); err != nil {
		return err
	}
	savedAt := s.now().Unix()
	_, err := s.q.Exec(ctx, upsertCredentialSQL,
		cred.InstallationID,
		cred.AccessToken,
		cred.RefreshToken,
		cred.ExpiresAt,
		tokenTypeOrDefault(cred.TokenType),
		cred.Scope,
		savedAt,
	)
	if err != nil {
		return fmt.Errorf("save credential %s: %w", cred.InstallationID, err)
	}
	cred.SavedAt = savedAt
	return nil
}

func validateCredential(cred *model.Credential) error {
	if cred == nil {
		return errors.New("nil credential")
	}
	if cred.InstallationID == "" {
		return errors.New("credential has no installation id")
	}
	return nil
}

func tokenTypeOrDefault(t string) string {
	if t == "" {
		return model.TokenTypeBearer
	}
	return t
}
