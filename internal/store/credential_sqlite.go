package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pacelink.app/relay/internal/model"
)

const (
	getCredentialSQLite = `
SELECT installation_id, access_token, refresh_token, expires_at, token_type, scope, saved_at
FROM strava_credentials
WHERE installation_id = ?`

	upsertCredentialSQLite = `
INSERT INTO strava_credentials (installation_id, access_token, refresh_token, expires_at, token_type, scope, saved_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (installation_id) DO UPDATE SET
    access_token  = excluded.access_token,
    refresh_token = excluded.refresh_token,
    expires_at    = excluded.expires_at,
    token_type    = excluded.token_type,
    scope         = excluded.scope,
    saved_at      = excluded.saved_at`
)

type sqliteCredentialStore struct {
	conn *sql.DB
	now  func() time.Time
}

// NewSQLiteCredentialStore returns the file-backed TokenStore used for
// single-host deployments. conn comes from db.OpenSQLite.
func NewSQLiteCredentialStore(conn *sql.DB) TokenStore {
	return &sqliteCredentialStore{conn: conn, now: time.Now}
}

func (s *sqliteCredentialStore) Get(ctx context.Context, installationID string) (*model.Credential, error) {
	var cred model.Credential
	err := s.conn.QueryRowContext(ctx, getCredentialSQLite, installationID).Scan(
		&cred.InstallationID,
		&cred.AccessToken,
		&cred.RefreshToken,
		&cred.ExpiresAt,
		&cred.TokenType,
		&cred.Scope,
		&cred.SavedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get credential %s: %w", installationID, err)
	}
	return &cred, nil
}

func (s *sqliteCredentialStore) Save(ctx context.Context, cred *model.Credential) error {
	if err := validateCredential(cred); err != nil {
		return err
	}
	savedAt := s.now().Unix()
	_, err := s.conn.ExecContext(ctx, upsertCredentialSQLite,
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
