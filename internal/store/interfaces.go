package store

import (
	"context"
	"errors"

	"pacelink.app/relay/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// TokenStore defines the contract for credential persistence.
// One record per installation, fully overwritten on Save.
type TokenStore interface {
	Get(ctx context.Context, installationID string) (*model.Credential, error)
	// Save upserts the record and stamps cred.SavedAt.
	Save(ctx context.Context, cred *model.Credential) error
}
