package store

import (
	"context"
	"fmt"
	"log/slog"

	"pacelink.app/relay/core/config"
	"pacelink.app/relay/core/db"
)

// Open picks the credential backend: Postgres when DATABASE_URL is set,
// otherwise the local SQLite file. The returned func releases it.
func Open(ctx context.Context, cfg config.Config) (TokenStore, func(), error) {
	if cfg.UsesPostgres() {
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("migrating postgres: %w", err)
		}
		slog.InfoContext(ctx, "credential store ready", "backend", "postgres")
		return NewCredentialStore(database.Querier()), database.Close, nil
	}

	conn, err := db.OpenSQLite(cfg.TokenStore.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	slog.InfoContext(ctx, "credential store ready",
		"backend", "sqlite",
		"path", cfg.TokenStore.SQLitePath)
	return NewSQLiteCredentialStore(conn), func() { _ = conn.Close() }, nil
}
