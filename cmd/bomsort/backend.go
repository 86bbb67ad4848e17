package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/bomsort/internal/changelog"
	"github.com/Veraticus/bomsort/internal/config"
	"github.com/Veraticus/bomsort/internal/rules"
	"github.com/Veraticus/bomsort/internal/storage"
)

// backend is the rule store and change log selected by configuration.
type backend struct {
	store rules.Store
	log   changelog.Log
	close func() error
}

// Close releases the backend's resources.
func (b *backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// openBackend opens the configured rule storage. The yaml backend keeps
// rules and change log in plain files; the sqlite backend keeps both in
// one database.
func openBackend(ctx context.Context, settings *config.Settings) (*backend, error) {
	switch settings.RulesBackend {
	case config.BackendSQLite:
		db, err := storage.Open(ctx, settings.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open rule database: %w", err)
		}
		slog.Debug("Using sqlite rule storage", "path", db.Path())
		return &backend{store: db, log: db, close: db.Close}, nil

	case config.BackendYAML:
		slog.Debug("Using yaml rule storage", "rules", settings.RulesPath, "changelog", settings.ChangelogPath)
		return &backend{
			store: rules.NewFileStore(settings.RulesPath),
			log:   changelog.NewFileLog(settings.ChangelogPath),
		}, nil
	}

	return nil, fmt.Errorf("unknown rules backend %q", settings.RulesBackend)
}
