// Package store persists qualified leads, news items, and the source
// registry behind one interface with SQLite and Postgres backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Platform model.Platform `json:"platform,omitempty"`
	Priority model.Priority `json:"priority,omitempty"`
	MinScore float64        `json:"min_score,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

// Store defines the persistence interface shared by both pipelines.
type Store interface {
	// Leads. UpsertLeads is idempotent keyed on (company_name, platform):
	// re-running a niche refreshes scores instead of duplicating rows.
	UpsertLeads(ctx context.Context, leads []model.Lead) (int, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)

	// News. InsertNewsItems dedupes on URL; re-fetched items are skipped.
	InsertNewsItems(ctx context.Context, items []model.NewsItem) (int, error)
	ListNewsItems(ctx context.Context, limit int) ([]model.NewsItem, error)

	// Source registry
	ListSources(ctx context.Context, platform string) ([]model.NewsSource, error)
	UpsertSources(ctx context.Context, sources []model.NewsSource) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs the configured backend and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite", "":
		s, err = NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}
