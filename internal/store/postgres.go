package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/flowassist/flow-cli/internal/db"
	"github.com/flowassist/flow-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY,
	company_name TEXT NOT NULL,
	platform     TEXT NOT NULL,
	url          TEXT NOT NULL,
	score        DOUBLE PRECISION NOT NULL,
	priority     TEXT NOT NULL,
	data         JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(company_name, platform)
);

CREATE TABLE IF NOT EXISTS news_items (
	id           TEXT PRIMARY KEY,
	platform     TEXT NOT NULL,
	title        TEXT NOT NULL,
	url          TEXT NOT NULL UNIQUE,
	published_at TIMESTAMPTZ NOT NULL,
	category     TEXT NOT NULL,
	data         JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS news_sources (
	platform   TEXT NOT NULL,
	identifier TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT true,
	PRIMARY KEY (platform, identifier)
);

CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score DESC);
CREATE INDEX IF NOT EXISTS idx_leads_priority ON leads(priority);
CREATE INDEX IF NOT EXISTS idx_news_items_published_at ON news_items(published_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var leadColumns = []string{"id", "company_name", "platform", "url", "score", "priority", "data", "created_at", "updated_at"}

func (s *PostgresStore) UpsertLeads(ctx context.Context, leads []model.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	// ON CONFLICT cannot touch the same row twice in one statement, so
	// collapse in-batch duplicates first (last write wins).
	type key struct{ name, platform string }
	seen := make(map[key]int, len(leads))
	now := time.Now().UTC()

	var rows [][]any
	for i := range leads {
		lead := &leads[i]
		data, err := json.Marshal(lead)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal lead")
		}
		row := []any{
			uuid.New().String(), lead.CompanyName(), string(lead.Platform), lead.URL,
			lead.Scoring.Score, string(lead.Scoring.Priority), data, now, now,
		}
		k := key{lead.CompanyName(), string(lead.Platform)}
		if idx, ok := seen[k]; ok {
			rows[idx] = row
			continue
		}
		seen[k] = len(rows)
		rows = append(rows, row)
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "leads",
		Columns:      leadColumns,
		ConflictKeys: []string{"company_name", "platform"},
		UpdateCols:   []string{"url", "score", "priority", "data", "updated_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert leads")
	}
	return int(n), nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT data FROM leads WHERE 1=1`
	var args []any

	if filter.Platform != "" {
		args = append(args, string(filter.Platform))
		query += ` AND platform = $` + itoa(len(args))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		query += ` AND priority = $` + itoa(len(args))
	}
	if filter.MinScore > 0 {
		args = append(args, filter.MinScore)
		query += ` AND score >= $` + itoa(len(args))
	}
	query += ` ORDER BY score DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		var lead model.Lead
		if err := json.Unmarshal(data, &lead); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal lead")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

var newsColumns = []string{"id", "platform", "title", "url", "published_at", "category", "data"}

func (s *PostgresStore) InsertNewsItems(ctx context.Context, items []model.NewsItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	seen := make(map[string]bool, len(items))
	var rows [][]any
	for i := range items {
		item := &items[i]
		if seen[item.URL] {
			continue
		}
		seen[item.URL] = true
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		data, err := json.Marshal(item)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal news item")
		}
		rows = append(rows, []any{
			item.ID, item.SourcePlatform, item.Title, item.URL,
			item.PublishedAt.UTC(), item.Category, data,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "news_items",
		Columns:      newsColumns,
		ConflictKeys: []string{"url"},
		DoNothing:    true,
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert news items")
	}
	return int(n), nil
}

func (s *PostgresStore) ListNewsItems(ctx context.Context, limit int) ([]model.NewsItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM news_items ORDER BY published_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list news items")
	}
	defer rows.Close()

	var items []model.NewsItem
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan news item")
		}
		var item model.NewsItem
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal news item")
		}
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list news items iterate")
}

func (s *PostgresStore) ListSources(ctx context.Context, platform string) ([]model.NewsSource, error) {
	query := `SELECT platform, identifier, active FROM news_sources WHERE active`
	var args []any
	if platform != "" {
		args = append(args, platform)
		query += ` AND platform = $1`
	}
	query += ` ORDER BY platform, identifier`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sources")
	}
	defer rows.Close()

	var sources []model.NewsSource
	for rows.Next() {
		var src model.NewsSource
		if err := rows.Scan(&src.Platform, &src.Identifier, &src.Active); err != nil {
			return nil, eris.Wrap(err, "postgres: scan source")
		}
		sources = append(sources, src)
	}
	return sources, eris.Wrap(rows.Err(), "postgres: list sources iterate")
}

func (s *PostgresStore) UpsertSources(ctx context.Context, sources []model.NewsSource) error {
	for _, src := range sources {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO news_sources (platform, identifier, active) VALUES ($1, $2, $3)
			 ON CONFLICT (platform, identifier) DO UPDATE SET active = EXCLUDED.active`,
			src.Platform, src.Identifier, src.Active,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert source %s/%s", src.Platform, src.Identifier)
		}
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
