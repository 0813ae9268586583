package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/flowassist/flow-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "flowassist.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY,
	company_name TEXT NOT NULL,
	platform     TEXT NOT NULL,
	url          TEXT NOT NULL,
	score        REAL NOT NULL,
	priority     TEXT NOT NULL,
	data         TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(company_name, platform)
);

CREATE TABLE IF NOT EXISTS news_items (
	id           TEXT PRIMARY KEY,
	platform     TEXT NOT NULL,
	title        TEXT NOT NULL,
	url          TEXT NOT NULL UNIQUE,
	published_at DATETIME NOT NULL,
	category     TEXT NOT NULL,
	data         TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS news_sources (
	platform   TEXT NOT NULL,
	identifier TEXT NOT NULL,
	active     INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (platform, identifier)
);

CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score DESC);
CREATE INDEX IF NOT EXISTS idx_leads_priority ON leads(priority);
CREATE INDEX IF NOT EXISTS idx_news_items_published_at ON news_items(published_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertLeads(ctx context.Context, leads []model.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	count := 0
	for i := range leads {
		lead := &leads[i]
		data, err := json.Marshal(lead)
		if err != nil {
			return count, eris.Wrap(err, "sqlite: marshal lead")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO leads (id, company_name, platform, url, score, priority, data, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(company_name, platform) DO UPDATE SET
				url = excluded.url,
				score = excluded.score,
				priority = excluded.priority,
				data = excluded.data,
				updated_at = excluded.updated_at`,
			uuid.New().String(), lead.CompanyName(), string(lead.Platform), lead.URL,
			lead.Scoring.Score, string(lead.Scoring.Priority), string(data), now, now,
		)
		if err != nil {
			return count, eris.Wrapf(err, "sqlite: upsert lead %s", lead.CompanyName())
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit leads")
	}
	return count, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT data FROM leads WHERE 1=1`
	var args []any

	if filter.Platform != "" {
		query += ` AND platform = ?`
		args = append(args, string(filter.Platform))
	}
	if filter.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, string(filter.Priority))
	}
	if filter.MinScore > 0 {
		query += ` AND score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY score DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		var lead model.Lead
		if err := json.Unmarshal([]byte(data), &lead); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal lead")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) InsertNewsItems(ctx context.Context, items []model.NewsItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	count := 0
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		data, err := json.Marshal(item)
		if err != nil {
			return count, eris.Wrap(err, "sqlite: marshal news item")
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO news_items (id, platform, title, url, published_at, category, data)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(url) DO NOTHING`,
			item.ID, item.SourcePlatform, item.Title, item.URL, item.PublishedAt.UTC(), item.Category, string(data),
		)
		if err != nil {
			return count, eris.Wrapf(err, "sqlite: insert news item %s", item.URL)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return count, eris.Wrap(err, "sqlite: rows affected")
		}
		count += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit news items")
	}
	return count, nil
}

func (s *SQLiteStore) ListNewsItems(ctx context.Context, limit int) ([]model.NewsItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM news_items ORDER BY published_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list news items")
	}
	defer rows.Close()

	var items []model.NewsItem
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan news item")
		}
		var item model.NewsItem
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal news item")
		}
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list news items iterate")
}

func (s *SQLiteStore) ListSources(ctx context.Context, platform string) ([]model.NewsSource, error) {
	query := `SELECT platform, identifier, active FROM news_sources WHERE active = 1`
	var args []any
	if platform != "" {
		query += ` AND platform = ?`
		args = append(args, platform)
	}
	query += ` ORDER BY platform, identifier`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sources")
	}
	defer rows.Close()

	var sources []model.NewsSource
	for rows.Next() {
		var src model.NewsSource
		var active int
		if err := rows.Scan(&src.Platform, &src.Identifier, &active); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source")
		}
		src.Active = active != 0
		sources = append(sources, src)
	}
	return sources, eris.Wrap(rows.Err(), "sqlite: list sources iterate")
}

func (s *SQLiteStore) UpsertSources(ctx context.Context, sources []model.NewsSource) error {
	if len(sources) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, src := range sources {
		active := 0
		if src.Active {
			active = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO news_sources (platform, identifier, active) VALUES (?, ?, ?)
			 ON CONFLICT(platform, identifier) DO UPDATE SET active = excluded.active`,
			src.Platform, src.Identifier, active,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert source %s/%s", src.Platform, src.Identifier)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit sources")
}
