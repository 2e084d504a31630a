// Package store persists content entities, their per-locale
// translations, and the configuration key/value table on SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/content"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS content_entities (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS translations (
		entity_id TEXT NOT NULL,
		locale TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		requirements TEXT NOT NULL DEFAULT '',
		benefits TEXT NOT NULL DEFAULT '',
		features TEXT NOT NULL DEFAULT '[]',
		slug TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (entity_id, locale),
		FOREIGN KEY (entity_id) REFERENCES content_entities(id)
	);

	CREATE TABLE IF NOT EXISTS config_entries (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_translations_entity ON translations(entity_id);
	CREATE INDEX IF NOT EXISTS idx_entities_domain ON content_entities(domain);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateEntity inserts an entity together with its canonical-locale
// translation in one transaction, so an entity never exists without
// its canonical row.
func (s *Store) CreateEntity(ctx context.Context, entity content.Entity, canonical content.Translation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO content_entities (id, domain, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		entity.ID, entity.Domain, entity.CreatedAt, entity.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert entity: %w", err)
	}

	if err := upsertTranslation(ctx, tx, canonical); err != nil {
		return fmt.Errorf("insert canonical translation: %w", err)
	}

	return tx.Commit()
}

// ReplaceCanonical overwrites the canonical translation and bumps the
// entity's updated_at in one transaction.
func (s *Store) ReplaceCanonical(ctx context.Context, canonical content.Translation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE content_entities SET updated_at = ? WHERE id = ?`,
		canonical.UpdatedAt, canonical.EntityID)
	if err != nil {
		return fmt.Errorf("touch entity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entity %s: %w", canonical.EntityID, ErrNotFound)
	}

	if err := upsertTranslation(ctx, tx, canonical); err != nil {
		return fmt.Errorf("replace canonical translation: %w", err)
	}

	return tx.Commit()
}

func (s *Store) GetEntity(ctx context.Context, id string) (*content.Entity, error) {
	var e content.Entity
	err := s.db.QueryRowContext(ctx,
		`SELECT id, domain, created_at, updated_at FROM content_entities WHERE id = ?`,
		id).Scan(&e.ID, &e.Domain, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const translationColumns = `entity_id, locale, title, body, position, location, requirements, benefits, features, slug, created_at, updated_at`

func upsertTranslation(ctx context.Context, db execer, tr content.Translation) error {
	features, err := json.Marshal(tr.Attributes.Features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO translations (`+translationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_id, locale) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			position = excluded.position,
			location = excluded.location,
			requirements = excluded.requirements,
			benefits = excluded.benefits,
			features = excluded.features,
			slug = excluded.slug,
			updated_at = excluded.updated_at`,
		tr.EntityID, tr.Locale,
		tr.Attributes.Title, tr.Attributes.Body,
		tr.Attributes.Position, tr.Attributes.Location,
		tr.Attributes.Requirements, tr.Attributes.Benefits,
		string(features), tr.Slug, tr.CreatedAt, tr.UpdatedAt)
	return err
}

// UpsertTranslation inserts a translation row or fully replaces the
// existing one for the same (entity_id, locale).
func (s *Store) UpsertTranslation(ctx context.Context, tr content.Translation) error {
	return upsertTranslation(ctx, s.db, tr)
}

// UpsertTranslations writes several translation rows in a single
// transaction; either all land or none do.
func (s *Store) UpsertTranslations(ctx context.Context, trs []content.Translation) error {
	if len(trs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, tr := range trs {
		if err := upsertTranslation(ctx, tx, tr); err != nil {
			return fmt.Errorf("upsert translation %s/%s: %w", tr.EntityID, tr.Locale, err)
		}
	}

	return tx.Commit()
}

func scanTranslation(scan func(dest ...interface{}) error) (content.Translation, error) {
	var tr content.Translation
	var features string
	err := scan(&tr.EntityID, &tr.Locale,
		&tr.Attributes.Title, &tr.Attributes.Body,
		&tr.Attributes.Position, &tr.Attributes.Location,
		&tr.Attributes.Requirements, &tr.Attributes.Benefits,
		&features, &tr.Slug, &tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		return tr, err
	}
	if err := json.Unmarshal([]byte(features), &tr.Attributes.Features); err != nil {
		return tr, fmt.Errorf("decode features: %w", err)
	}
	return tr, nil
}

func (s *Store) GetTranslation(ctx context.Context, entityID, locale string) (*content.Translation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+translationColumns+` FROM translations WHERE entity_id = ? AND locale = ?`,
		entityID, locale)
	tr, err := scanTranslation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("translation %s/%s: %w", entityID, locale, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

// ListTranslations returns every translation row for an entity,
// canonical included, ordered by locale.
func (s *Store) ListTranslations(ctx context.Context, entityID string) ([]content.Translation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+translationColumns+` FROM translations WHERE entity_id = ? ORDER BY locale`,
		entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []content.Translation
	for rows.Next() {
		tr, err := scanTranslation(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, tr)
	}
	return results, rows.Err()
}

func (s *Store) DeleteTranslation(ctx context.Context, entityID, locale string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM translations WHERE entity_id = ? AND locale = ?`, entityID, locale)
	return err
}

// GetValue reads a configuration value; ErrNotFound when absent.
func (s *Store) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM config_entries WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("config %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetValue writes a configuration value, replacing any previous one.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO config_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now())
	return err
}

func (s *Store) DeleteValue(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM config_entries WHERE key = ?`, key)
	return err
}

// IsNotFound reports whether err means a missing row. Satisfies the
// credential cache's KeyStore interface.
func (s *Store) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func (s *Store) Close() error {
	return s.db.Close()
}
