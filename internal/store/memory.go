// Package store publishes merged translation tables to PostgreSQL as a
// translation memory.
package store

import (
	"context"
	"fmt"

	"locmerge/internal/merge"
	"locmerge/internal/textutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS translation_memory (
	source_hash TEXT PRIMARY KEY,
	source_text TEXT NOT NULL,
	target_text TEXT NOT NULL,
	file        TEXT NOT NULL DEFAULT '',
	section     TEXT NOT NULL DEFAULT '',
	key         TEXT NOT NULL DEFAULT '',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSQL = `
INSERT INTO translation_memory (source_hash, source_text, target_text, file, section, key)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (source_hash) DO UPDATE
SET target_text = EXCLUDED.target_text,
    file = EXCLUDED.file,
    section = EXCLUDED.section,
    key = EXCLUDED.key,
    updated_at = now()`

// TranslationMemory upserts merged entries keyed by the hash of the source text.
type TranslationMemory struct {
	db        DB
	batchSize int
}

// NewTranslationMemory creates a store over a pool-like handle.
func NewTranslationMemory(db DB, batchSize int) *TranslationMemory {
	if batchSize < 1 {
		batchSize = 1
	}
	return &TranslationMemory{db: db, batchSize: batchSize}
}

// Connect opens and pings a PostgreSQL pool.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}

// EnsureSchema creates the translation_memory table if needed.
func (tm *TranslationMemory) EnsureSchema(ctx context.Context) error {
	if _, err := tm.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create translation_memory: %w", err)
	}
	return nil
}

// Publish upserts entries, one transaction per batch. It returns the number
// of rows written before any failure.
func (tm *TranslationMemory) Publish(ctx context.Context, entries []merge.Entry) (int, error) {
	written := 0
	for i, batch := range chunk(entries, tm.batchSize) {
		if err := tm.publishBatch(ctx, batch); err != nil {
			return written, fmt.Errorf("publish batch %d: %w", i+1, err)
		}
		written += len(batch)
		log.Debug().Int("batch", i+1).Int("size", len(batch)).Msg("Published batch")
	}

	log.Info().Int("entries", written).Msg("Published translation memory")
	return written, nil
}

func (tm *TranslationMemory) publishBatch(ctx context.Context, batch []merge.Entry) error {
	tx, err := tm.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	for _, e := range batch {
		_, err := tx.Exec(ctx, upsertSQL,
			textutil.Hash(e.Source),
			e.Source,
			e.Target,
			e.File,
			e.Section,
			e.Key,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("upsert %q: %w", textutil.Truncate(e.Source, 30), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// chunk splits items into consecutive slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		out = append(out, items[i:end])
	}
	return out
}
