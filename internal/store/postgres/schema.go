// Package postgres provides the PostgreSQL-backed implementation of the
// transcript store.
//
// All operations share a single [pgxpool.Pool]. Caption segments and the raw
// source payload are stored as JSONB; a concatenated search_text column with
// a GIN full-text index backs keyword search across transcripts.
//
// Usage:
//
//	st, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer st.Close()
//
//	rec, err := st.Get(ctx, playbackID)
//	_ = st.Upsert(ctx, rec)
//	hits, _ := st.Search(ctx, "flowise", 10)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlTranscripts = `
CREATE TABLE IF NOT EXISTS transcripts (
    playback_id  TEXT        PRIMARY KEY,
    segments     JSONB       NOT NULL DEFAULT '[]'::jsonb,
    raw_data     JSONB,
    language     TEXT        NOT NULL DEFAULT 'pl',
    search_text  TEXT        NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// The 'simple' text search configuration is deliberate: the corpus is Polish
// and the default 'english' stemmer would mangle it. 'simple' tokenises
// without stemming, which is good enough for keyword lookup.
const ddlSearchIndex = `
CREATE INDEX IF NOT EXISTS transcripts_search_idx
    ON transcripts
    USING GIN (to_tsvector('simple', search_text))`

// Migrate creates the transcripts table and its search index if they do not
// exist. It is safe to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range []string{ddlTranscripts, ddlSearchIndex} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("postgres store: migrate: %w", err)
		}
	}
	return nil
}
