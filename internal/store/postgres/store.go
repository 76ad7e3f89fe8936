package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Narevka/toknowai/internal/store"
	"github.com/Narevka/toknowai/pkg/caption"
)

// Compile-time interface checks.
var (
	_ store.TranscriptStore = (*Store)(nil)
	_ store.Searcher        = (*Store)(nil)
)

// Store is the PostgreSQL-backed transcript store. Obtain one via [NewStore].
// All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore establishes a connection pool to the PostgreSQL database at dsn,
// verifies connectivity, and runs [Migrate] to ensure the schema exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Get implements [store.TranscriptStore]. It returns [store.ErrNotFound] when
// no record exists for playbackID.
//
// Segments are decoded through encoding/json, so elements missing a text or
// timing field come back zero-valued rather than failing the read — legacy
// rows written by the previous front-end are tolerated.
func (s *Store) Get(ctx context.Context, playbackID string) (*store.Record, error) {
	const q = `
		SELECT segments, raw_data, language
		FROM   transcripts
		WHERE  playback_id = $1`

	var (
		segmentsJSON []byte
		rawData      []byte
		language     string
	)
	err := s.pool.QueryRow(ctx, q, playbackID).Scan(&segmentsJSON, &rawData, &language)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: get %q: %w", playbackID, err)
	}

	var segments []caption.Segment
	if len(segmentsJSON) > 0 {
		if err := json.Unmarshal(segmentsJSON, &segments); err != nil {
			return nil, fmt.Errorf("postgres store: get %q: decode segments: %w", playbackID, err)
		}
	}

	return &store.Record{
		PlaybackID: playbackID,
		Segments:   segments,
		RawData:    rawData,
		Language:   language,
	}, nil
}

// Upsert implements [store.TranscriptStore]. The record is replaced wholesale
// keyed by playback ID; concurrent writers race benignly (last write wins,
// and identical raw payloads segment identically).
func (s *Store) Upsert(ctx context.Context, rec store.Record) error {
	if rec.PlaybackID == "" {
		return errors.New("postgres store: upsert: playback ID must not be empty")
	}

	language := rec.Language
	if language == "" {
		language = store.DefaultLanguage
	}

	segmentsJSON, err := json.Marshal(rec.Segments)
	if err != nil {
		return fmt.Errorf("postgres store: upsert %q: encode segments: %w", rec.PlaybackID, err)
	}

	// raw_data is a JSONB column; an empty payload is stored as SQL NULL.
	var rawData any
	if len(rec.RawData) > 0 {
		rawData = rec.RawData
	}

	const q = `
		INSERT INTO transcripts (playback_id, segments, raw_data, language, search_text, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (playback_id) DO UPDATE
		SET segments    = EXCLUDED.segments,
		    raw_data    = EXCLUDED.raw_data,
		    language    = EXCLUDED.language,
		    search_text = EXCLUDED.search_text,
		    updated_at  = now()`

	_, err = s.pool.Exec(ctx, q,
		rec.PlaybackID,
		segmentsJSON,
		rawData,
		language,
		searchText(rec.Segments),
	)
	if err != nil {
		return fmt.Errorf("postgres store: upsert %q: %w", rec.PlaybackID, err)
	}
	return nil
}

// Search implements [store.Searcher] via PostgreSQL full-text search over the
// search_text column. The query is passed through plainto_tsquery, so no
// operator syntax is required.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]store.SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}

	const q = `
		SELECT playback_id,
		       ts_headline('simple', search_text, plainto_tsquery('simple', $1)) AS snippet
		FROM   transcripts
		WHERE  to_tsvector('simple', search_text) @@ plainto_tsquery('simple', $1)
		ORDER  BY ts_rank(to_tsvector('simple', search_text), plainto_tsquery('simple', $1)) DESC
		LIMIT  $2`

	rows, err := s.pool.Query(ctx, q, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres store: search: %w", err)
	}

	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.SearchHit, error) {
		var h store.SearchHit
		if err := row.Scan(&h.PlaybackID, &h.Snippet); err != nil {
			return store.SearchHit{}, err
		}
		return h, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan search rows: %w", err)
	}
	return hits, nil
}

// Ping probes database connectivity. Used by the readiness checker.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres store: ping: %w", err)
	}
	return nil
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// searchText flattens segment text into a single space-joined string for the
// full-text index.
func searchText(segments []caption.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " ")
}
