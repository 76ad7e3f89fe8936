// Package store defines the persistence contracts for transcript records.
//
// A [Record] is keyed by the Mux playback ID of a video asset and holds the
// computed caption segments alongside the opaque raw transcript payload the
// segments were derived from (kept for audit and reprocessing). Records are
// replaced wholesale on write — there are no partial-field updates and no
// optimistic concurrency token; the last write wins.
//
// The PostgreSQL implementation lives in the postgres subpackage.
package store

import (
	"context"
	"errors"

	"github.com/Narevka/toknowai/pkg/caption"
)

// DefaultLanguage is the language code recorded for newly computed
// transcripts. The course material is Polish.
const DefaultLanguage = "pl"

// ErrNotFound is returned by [TranscriptStore.Get] when no record exists for
// the given playback ID.
var ErrNotFound = errors.New("store: transcript not found")

// Record is a persisted transcript keyed by playback ID.
type Record struct {
	// PlaybackID names the video asset this transcript belongs to.
	PlaybackID string

	// Segments is the ordered caption segment sequence. May be empty for a
	// malformed legacy record; callers treat an empty sequence as a cache
	// miss and recompute.
	Segments []caption.Segment

	// RawData is the opaque original transcript payload as fetched from the
	// source. Kept verbatim so segments can be recomputed later.
	RawData []byte

	// Language is an ISO-ish language code, [DefaultLanguage] when unset.
	Language string
}

// TranscriptStore is the narrow persistence interface used by the cache
// gateway. Implementations must be safe for concurrent use.
type TranscriptStore interface {
	// Get returns the record stored under playbackID, or [ErrNotFound] when
	// no such record exists.
	Get(ctx context.Context, playbackID string) (*Record, error)

	// Upsert stores rec under rec.PlaybackID, replacing any existing record
	// wholesale.
	Upsert(ctx context.Context, rec Record) error
}

// SearchHit is a single full-text search result.
type SearchHit struct {
	// PlaybackID identifies the video whose transcript matched.
	PlaybackID string `json:"playbackId"`

	// Snippet is a short highlighted extract around the match.
	Snippet string `json:"snippet"`
}

// Searcher performs keyword search over stored transcript text.
type Searcher interface {
	// Search returns up to limit transcripts matching query, best match
	// first. An empty result is a nil or empty slice, not an error.
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}
