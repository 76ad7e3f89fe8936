package transcripts

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Narevka/toknowai/internal/observe"
	"github.com/Narevka/toknowai/internal/store"
	"github.com/Narevka/toknowai/pkg/caption"
)

// defaultFreshFor is the freshness window of the in-process read cache.
// Matches the staleness the lesson pages tolerated historically.
const defaultFreshFor = 5 * time.Minute

// cacheEntry is one cached read result. Entries are replaced atomically as
// whole values; readers never observe a partial write.
type cacheEntry struct {
	segments  []caption.Segment
	fetchedAt time.Time
}

// Reader is the fetch facade: the read-only access path used by display
// components. It checks the persistent store for an existing record, caches
// results in-process for a fixed freshness window, and coalesces concurrent
// requests for the same key into a single store query.
//
// Reader never triggers segmentation or raw-source retrieval — populating
// the store is the [Resolver]'s job. Pre-shipped local transcript files are
// not supported in this deployment and are never consulted.
//
// Reader is safe for concurrent use.
type Reader struct {
	store    store.TranscriptStore
	freshFor time.Duration
	logger   *slog.Logger
	metrics  *observe.Metrics

	// now is stubbed in tests to step through the freshness window.
	now func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
	group singleflight.Group
}

// NewReader creates a [Reader] over st. freshFor <= 0 selects the default
// 5-minute freshness window. A nil logger falls back to [slog.Default]; nil
// metrics fall back to [observe.DefaultMetrics].
func NewReader(st store.TranscriptStore, freshFor time.Duration, logger *slog.Logger, metrics *observe.Metrics) *Reader {
	if freshFor <= 0 {
		freshFor = defaultFreshFor
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Reader{
		store:    st,
		freshFor: freshFor,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
		cache:    make(map[string]cacheEntry),
	}
}

// Get returns the stored caption segments for playbackID.
//
// An empty playbackID is inert: Get returns an empty slice immediately with
// no store access. Within the freshness window, repeated requests for the
// same (playbackID, sourceFile) pair are served from the in-process cache;
// expired entries are treated as absent. Concurrent requests for the same
// key share a single store query.
//
// The returned slice is never nil. Get never returns an error: a failed or
// empty lookup yields an empty slice.
func (r *Reader) Get(ctx context.Context, playbackID, sourceFile string) []caption.Segment {
	if playbackID == "" {
		return []caption.Segment{}
	}

	key := playbackID + "\x00" + sourceFile

	if segments, ok := r.cached(key); ok {
		r.metrics.RecordReaderCacheLookup(ctx, "hit")
		return segments
	}
	r.metrics.RecordReaderCacheLookup(ctx, "miss")

	v, _, _ := r.group.Do(key, func() (any, error) {
		segments := r.lookup(ctx, playbackID)

		r.mu.Lock()
		r.cache[key] = cacheEntry{segments: segments, fetchedAt: r.now()}
		r.mu.Unlock()

		return segments, nil
	})
	return v.([]caption.Segment)
}

// cached returns the fresh cache entry for key, if any.
func (r *Reader) cached(key string) ([]caption.Segment, bool) {
	r.mu.RLock()
	entry, ok := r.cache[key]
	r.mu.RUnlock()

	if !ok || r.now().Sub(entry.fetchedAt) >= r.freshFor {
		return nil, false
	}
	return entry.segments, true
}

// lookup queries the persistent store once. Absence and failure both come
// back as an empty slice.
func (r *Reader) lookup(ctx context.Context, playbackID string) []caption.Segment {
	rec, err := r.store.Get(ctx, playbackID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return []caption.Segment{}
	case err != nil:
		r.logger.Warn("transcript store read failed",
			"playback_id", playbackID, "err", err)
		return []caption.Segment{}
	}

	if len(rec.Segments) == 0 {
		return []caption.Segment{}
	}
	return rec.Segments
}
