// Package transcripts reconciles persisted caption segments with on-demand
// computation and provides the read path used by lesson display components.
//
// Two collaborators live here:
//
//   - [Resolver] is the cache gateway: it enforces "compute once, reuse
//     thereafter". A stored record with at least one segment is returned
//     verbatim; otherwise the raw transcript is fetched, segmented, written
//     back, and returned.
//   - [Reader] is the fetch facade: a staleness-controlled, coalesced view of
//     the persistent store for display components. It never triggers
//     computation.
//
// Neither type ever surfaces an error to its caller. Every failure path —
// malformed payload, transport failure, store read or write failure —
// degrades to an empty-but-valid segment slice plus a diagnostic log entry,
// so a transient backend issue shows up as "no captions" rather than a broken
// lesson page.
package transcripts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Narevka/toknowai/internal/observe"
	"github.com/Narevka/toknowai/internal/source"
	"github.com/Narevka/toknowai/internal/store"
	"github.com/Narevka/toknowai/pkg/caption"
)

// Resolver is the cache gateway between the segmenter and persistent storage.
//
// Resolver holds no per-request state and takes no locks: segmentation is
// pure and deterministic, so two near-simultaneous first-time resolutions for
// the same playback ID race benignly — both compute the same segments and the
// last store write wins. The duplicate work is accepted in exchange for a
// lock-free hot path.
type Resolver struct {
	store   store.TranscriptStore
	src     source.Fetcher
	logger  *slog.Logger
	metrics *observe.Metrics
}

// NewResolver creates a [Resolver] backed by st and src. A nil logger falls
// back to [slog.Default]; nil metrics fall back to [observe.DefaultMetrics].
func NewResolver(st store.TranscriptStore, src source.Fetcher, logger *slog.Logger, metrics *observe.Metrics) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Resolver{
		store:   st,
		src:     src,
		logger:  logger,
		metrics: metrics,
	}
}

// Resolve returns the caption segments for playbackID, computing and
// persisting them on first request.
//
// The sequence is strict: store read → raw fetch → segmentation → store
// write → return. A stored record with at least one segment short-circuits
// after the first step — neither the raw source nor the segmenter is touched
// on a cache hit. A store write failure does not downgrade a local success:
// the freshly computed segments are still returned, and the next request
// simply repeats the computation.
//
// The returned slice is never nil. Resolve never returns an error.
func (r *Resolver) Resolve(ctx context.Context, playbackID, sourceFile string) []caption.Segment {
	ctx, span := observe.StartSpan(ctx, "transcripts.Resolve")
	defer span.End()
	start := time.Now()
	defer func() {
		r.metrics.ResolveDuration.Record(ctx, time.Since(start).Seconds())
	}()

	rec, err := r.store.Get(ctx, playbackID)
	switch {
	case err == nil && len(rec.Segments) > 0:
		r.metrics.RecordStoreLookup(ctx, "hit")
		return rec.Segments
	case err == nil || errors.Is(err, store.ErrNotFound):
		// Absent, or a malformed legacy record with no segments — either
		// way a cache miss; fall through to recomputation.
		r.metrics.RecordStoreLookup(ctx, "miss")
	default:
		// A failed read is treated as a miss rather than an outage.
		r.metrics.RecordStoreLookup(ctx, "error")
		r.logger.Warn("transcript store read failed, recomputing",
			"playback_id", playbackID, "err", err)
	}

	return r.compute(ctx, playbackID, sourceFile)
}

// Recompute fetches, segments, and persists the transcript for playbackID
// unconditionally, bypassing any stored record. Used by the admin reprocess
// path when a transcript needs to be rebuilt from source.
//
// Like [Resolver.Resolve] it never returns an error; failures yield an empty
// slice.
func (r *Resolver) Recompute(ctx context.Context, playbackID, sourceFile string) []caption.Segment {
	ctx, span := observe.StartSpan(ctx, "transcripts.Recompute")
	defer span.End()
	return r.compute(ctx, playbackID, sourceFile)
}

// compute runs the miss path: raw fetch → segmentation → write-back.
func (r *Resolver) compute(ctx context.Context, playbackID, sourceFile string) []caption.Segment {
	data, err := r.src.Fetch(ctx, sourceFile)
	if err != nil {
		r.metrics.RecordSourceFetch(ctx, "error")
		r.logger.Warn("raw transcript fetch failed",
			"playback_id", playbackID, "source_file", sourceFile, "err", err)
		return []caption.Segment{}
	}
	r.metrics.RecordSourceFetch(ctx, "ok")

	segStart := time.Now()
	segments, err := caption.FromRaw(data)
	r.metrics.SegmentationDuration.Record(ctx, time.Since(segStart).Seconds())
	if err != nil {
		r.logger.Warn("raw transcript payload is malformed",
			"playback_id", playbackID, "source_file", sourceFile, "err", err)
		return []caption.Segment{}
	}

	if len(segments) > 0 {
		rec := store.Record{
			PlaybackID: playbackID,
			Segments:   segments,
			RawData:    data,
			Language:   store.DefaultLanguage,
		}
		if err := r.store.Upsert(ctx, rec); err != nil {
			// Local success is not downgraded by a remote persistence
			// failure; the segments are returned regardless.
			r.metrics.RecordStoreWrite(ctx, "error")
			r.logger.Warn("transcript write-back failed",
				"playback_id", playbackID, "err", err)
		} else {
			r.metrics.RecordStoreWrite(ctx, "ok")
			r.logger.Info("transcript computed and stored",
				"playback_id", playbackID, "segments", len(segments))
		}
	}

	return segments
}
