// Package server wires the transcript pipeline, course catalog, and
// operational probes into the HTTP API.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Narevka/toknowai/internal/catalog"
	"github.com/Narevka/toknowai/internal/health"
	"github.com/Narevka/toknowai/internal/lessonfmt"
	"github.com/Narevka/toknowai/internal/observe"
	"github.com/Narevka/toknowai/internal/store"
	"github.com/Narevka/toknowai/pkg/caption"
)

// TranscriptReader is the cached read path for transcript requests.
type TranscriptReader interface {
	Get(ctx context.Context, playbackID, sourceFile string) []caption.Segment
}

// TranscriptResolver computes and stores transcripts on demand.
type TranscriptResolver interface {
	Resolve(ctx context.Context, playbackID, sourceFile string) []caption.Segment
	Recompute(ctx context.Context, playbackID, sourceFile string) []caption.Segment
}

// Options carries the collaborators of a [Server]. Reader and Resolver are
// required; the rest degrade gracefully when absent: a nil Searcher disables
// /api/transcripts/search, a nil Catalog disables /api/courses.
type Options struct {
	Reader   TranscriptReader
	Resolver TranscriptResolver
	Searcher store.Searcher
	Catalog  *catalog.Catalog
	Health   *health.Handler
	Logger   *slog.Logger
	Metrics  *observe.Metrics
}

// Server serves the ToKnowAI HTTP API.
type Server struct {
	reader   TranscriptReader
	resolver TranscriptResolver
	searcher store.Searcher
	catalog  *catalog.Catalog
	health   *health.Handler
	logger   *slog.Logger
	metrics  *observe.Metrics
}

// New creates a [Server] from opts. A nil logger falls back to
// [slog.Default]; nil metrics fall back to [observe.DefaultMetrics]; a nil
// health handler gets a checker-less one.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observe.DefaultMetrics()
	}
	if opts.Health == nil {
		opts.Health = health.New()
	}
	return &Server{
		reader:   opts.Reader,
		resolver: opts.Resolver,
		searcher: opts.Searcher,
		catalog:  opts.Catalog,
		health:   opts.Health,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Handler builds the routed handler with telemetry middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/transcripts/search", s.handleSearch)
	mux.HandleFunc("GET /api/transcripts/{playbackID}", s.handleGetTranscript)
	mux.HandleFunc("POST /api/transcripts/{playbackID}/reprocess", s.handleReprocess)

	mux.HandleFunc("GET /api/courses", s.handleListCourses)
	mux.HandleFunc("GET /api/courses/{slug}", s.handleGetCourse)

	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(s.metrics)(mux)
}

// handleGetTranscript is the display read path. The cached reader answers
// first; when it has nothing, the resolver computes the transcript from
// source and stores it. The response is always a JSON array of segments,
// empty on any failure.
func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	playbackID := r.PathValue("playbackID")
	sourceFile := r.URL.Query().Get("source")

	segments := s.reader.Get(r.Context(), playbackID, sourceFile)
	if len(segments) == 0 && playbackID != "" {
		segments = s.resolver.Resolve(r.Context(), playbackID, sourceFile)
	}

	writeJSON(w, http.StatusOK, segments)
}

// handleReprocess forces recomputation from source, replacing whatever the
// store holds. Returns the freshly computed segments.
func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	playbackID := r.PathValue("playbackID")
	sourceFile := r.URL.Query().Get("source")

	segments := s.resolver.Recompute(r.Context(), playbackID, sourceFile)
	writeJSON(w, http.StatusOK, segments)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		writeError(w, http.StatusNotImplemented, "search is not configured")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	hits, err := s.searcher.Search(r.Context(), query, 0)
	if err != nil {
		s.logger.Warn("transcript search failed", "query", query, "err", err)
		hits = []store.SearchHit{}
	}
	if hits == nil {
		hits = []store.SearchHit{}
	}
	writeJSON(w, http.StatusOK, hits)
}

// courseSummary is the list-endpoint shape: the module tree is omitted.
type courseSummary struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusNotImplemented, "catalog is not configured")
		return
	}

	summaries := make([]courseSummary, 0, len(s.catalog.Courses))
	for _, c := range s.catalog.Courses {
		summaries = append(summaries, courseSummary{
			Slug:        c.Slug,
			Title:       c.Title,
			Description: c.Description,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// lessonDetail augments a catalog lesson with its description pre-formatted
// into display blocks.
type lessonDetail struct {
	catalog.Lesson
	DescriptionBlocks []lessonfmt.Block `json:"descriptionBlocks"`
}

type moduleDetail struct {
	Title   string         `json:"title"`
	Lessons []lessonDetail `json:"lessons"`
}

type courseDetail struct {
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Modules     []moduleDetail `json:"modules"`
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusNotImplemented, "catalog is not configured")
		return
	}

	course, err := s.catalog.BySlug(r.PathValue("slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	detail := courseDetail{
		Slug:        course.Slug,
		Title:       course.Title,
		Description: course.Description,
		Modules:     make([]moduleDetail, 0, len(course.Modules)),
	}
	for _, mod := range course.Modules {
		md := moduleDetail{Title: mod.Title, Lessons: make([]lessonDetail, 0, len(mod.Lessons))}
		for _, lesson := range mod.Lessons {
			md.Lessons = append(md.Lessons, lessonDetail{
				Lesson:            lesson,
				DescriptionBlocks: lessonfmt.Format(lesson.Description),
			})
		}
		detail.Modules = append(detail.Modules, md)
	}
	writeJSON(w, http.StatusOK, detail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
