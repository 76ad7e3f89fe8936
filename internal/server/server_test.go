package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Narevka/toknowai/internal/catalog"
	"github.com/Narevka/toknowai/internal/store"
	"github.com/Narevka/toknowai/pkg/caption"
)

type fakeReader struct {
	segments map[string][]caption.Segment
	calls    int
}

func (f *fakeReader) Get(_ context.Context, playbackID, _ string) []caption.Segment {
	f.calls++
	if s, ok := f.segments[playbackID]; ok {
		return s
	}
	return []caption.Segment{}
}

type fakeResolver struct {
	segments       []caption.Segment
	resolveCalls   int
	recomputeCalls int
}

func (f *fakeResolver) Resolve(_ context.Context, _, _ string) []caption.Segment {
	f.resolveCalls++
	return f.segments
}

func (f *fakeResolver) Recompute(_ context.Context, _, _ string) []caption.Segment {
	f.recomputeCalls++
	return f.segments
}

type fakeSearcher struct {
	hits []store.SearchHit
	err  error

	lastQuery string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]store.SearchHit, error) {
	f.lastQuery = query
	return f.hits, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadFromReader(strings.NewReader(`
courses:
  - slug: flowise-ai
    title: "Flowise AI"
    description: "Kurs Flowise."
    modules:
      - title: "Wprowadzenie"
        lessons:
          - id: lesson-1
            title: "Czym jest Flowise?"
            description: "Wstęp\n\nFlowise to narzędzie open source. Działa w przeglądarce."
            playback_id: "mux:abc"
            source_file: "1.json"
`))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func newTestServer(opts Options) *httptest.Server {
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return httptest.NewServer(New(opts).Handler())
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func TestGetTranscript_ReaderHit(t *testing.T) {
	rd := &fakeReader{segments: map[string][]caption.Segment{
		"mux:abc": {{Text: "Witaj w kursie", StartTime: 0, EndTime: 1.2}},
	}}
	rs := &fakeResolver{}
	ts := newTestServer(Options{Reader: rd, Resolver: rs})
	defer ts.Close()

	var got []caption.Segment
	resp := getJSON(t, ts.URL+"/api/transcripts/mux:abc?source=1.json", &got)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if len(got) != 1 || got[0].Text != "Witaj w kursie" {
		t.Errorf("segments = %+v, want the cached segment", got)
	}
	if rs.resolveCalls != 0 {
		t.Errorf("resolver called %d times on a reader hit, want 0", rs.resolveCalls)
	}
}

func TestGetTranscript_FallsThroughToResolver(t *testing.T) {
	rd := &fakeReader{}
	rs := &fakeResolver{segments: []caption.Segment{{Text: "policzone", StartTime: 0, EndTime: 2}}}
	ts := newTestServer(Options{Reader: rd, Resolver: rs})
	defer ts.Close()

	var got []caption.Segment
	getJSON(t, ts.URL+"/api/transcripts/mux:abc", &got)

	if rs.resolveCalls != 1 {
		t.Errorf("resolver called %d times, want 1", rs.resolveCalls)
	}
	if len(got) != 1 || got[0].Text != "policzone" {
		t.Errorf("segments = %+v, want resolved segment", got)
	}
}

func TestGetTranscript_EmptyEverywhereIsEmptyArray(t *testing.T) {
	ts := newTestServer(Options{Reader: &fakeReader{}, Resolver: &fakeResolver{segments: []caption.Segment{}}})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/transcripts/mux:abc")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestReprocess_ForcesRecompute(t *testing.T) {
	rs := &fakeResolver{segments: []caption.Segment{{Text: "nowe", StartTime: 0, EndTime: 1}}}
	ts := newTestServer(Options{Reader: &fakeReader{}, Resolver: rs})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/transcripts/mux:abc/reprocess?source=2.json", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if rs.recomputeCalls != 1 {
		t.Errorf("recompute called %d times, want 1", rs.recomputeCalls)
	}
	if rs.resolveCalls != 0 {
		t.Errorf("resolve called %d times, want 0", rs.resolveCalls)
	}
}

func TestSearch(t *testing.T) {
	sr := &fakeSearcher{hits: []store.SearchHit{{PlaybackID: "mux:abc", Snippet: "…Flowise…"}}}
	ts := newTestServer(Options{Reader: &fakeReader{}, Resolver: &fakeResolver{}, Searcher: sr})
	defer ts.Close()

	var got []store.SearchHit
	resp := getJSON(t, ts.URL+"/api/transcripts/search?q=flowise", &got)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if sr.lastQuery != "flowise" {
		t.Errorf("query = %q, want flowise", sr.lastQuery)
	}
	if len(got) != 1 || got[0].PlaybackID != "mux:abc" {
		t.Errorf("hits = %+v", got)
	}
}

func TestSearch_MissingQuery(t *testing.T) {
	ts := newTestServer(Options{Reader: &fakeReader{}, Resolver: &fakeResolver{}, Searcher: &fakeSearcher{}})
	defer ts.Close()

	resp := getJSON(t, ts.URL+"/api/transcripts/search", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearch_BackendFailureYieldsEmptyList(t *testing.T) {
	sr := &fakeSearcher{err: errors.New("connection refused")}
	ts := newTestServer(Options{Reader: &fakeReader{}, Resolver: &fakeResolver{}, Searcher: sr})
	defer ts.Close()

	var got []store.SearchHit
	resp := getJSON(t, ts.URL+"/api/transcripts/search?q=x", &got)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if len(got) != 0 {
		t.Errorf("hits = %+v, want empty", got)
	}
}

func TestSearch_NotConfigured(t *testing.T) {
	ts := newTestServer(Options{Reader: &fakeReader{}, Resolver: &fakeResolver{}})
	defer ts.Close()

	resp := getJSON(t, ts.URL+"/api/transcripts/search?q=x", nil)
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", resp.StatusCode)
	}
}

func TestListCourses(t *testing.T) {
	ts := newTestServer(Options{Reader: &fakeReader{}, Resolver: &fakeResolver{}, Catalog: testCatalog(t)})
	defer ts.Close()

	var got []courseSummary
	resp := getJSON(t, ts.URL+"/api/courses", &got)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if len(got) != 1 || got[0].Slug != "flowise-ai" {
		t.Errorf("courses = %+v", got)
	}
}

func TestGetCourse_FormatsLessonDescriptions(t *testing.T) {
	ts := newTestServer(Options{Reader: &fakeReader{}, Resolver: &fakeResolver{}, Catalog: testCatalog(t)})
	defer ts.Close()

	var got courseDetail
	resp := getJSON(t, ts.URL+"/api/courses/flowise-ai", &got)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if len(got.Modules) != 1 || len(got.Modules[0].Lessons) != 1 {
		t.Fatalf("course detail = %+v", got)
	}
	blocks := got.Modules[0].Lessons[0].DescriptionBlocks
	if len(blocks) != 2 {
		t.Fatalf("got %d description blocks, want 2: %+v", len(blocks), blocks)
	}
	if blocks[0].Kind != "heading" {
		t.Errorf("first block kind = %q, want heading", blocks[0].Kind)
	}
	if blocks[1].Kind != "paragraph" {
		t.Errorf("second block kind = %q, want paragraph", blocks[1].Kind)
	}
}

func TestGetCourse_NotFound(t *testing.T) {
	ts := newTestServer(Options{Reader: &fakeReader{}, Resolver: &fakeResolver{}, Catalog: testCatalog(t)})
	defer ts.Close()

	resp := getJSON(t, ts.URL+"/api/courses/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestProbesRegistered(t *testing.T) {
	ts := newTestServer(Options{Reader: &fakeReader{}, Resolver: &fakeResolver{}})
	defer ts.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp := getJSON(t, ts.URL+path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestCorrelationIDHeaderEchoesIncomingTrace(t *testing.T) {
	ts := newTestServer(Options{Reader: &fakeReader{}, Resolver: &fakeResolver{}})
	defer ts.Close()

	req, err := http.NewRequest("GET", ts.URL+"/healthz", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Correlation-ID"); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("X-Correlation-ID = %q, want the incoming trace ID", got)
	}
}
