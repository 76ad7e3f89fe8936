// Package catalog defines the course structure served by the API: courses
// contain modules, modules contain lessons, and each lesson points at a Mux
// video playback ID plus the transcript source file published alongside it.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lesson is a single video lesson within a module.
type Lesson struct {
	// ID identifies the lesson within its course (e.g., "lesson-2").
	ID string `yaml:"id" json:"id"`

	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// PlaybackID is the Mux playback identifier, carried with the "mux:"
	// prefix (e.g., "mux:sVNBwFHQgCVEWdSxKXS6velVne46puDs").
	PlaybackID string `yaml:"playback_id" json:"playbackId"`

	// SourceFile names the raw transcript file published for this lesson
	// under the configured source base URL (e.g., "2.json"). Empty means no
	// transcript exists yet.
	SourceFile string `yaml:"source_file,omitempty" json:"sourceFile,omitempty"`
}

// Module groups consecutive lessons under a shared title.
type Module struct {
	Title   string   `yaml:"title" json:"title"`
	Lessons []Lesson `yaml:"lessons" json:"lessons"`
}

// Course is a published course with its full module tree.
type Course struct {
	// Slug is the URL-safe course identifier (e.g., "flowise-ai").
	Slug string `yaml:"slug" json:"slug"`

	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Modules     []Module `yaml:"modules" json:"modules"`
}

// Catalog is the loaded course tree. It is immutable after loading and safe
// for concurrent reads.
type Catalog struct {
	Courses []Course `yaml:"courses" json:"courses"`

	bySlug map[string]*Course
}

// ErrCourseNotFound is returned by [Catalog.BySlug] for unknown slugs.
var ErrCourseNotFound = errors.New("catalog: course not found")

// Load reads and validates the catalog YAML file at path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	defer f.Close()

	c, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
	}
	return c, nil
}

// LoadFromReader decodes a catalog from r and validates it.
func LoadFromReader(r io.Reader) (*Catalog, error) {
	c := &Catalog{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	c.bySlug = make(map[string]*Course, len(c.Courses))
	for i := range c.Courses {
		c.bySlug[c.Courses[i].Slug] = &c.Courses[i]
	}
	return c, nil
}

// BySlug returns the course with the given slug, or [ErrCourseNotFound].
func (c *Catalog) BySlug(slug string) (*Course, error) {
	course, ok := c.bySlug[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCourseNotFound, slug)
	}
	return course, nil
}

// LessonByPlaybackID returns the lesson carrying playbackID, searching the
// whole catalog, or nil if no lesson references it.
func (c *Catalog) LessonByPlaybackID(playbackID string) *Lesson {
	for ci := range c.Courses {
		for mi := range c.Courses[ci].Modules {
			lessons := c.Courses[ci].Modules[mi].Lessons
			for li := range lessons {
				if lessons[li].PlaybackID == playbackID {
					return &lessons[li]
				}
			}
		}
	}
	return nil
}

func (c *Catalog) validate() error {
	var errs []error

	slugs := make(map[string]bool)
	for _, course := range c.Courses {
		if course.Slug == "" {
			errs = append(errs, fmt.Errorf("catalog: course %q has no slug", course.Title))
		} else if slugs[course.Slug] {
			errs = append(errs, fmt.Errorf("catalog: duplicate course slug %q", course.Slug))
		}
		slugs[course.Slug] = true

		lessonIDs := make(map[string]bool)
		for _, mod := range course.Modules {
			for _, lesson := range mod.Lessons {
				if lesson.ID == "" {
					errs = append(errs, fmt.Errorf("catalog: course %q: lesson %q has no id", course.Slug, lesson.Title))
					continue
				}
				if lessonIDs[lesson.ID] {
					errs = append(errs, fmt.Errorf("catalog: course %q: duplicate lesson id %q", course.Slug, lesson.ID))
				}
				lessonIDs[lesson.ID] = true
				if lesson.PlaybackID != "" && !strings.HasPrefix(lesson.PlaybackID, "mux:") {
					errs = append(errs, fmt.Errorf("catalog: course %q: lesson %q: playback id %q lacks the mux: prefix", course.Slug, lesson.ID, lesson.PlaybackID))
				}
			}
		}
	}

	return errors.Join(errs...)
}
