// Package store persists stories.
//
// Two implementations share the Store interface: Memory, used when no
// database is configured, and Gorm, backed by the stories table. Both strip
// transient animation tags before writing and keep scene ids intact, so
// decision targets survive a round trip.
package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/storygraph"
)

// CopySuffix is appended to the title of a duplicated story.
const CopySuffix = " (Copy)"

var (
	// ErrNotFound matches every missing-story error returned by a Store.
	ErrNotFound = storygraph.ErrNotFound

	// ErrNoScenes rejects writes that would leave a story empty.
	ErrNoScenes = errors.New("a story needs at least one scene")
)

type Store interface {
	List(ctx context.Context, opts ListOptions) ([]models.Story, error)
	Get(ctx context.Context, id string) (models.Story, error)
	Create(ctx context.Context, d Draft) (models.Story, error)
	Update(ctx context.Context, id string, p Patch) (models.Story, error)
	Delete(ctx context.Context, id string) error
	Duplicate(ctx context.Context, id string) (models.Story, error)
}

// Draft is the input to Create. Zero fields get defaults.
type Draft struct {
	Title  string         `json:"title"`
	Theme  models.Theme   `json:"theme"`
	Scenes []models.Scene `json:"scenes"`
}

// Patch is the input to Update. Nil fields are left alone.
type Patch struct {
	Title  *string        `json:"title"`
	Theme  *models.Theme  `json:"theme"`
	Scenes []models.Scene `json:"scenes"`
}

// SortBy orders List results.
type SortBy string

const (
	SortUpdated SortBy = "updated"
	SortCreated SortBy = "created"
	SortTitle   SortBy = "title"
)

// ParseSortBy maps a query value to a SortBy, falling back to SortUpdated.
func ParseSortBy(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortCreated:
		return SortCreated
	case SortTitle:
		return SortTitle
	default:
		return SortUpdated
	}
}

type ListOptions struct {
	Query  string
	Theme  models.Theme
	SortBy SortBy
}

// Filter applies opts to stories and returns a new, sorted slice.
func Filter(stories []models.Story, opts ListOptions) []models.Story {
	q := strings.ToLower(strings.TrimSpace(opts.Query))
	out := make([]models.Story, 0, len(stories))
	for _, s := range stories {
		if opts.Theme != "" && s.Theme != opts.Theme {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(s.Title), q) &&
			!strings.Contains(strings.ToLower(string(s.Theme)), q) {
			continue
		}
		out = append(out, s)
	}

	switch opts.SortBy {
	case SortTitle:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		})
	case SortCreated:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		})
	}
	return out
}

// newStory builds the story Create persists.
func newStory(d Draft, now time.Time) (models.Story, error) {
	s := storygraph.NewStory(d.Title, d.Theme, now)
	if len(d.Scenes) > 0 {
		s.Scenes = d.Scenes
	}
	if err := storygraph.Validate(s); err != nil {
		return models.Story{}, err
	}
	s.ID = storygraph.NewID()
	return storygraph.StripAnimations(s), nil
}

// applyPatch returns s with p applied.
func applyPatch(s models.Story, p Patch, now time.Time) (models.Story, error) {
	if p.Scenes != nil && len(p.Scenes) == 0 {
		return s, ErrNoScenes
	}
	out := storygraph.CloneStory(s)
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			title = storygraph.DefaultTitle
		}
		out.Title = title
	}
	if p.Theme != nil {
		if p.Theme.Valid() {
			out.Theme = *p.Theme
		}
	}
	if p.Scenes != nil {
		out.Scenes = p.Scenes
		if err := storygraph.Validate(out); err != nil {
			return s, err
		}
	}
	out.UpdatedAt = now
	return storygraph.StripAnimations(out), nil
}

// duplicateDraft is the Create input for a copy of s.
func duplicateDraft(s models.Story) Draft {
	c := storygraph.CloneStory(s)
	return Draft{
		Title:  c.Title + CopySuffix,
		Theme:  c.Theme,
		Scenes: c.Scenes,
	}
}

func notFound(id string) error {
	return &storygraph.NotFoundError{Kind: "story", ID: id}
}
