package store

import (
	"context"
	"sync"
	"time"

	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/storygraph"
)

// Memory keeps stories in a map. It is the fallback when DATABASE_URL is
// unset and the fake used by handler tests.
type Memory struct {
	mu      sync.RWMutex
	stories map[string]models.Story
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		stories: make(map[string]models.Story),
		now:     time.Now,
	}
}

func (m *Memory) List(_ context.Context, opts ListOptions) ([]models.Story, error) {
	m.mu.RLock()
	all := make([]models.Story, 0, len(m.stories))
	for _, s := range m.stories {
		all = append(all, storygraph.CloneStory(s))
	}
	m.mu.RUnlock()
	return Filter(all, opts), nil
}

func (m *Memory) Get(_ context.Context, id string) (models.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stories[id]
	if !ok {
		return models.Story{}, notFound(id)
	}
	return storygraph.CloneStory(s), nil
}

func (m *Memory) Create(_ context.Context, d Draft) (models.Story, error) {
	s, err := newStory(d, m.now())
	if err != nil {
		return models.Story{}, err
	}

	m.mu.Lock()
	m.stories[s.ID] = s
	m.mu.Unlock()
	return storygraph.CloneStory(s), nil
}

func (m *Memory) Update(_ context.Context, id string, p Patch) (models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[id]
	if !ok {
		return models.Story{}, notFound(id)
	}
	s, err := applyPatch(s, p, m.now())
	if err != nil {
		return models.Story{}, err
	}
	m.stories[id] = s
	return storygraph.CloneStory(s), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stories[id]; !ok {
		return notFound(id)
	}
	delete(m.stories, id)
	return nil
}

func (m *Memory) Duplicate(ctx context.Context, id string) (models.Story, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return models.Story{}, err
	}
	return m.Create(ctx, duplicateDraft(s))
}
