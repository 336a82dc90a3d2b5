package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/1rvyn/story-builder/models"
)

// ClipIndex maps clip ids and URLs to the blob that holds the audio. It
// must outlive the process whenever the blobs do, or stored URLs stop
// resolving after a restart.
type ClipIndex interface {
	Save(ctx context.Context, c Clip) error
	Get(ctx context.Context, id string) (Clip, error)
	FindByURL(ctx context.Context, url string) (Clip, error)
	Delete(ctx context.Context, id string) error
}

// MemoryClips keeps the index in a map. It pairs with MemoryBlobs.
type MemoryClips struct {
	mu    sync.RWMutex
	clips map[string]Clip
}

func NewMemoryClips() *MemoryClips {
	return &MemoryClips{clips: make(map[string]Clip)}
}

func (m *MemoryClips) Save(_ context.Context, c Clip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clips[c.ID] = c
	return nil
}

func (m *MemoryClips) Get(_ context.Context, id string) (Clip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clips[id]
	if !ok {
		return Clip{}, ErrClipNotFound
	}
	return c, nil
}

func (m *MemoryClips) FindByURL(_ context.Context, url string) (Clip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.clips {
		if c.URL == url {
			return c, nil
		}
	}
	return Clip{}, ErrClipNotFound
}

func (m *MemoryClips) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clips, id)
	return nil
}

// GormClips stores the index as models.AudioClip rows.
type GormClips struct {
	db *gorm.DB
}

func NewGormClips(db *gorm.DB) *GormClips {
	return &GormClips{db: db}
}

func (g *GormClips) Save(ctx context.Context, c Clip) error {
	row := models.AudioClip{
		ID:          c.ID,
		Key:         c.Key,
		URL:         c.URL,
		ContentType: c.ContentType,
		Size:        c.Size,
		DurationMS:  c.Duration.Milliseconds(),
		CreatedAt:   c.CreatedAt,
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save clip %s: %w", c.ID, err)
	}
	return nil
}

func (g *GormClips) Get(ctx context.Context, id string) (Clip, error) {
	return g.first(ctx, "id = ?", id)
}

func (g *GormClips) FindByURL(ctx context.Context, url string) (Clip, error) {
	return g.first(ctx, "url = ?", url)
}

func (g *GormClips) Delete(ctx context.Context, id string) error {
	if err := g.db.WithContext(ctx).Delete(&models.AudioClip{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete clip %s: %w", id, err)
	}
	return nil
}

func (g *GormClips) first(ctx context.Context, query string, arg string) (Clip, error) {
	var row models.AudioClip
	err := g.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Clip{}, ErrClipNotFound
	}
	if err != nil {
		return Clip{}, fmt.Errorf("find clip: %w", err)
	}
	return Clip{
		ID:          row.ID,
		URL:         row.URL,
		Key:         row.Key,
		ContentType: row.ContentType,
		Size:        row.Size,
		Duration:    time.Duration(row.DurationMS) * time.Millisecond,
		CreatedAt:   row.CreatedAt,
	}, nil
}
