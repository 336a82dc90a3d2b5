package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/1rvyn/story-builder/models"
)

// Gorm stores stories as models.StoryRecord rows.
type Gorm struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db, now: time.Now}
}

func (g *Gorm) List(ctx context.Context, opts ListOptions) ([]models.Story, error) {
	var records []models.StoryRecord
	q := g.db.WithContext(ctx)
	if opts.Theme != "" {
		q = q.Where("theme = ?", string(opts.Theme))
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}

	stories := make([]models.Story, 0, len(records))
	for _, r := range records {
		stories = append(stories, r.ToStory())
	}
	return Filter(stories, opts), nil
}

func (g *Gorm) Get(ctx context.Context, id string) (models.Story, error) {
	r, err := g.find(ctx, g.db, id)
	if err != nil {
		return models.Story{}, err
	}
	return r.ToStory(), nil
}

func (g *Gorm) Create(ctx context.Context, d Draft) (models.Story, error) {
	s, err := newStory(d, g.now())
	if err != nil {
		return models.Story{}, err
	}
	r := models.NewStoryRecord(s)
	if err := g.db.WithContext(ctx).Create(&r).Error; err != nil {
		return models.Story{}, fmt.Errorf("create story: %w", err)
	}
	return r.ToStory(), nil
}

func (g *Gorm) Update(ctx context.Context, id string, p Patch) (models.Story, error) {
	var out models.Story
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := g.find(ctx, tx, id)
		if err != nil {
			return err
		}
		s, err := applyPatch(r.ToStory(), p, g.now())
		if err != nil {
			return err
		}
		updated := models.NewStoryRecord(s)
		if err := tx.Save(&updated).Error; err != nil {
			return fmt.Errorf("update story %s: %w", id, err)
		}
		out = updated.ToStory()
		return nil
	})
	return out, err
}

func (g *Gorm) Delete(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Delete(&models.StoryRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete story %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

func (g *Gorm) Duplicate(ctx context.Context, id string) (models.Story, error) {
	s, err := g.Get(ctx, id)
	if err != nil {
		return models.Story{}, err
	}
	return g.Create(ctx, duplicateDraft(s))
}

func (g *Gorm) find(ctx context.Context, db *gorm.DB, id string) (models.StoryRecord, error) {
	var r models.StoryRecord
	err := db.WithContext(ctx).First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r, notFound(id)
	}
	if err != nil {
		return r, fmt.Errorf("get story %s: %w", id, err)
	}
	return r, nil
}
