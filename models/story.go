package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Story is the top-level narrative unit. Scene order is both the default
// playback order and the timeline order shown in the editor.
type Story struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Theme     Theme     `json:"theme" yaml:"theme"`
	Scenes    []Scene   `json:"scenes" yaml:"scenes"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Scene is one narrative beat.
type Scene struct {
	ID         string        `json:"id" yaml:"id"`
	Background *string       `json:"background" yaml:"background,omitempty"`
	Assets     []PlacedAsset `json:"assets" yaml:"assets"`
	AudioURL   *string       `json:"audioUrl" yaml:"audioUrl,omitempty"`
	Decisions  []Decision    `json:"decisions" yaml:"decisions"`
}

// Decision is a labeled branch option. A nil TargetSceneID is a dangling
// decision that cannot be followed during playback.
type Decision struct {
	ID            string  `json:"id" yaml:"id"`
	Text          string  `json:"text" yaml:"text"`
	TargetSceneID *string `json:"targetSceneId" yaml:"targetSceneId,omitempty"`
}

// HasDecisions reports whether the scene branches.
func (s Scene) HasDecisions() bool {
	return len(s.Decisions) > 0
}

// StoryRecord is the database row for a story. Scenes are kept as a single
// JSON column since every edit replaces the whole sequence.
type StoryRecord struct {
	ID        string                      `gorm:"primaryKey;size:64"`
	Title     string                      `gorm:"not null"`
	Theme     string                      `gorm:"index;not null"`
	Scenes    datatypes.JSONType[[]Scene] `gorm:"type:json;not null"`
	CreatedAt time.Time                   `gorm:"index"`
	UpdatedAt time.Time                   `gorm:"index"`
	DeletedAt gorm.DeletedAt              `gorm:"index"`
}

func (StoryRecord) TableName() string {
	return "stories"
}

// ToStory converts the row into the domain shape.
func (r StoryRecord) ToStory() Story {
	theme, ok := ParseTheme(r.Theme)
	if !ok {
		theme = DefaultTheme
	}
	return Story{
		ID:        r.ID,
		Title:     r.Title,
		Theme:     theme,
		Scenes:    r.Scenes.Data(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// NewStoryRecord builds the row for a story.
func NewStoryRecord(s Story) StoryRecord {
	return StoryRecord{
		ID:        s.ID,
		Title:     s.Title,
		Theme:     string(s.Theme),
		Scenes:    datatypes.NewJSONType(s.Scenes),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
