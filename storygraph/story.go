// Package storygraph holds the pure mutation helpers for the story graph.
//
// Every helper takes a value and returns a new one; inputs are never
// modified, so callers can detect a change by comparing snapshots. Scenes
// are addressed by position in the story's scene sequence, decisions and
// placed assets by id. Decision targets refer to scene ids and are never
// rewritten by structural edits: a target left pointing at a deleted scene
// is reported by DanglingReferences and fails at playback time.
package storygraph

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/1rvyn/story-builder/models"
)

const (
	// MaxDecisions caps the branch options on one scene.
	MaxDecisions = 3

	// DefaultTitle is used for stories created without a title.
	DefaultTitle = "New Story"
)

// NewID generates ids for scenes, decisions and placed assets. Tests swap
// it for a deterministic sequence.
var NewID = func() string {
	return uuid.NewString()
}

// NewStory returns a story seeded with one empty scene.
func NewStory(title string, theme models.Theme, now time.Time) models.Story {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	if !theme.Valid() {
		theme = models.DefaultTheme
	}
	return models.Story{
		Title:     title,
		Theme:     theme,
		Scenes:    []models.Scene{NewScene()},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewScene returns an empty scene with a fresh id.
func NewScene() models.Scene {
	return models.Scene{
		ID:        NewID(),
		Assets:    []models.PlacedAsset{},
		Decisions: []models.Decision{},
	}
}

// AddScene appends an empty scene. The new scene sits at the story's
// previous length.
func AddScene(story models.Story) models.Story {
	out := CloneStory(story)
	out.Scenes = append(out.Scenes, NewScene())
	return out
}

// DeleteScene removes the scene at index. Decisions elsewhere that target
// the removed scene are left untouched.
func DeleteScene(story models.Story, index int) (models.Story, error) {
	if len(story.Scenes) <= 1 {
		return story, ErrLastScene
	}
	if index < 0 || index >= len(story.Scenes) {
		return story, ErrIndexOutOfRange
	}
	out := CloneStory(story)
	out.Scenes = append(out.Scenes[:index], out.Scenes[index+1:]...)
	return out, nil
}

// ReorderScene moves the scene at from to position to, shifting the scenes
// in between by one.
func ReorderScene(story models.Story, from, to int) (models.Story, error) {
	n := len(story.Scenes)
	if from < 0 || from >= n || to < 0 || to >= n {
		return story, ErrIndexOutOfRange
	}
	out := CloneStory(story)
	if from == to {
		return out, nil
	}
	moved := out.Scenes[from]
	out.Scenes = append(out.Scenes[:from], out.Scenes[from+1:]...)
	out.Scenes = append(out.Scenes[:to], append([]models.Scene{moved}, out.Scenes[to:]...)...)
	return out, nil
}

// ReplaceScene swaps in scene at index.
func ReplaceScene(story models.Story, index int, scene models.Scene) (models.Story, error) {
	if index < 0 || index >= len(story.Scenes) {
		return story, ErrIndexOutOfRange
	}
	out := CloneStory(story)
	out.Scenes[index] = CloneScene(scene)
	return out, nil
}

// SceneIndex returns the position of the scene with id, or -1.
func SceneIndex(story models.Story, id string) int {
	for i, s := range story.Scenes {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// FindScene returns the scene with id and its position.
func FindScene(story models.Story, id string) (models.Scene, int, error) {
	i := SceneIndex(story, id)
	if i < 0 {
		return models.Scene{}, -1, notFound("scene", id)
	}
	return CloneScene(story.Scenes[i]), i, nil
}

// DanglingRef is a decision whose target cannot be resolved.
type DanglingRef struct {
	SceneID    string `json:"sceneId"`
	DecisionID string `json:"decisionId"`
	Text       string `json:"text"`
	// TargetSceneID is empty for decisions that were never connected.
	TargetSceneID string `json:"targetSceneId,omitempty"`
}

// DanglingReferences lists every decision that playback would refuse to
// follow: unconnected ones and ones pointing at a scene that no longer
// exists.
func DanglingReferences(story models.Story) []DanglingRef {
	var refs []DanglingRef
	for _, scene := range story.Scenes {
		for _, d := range scene.Decisions {
			if d.TargetSceneID == nil {
				refs = append(refs, DanglingRef{SceneID: scene.ID, DecisionID: d.ID, Text: d.Text})
				continue
			}
			if SceneIndex(story, *d.TargetSceneID) < 0 {
				refs = append(refs, DanglingRef{
					SceneID:       scene.ID,
					DecisionID:    d.ID,
					Text:          d.Text,
					TargetSceneID: *d.TargetSceneID,
				})
			}
		}
	}
	return refs
}

// Validate checks the rules the editing helpers enforce one edit at a
// time against a whole story, for stories that arrive in one piece from
// an API body or a story file.
func Validate(story models.Story) error {
	seen := make(map[string]bool, len(story.Scenes))
	for i, scene := range story.Scenes {
		if scene.ID == "" {
			return fmt.Errorf("scene %d: %w", i, ErrMissingSceneID)
		}
		if seen[scene.ID] {
			return fmt.Errorf("scene %q: %w", scene.ID, ErrDuplicateSceneID)
		}
		seen[scene.ID] = true

		if len(scene.Decisions) > MaxDecisions {
			return fmt.Errorf("scene %q: %w", scene.ID, ErrDecisionLimit)
		}
		for _, d := range scene.Decisions {
			if strings.TrimSpace(d.Text) == "" {
				return fmt.Errorf("scene %q decision %q: %w", scene.ID, d.ID, ErrEmptyDecisionText)
			}
		}
	}
	return nil
}

// StripAnimations clears every transient animation tag.
func StripAnimations(story models.Story) models.Story {
	out := CloneStory(story)
	for i := range out.Scenes {
		for j := range out.Scenes[i].Assets {
			out.Scenes[i].Assets[j].Animation = ""
		}
	}
	return out
}

// CloneStory deep-copies a story.
func CloneStory(story models.Story) models.Story {
	out := story
	if story.Scenes != nil {
		out.Scenes = make([]models.Scene, len(story.Scenes))
		for i, s := range story.Scenes {
			out.Scenes[i] = CloneScene(s)
		}
	}
	return out
}

// CloneScene deep-copies a scene.
func CloneScene(scene models.Scene) models.Scene {
	out := scene
	out.Background = cloneString(scene.Background)
	out.AudioURL = cloneString(scene.AudioURL)
	if scene.Assets != nil {
		out.Assets = make([]models.PlacedAsset, len(scene.Assets))
		copy(out.Assets, scene.Assets)
	}
	if scene.Decisions != nil {
		out.Decisions = make([]models.Decision, len(scene.Decisions))
		for i, d := range scene.Decisions {
			d.TargetSceneID = cloneString(d.TargetSceneID)
			out.Decisions[i] = d
		}
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
