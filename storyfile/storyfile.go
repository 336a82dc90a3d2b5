// Package storyfile reads and writes stories as YAML documents.
package storyfile

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/storygraph"
)

var ErrNoScenes = errors.New("story file has no scenes")

// Marshal encodes story as YAML. Animation tags are never written.
func Marshal(story models.Story) ([]byte, error) {
	return yaml.Marshal(story)
}

// Unmarshal decodes a story. Unknown themes fall back to the default and
// missing lists come back empty rather than nil. A story that breaks the
// scene or decision rules is rejected.
func Unmarshal(data []byte) (models.Story, error) {
	var story models.Story
	if err := yaml.Unmarshal(data, &story); err != nil {
		return models.Story{}, fmt.Errorf("parse story file: %w", err)
	}
	if len(story.Scenes) == 0 {
		return models.Story{}, ErrNoScenes
	}
	if !story.Theme.Valid() {
		story.Theme = models.DefaultTheme
	}
	for i := range story.Scenes {
		sc := &story.Scenes[i]
		if sc.Assets == nil {
			sc.Assets = []models.PlacedAsset{}
		}
		if sc.Decisions == nil {
			sc.Decisions = []models.Decision{}
		}
	}
	if err := storygraph.Validate(story); err != nil {
		return models.Story{}, fmt.Errorf("parse story file: %w", err)
	}
	return story, nil
}

// Write saves story to path.
func Write(story models.Story, path string) error {
	data, err := Marshal(story)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Read loads a story from path.
func Read(path string) (models.Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Story{}, err
	}
	return Unmarshal(data)
}
