package storygraph

import (
	"math"
	"strings"

	"github.com/1rvyn/story-builder/models"
)

// AssetFootprint is the edge length in pixels of the square every placed
// asset occupies on the canvas.
const AssetFootprint = 96.0

// DecisionPatch is a partial decision update. ClearTarget disconnects the
// decision and wins over TargetSceneID.
type DecisionPatch struct {
	Text          *string
	TargetSceneID *string
	ClearTarget   bool
}

// AddDecision appends an unconnected decision with the trimmed text.
func AddDecision(scene models.Scene, text string) (models.Scene, error) {
	if len(scene.Decisions) >= MaxDecisions {
		return scene, ErrDecisionLimit
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return scene, ErrEmptyDecisionText
	}
	out := CloneScene(scene)
	out.Decisions = append(out.Decisions, models.Decision{
		ID:   NewID(),
		Text: text,
	})
	return out, nil
}

// UpdateDecision merges patch into the decision with id. An unknown id
// returns a NotFoundError.
func UpdateDecision(scene models.Scene, id string, patch DecisionPatch) (models.Scene, error) {
	idx := -1
	for i, d := range scene.Decisions {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return scene, notFound("decision", id)
	}

	var text string
	if patch.Text != nil {
		text = strings.TrimSpace(*patch.Text)
		if text == "" {
			return scene, ErrEmptyDecisionText
		}
	}

	out := CloneScene(scene)
	d := &out.Decisions[idx]
	if patch.Text != nil {
		d.Text = text
	}
	switch {
	case patch.ClearTarget:
		d.TargetSceneID = nil
	case patch.TargetSceneID != nil:
		d.TargetSceneID = cloneString(patch.TargetSceneID)
	}
	return out, nil
}

// RemoveDecision drops the decision with id. Unknown ids are ignored.
func RemoveDecision(scene models.Scene, id string) models.Scene {
	out := CloneScene(scene)
	kept := out.Decisions[:0]
	for _, d := range out.Decisions {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	out.Decisions = kept
	return out
}

// CenterOnPointer converts a drop point into the top-left corner of an
// asset centred under the pointer.
func CenterOnPointer(pointer models.Position) models.Position {
	return models.Position{
		X: pointer.X - AssetFootprint/2,
		Y: pointer.Y - AssetFootprint/2,
	}
}

// ClampPosition keeps an asset's footprint inside the canvas. A canvas
// smaller than the footprint pins the asset to the origin.
func ClampPosition(raw models.Position, bounds models.Bounds) models.Position {
	return models.Position{
		X: math.Max(0, math.Min(raw.X, bounds.Width-AssetFootprint)),
		Y: math.Max(0, math.Min(raw.Y, bounds.Height-AssetFootprint)),
	}
}

// PlaceAsset drops a catalog asset onto the scene at the clamped position.
func PlaceAsset(scene models.Scene, asset models.AssetSummary, raw models.Position, bounds models.Bounds) models.Scene {
	out := CloneScene(scene)
	out.Assets = append(out.Assets, models.PlacedAsset{
		ID:       NewID(),
		Type:     asset.Type,
		AssetID:  asset.ID,
		Position: ClampPosition(raw, bounds),
	})
	return out
}

// MoveAsset sets the position of the placed asset with id.
func MoveAsset(scene models.Scene, id string, pos models.Position) (models.Scene, error) {
	return updateAsset(scene, id, func(a *models.PlacedAsset) { a.Position = pos })
}

// SetAssetAnimation sets the transient animation tag. An empty tag returns
// the asset to rest.
func SetAssetAnimation(scene models.Scene, id, tag string) (models.Scene, error) {
	return updateAsset(scene, id, func(a *models.PlacedAsset) { a.Animation = tag })
}

// DeleteAsset removes the placed asset with id. Unknown ids are ignored.
func DeleteAsset(scene models.Scene, id string) models.Scene {
	out := CloneScene(scene)
	kept := out.Assets[:0]
	for _, a := range out.Assets {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	out.Assets = kept
	return out
}

// SetBackground replaces the scene background; nil clears it.
func SetBackground(scene models.Scene, ref *string) models.Scene {
	out := CloneScene(scene)
	out.Background = cloneString(ref)
	return out
}

// SetAudio replaces the narration reference; nil clears it.
func SetAudio(scene models.Scene, url *string) models.Scene {
	out := CloneScene(scene)
	out.AudioURL = cloneString(url)
	return out
}

func updateAsset(scene models.Scene, id string, fn func(*models.PlacedAsset)) (models.Scene, error) {
	for i, a := range scene.Assets {
		if a.ID == id {
			out := CloneScene(scene)
			fn(&out.Assets[i])
			return out, nil
		}
	}
	return scene, notFound("asset", id)
}
