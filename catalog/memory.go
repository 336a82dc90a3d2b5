package catalog

import (
	"context"

	"github.com/1rvyn/story-builder/models"
)

// Memory serves a fixed set of assets. Rows get ids in seed order
// starting at 1, the same ids a freshly seeded table assigns.
type Memory struct {
	assets []models.AssetSummary
}

func NewMemory(seed Seed) *Memory {
	m := &Memory{}
	for i, row := range seed.Assets {
		row.ID = uint(i + 1)
		m.assets = append(m.assets, Normalize(row))
	}
	return m
}

func (m *Memory) ListByCategoryAndTheme(_ context.Context, category models.AssetType, theme models.Theme) ([]models.AssetSummary, error) {
	category, ok := models.ParseAssetType(string(category))
	if !ok {
		return nil, ErrUnknownCategory
	}
	out := []models.AssetSummary{}
	for _, a := range m.assets {
		if a.Type != category {
			continue
		}
		if theme != "" && a.Theme != theme {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, category models.AssetType, id string) (models.AssetSummary, error) {
	category, ok := models.ParseAssetType(string(category))
	if !ok {
		return models.AssetSummary{}, ErrUnknownCategory
	}
	for _, a := range m.assets {
		if a.Type == category && a.ID == id {
			return a, nil
		}
	}
	return models.AssetSummary{}, notFound(category, id)
}
