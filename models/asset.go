package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AssetType is the catalog category an asset belongs to.
type AssetType string

const (
	AssetCharacter  AssetType = "character"
	AssetBackground AssetType = "background"
	AssetProp       AssetType = "prop"
)

// AssetTypes lists the catalog categories in panel order.
var AssetTypes = []AssetType{AssetCharacter, AssetBackground, AssetProp}

// ParseAssetType accepts both the singular and the plural category name.
func ParseAssetType(s string) (AssetType, bool) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	for _, t := range AssetTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Position is a point in canvas pixel coordinates.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Bounds is the size of the canvas viewport.
type Bounds struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// PlacedAsset is a catalog asset positioned inside one scene. Animation is a
// transient presentation tag; stores strip it before writing.
type PlacedAsset struct {
	ID        string    `json:"id" yaml:"id"`
	Type      AssetType `json:"type" yaml:"type"`
	AssetID   string    `json:"assetId" yaml:"assetId"`
	Position  Position  `json:"position" yaml:"position"`
	Animation string    `json:"animation,omitempty" yaml:"-"`
}

// AssetSummary is the normalized catalog entry handed to the editor.
type AssetSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Theme      Theme     `json:"theme"`
	ImageRef   string    `json:"imageUrl"`
	Animations []string  `json:"animations"`
	Type       AssetType `json:"type"`
}

// CatalogAsset is the catalog table row. Column names follow the remote
// record store so seeded and synced rows share one schema.
type CatalogAsset struct {
	ID         uint      `gorm:"primaryKey" toml:"-"`
	Name       string    `gorm:"column:name;not null" toml:"name"`
	Category   string    `gorm:"column:category;index;not null" toml:"category"`
	Theme      string    `gorm:"column:theme;index" toml:"theme"`
	ImageURL   string    `gorm:"column:image_url" toml:"image_url"`
	Animations string    `gorm:"column:animations" toml:"animations"`
	CreatedAt  time.Time `toml:"-"`
}

func (CatalogAsset) TableName() string {
	return "catalog_assets"
}

// DragPayload is what the asset browser puts on the drag-and-drop transfer.
type DragPayload struct {
	Type    AssetType    `json:"type"`
	AssetID string       `json:"assetId"`
	Asset   AssetSummary `json:"asset"`
}

var ErrInvalidPayload = errors.New("invalid drag payload")

// ParseDragPayload decodes and checks a serialized drag payload.
func ParseDragPayload(data []byte) (DragPayload, error) {
	var p DragPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return DragPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return DragPayload{}, err
	}
	return p, nil
}

// Validate checks the payload fields after decoding.
func (p *DragPayload) Validate() error {
	t, ok := ParseAssetType(string(p.Type))
	if !ok {
		return fmt.Errorf("%w: unknown asset type %q", ErrInvalidPayload, p.Type)
	}
	p.Type = t
	if strings.TrimSpace(p.AssetID) == "" {
		return fmt.Errorf("%w: missing assetId", ErrInvalidPayload)
	}
	return nil
}
