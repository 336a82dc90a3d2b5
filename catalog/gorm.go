package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"gorm.io/gorm"

	"github.com/1rvyn/story-builder/models"
)

// Gorm reads assets from the catalog_assets table.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) ListByCategoryAndTheme(ctx context.Context, category models.AssetType, theme models.Theme) ([]models.AssetSummary, error) {
	category, ok := models.ParseAssetType(string(category))
	if !ok {
		return nil, ErrUnknownCategory
	}
	q := g.db.WithContext(ctx).Where("category = ?", string(category))
	if theme != "" {
		q = q.Where("theme = ?", string(theme))
	}

	var rows []models.CatalogAsset
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	out := make([]models.AssetSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, Normalize(r))
	}
	return out, nil
}

func (g *Gorm) Get(ctx context.Context, category models.AssetType, id string) (models.AssetSummary, error) {
	category, ok := models.ParseAssetType(string(category))
	if !ok {
		return models.AssetSummary{}, ErrUnknownCategory
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return models.AssetSummary{}, notFound(category, id)
	}
	var row models.CatalogAsset
	err = g.db.WithContext(ctx).
		Where("category = ?", string(category)).
		First(&row, n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AssetSummary{}, notFound(category, id)
	}
	if err != nil {
		return models.AssetSummary{}, fmt.Errorf("get asset %s: %w", id, err)
	}
	return Normalize(row), nil
}

// SeedDatabase inserts seed into an empty catalog table. It reports how
// many rows were written; a table that already has rows is left alone.
func SeedDatabase(ctx context.Context, db *gorm.DB, seed Seed) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.CatalogAsset{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count catalog rows: %w", err)
	}
	if count > 0 {
		log.Printf("Catalog already has %d assets, skipping seed", count)
		return 0, nil
	}
	if len(seed.Assets) == 0 {
		return 0, nil
	}

	rows := make([]models.CatalogAsset, len(seed.Assets))
	copy(rows, seed.Assets)
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	log.Printf("Seeded catalog with %d assets", len(rows))
	return len(rows), nil
}
