package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/storygraph"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		row  models.CatalogAsset
		want models.AssetSummary
	}{
		{
			name: "character defaults",
			row:  models.CatalogAsset{ID: 4, Name: "Knight", Category: "character", Theme: "fantasy", ImageURL: "k.png"},
			want: models.AssetSummary{ID: "4", Name: "Knight", Theme: models.ThemeFantasy, ImageRef: "k.png",
				Animations: []string{"walk", "jump", "wave"}, Type: models.AssetCharacter},
		},
		{
			name: "prop with explicit animations",
			row:  models.CatalogAsset{ID: 9, Name: "Chest", Category: "props", Theme: "space", Animations: "sparkle, bounce,"},
			want: models.AssetSummary{ID: "9", Name: "Chest", Theme: models.ThemeSpace,
				Animations: []string{"sparkle", "bounce"}, Type: models.AssetProp},
		},
		{
			name: "background has none",
			row:  models.CatalogAsset{ID: 1, Name: "Sky", Category: "background", Theme: "bogus"},
			want: models.AssetSummary{ID: "1", Name: "Sky", Theme: models.DefaultTheme,
				Animations: []string{}, Type: models.AssetBackground},
		},
		{
			name: "blank name",
			row:  models.CatalogAsset{ID: 2, Category: "prop", Theme: "adventure"},
			want: models.AssetSummary{ID: "2", Name: "Untitled prop", Theme: models.ThemeAdventure,
				Animations: []string{"sparkle"}, Type: models.AssetProp},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.row))
		})
	}
}

func TestDefaultSeedCoversEveryTheme(t *testing.T) {
	seed, err := DefaultSeed()
	require.NoError(t, err)
	require.NotEmpty(t, seed.Assets)

	c := NewMemory(seed)
	for _, theme := range models.Themes {
		grouped, err := ListAll(context.Background(), c, theme)
		require.NoError(t, err)
		assert.NotEmpty(t, grouped.Characters, "characters for %s", theme)
		assert.NotEmpty(t, grouped.Backgrounds, "backgrounds for %s", theme)
		assert.NotEmpty(t, grouped.Props, "props for %s", theme)
	}
}

func TestLoadSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[asset]]
name = "Cat"
category = "character"
theme = "space"
`), 0o644))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Assets, 1)
	assert.Equal(t, "Cat", seed.Assets[0].Name)

	_, err = LoadSeed(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	_, err = ParseSeed([]byte("[[asset]]\nname = \"X\"\ncategory = \"vehicle\"\n"))
	assert.ErrorIs(t, err, ErrUnknownCategory)

	def, err := LoadSeed("")
	require.NoError(t, err)
	assert.NotEmpty(t, def.Assets)
}

func TestMemoryLookups(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(Seed{Assets: []models.CatalogAsset{
		{Name: "Knight", Category: "character", Theme: "fantasy"},
		{Name: "Robot", Category: "character", Theme: "space"},
		{Name: "Moon", Category: "background", Theme: "space"},
	}})

	all, err := c.ListByCategoryAndTheme(ctx, models.AssetCharacter, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	space, err := c.ListByCategoryAndTheme(ctx, "characters", models.ThemeSpace)
	require.NoError(t, err)
	require.Len(t, space, 1)
	assert.Equal(t, "Robot", space[0].Name)
	assert.Equal(t, "2", space[0].ID)

	_, err = c.ListByCategoryAndTheme(ctx, "vehicle", "")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	got, err := c.Get(ctx, models.AssetBackground, "3")
	require.NoError(t, err)
	assert.Equal(t, "Moon", got.Name)

	_, err = c.Get(ctx, models.AssetProp, "3")
	assert.ErrorIs(t, err, storygraph.ErrNotFound)
}

type failingCatalog struct {
	*Memory
	fail models.AssetType
}

func (f failingCatalog) ListByCategoryAndTheme(ctx context.Context, category models.AssetType, theme models.Theme) ([]models.AssetSummary, error) {
	if category == f.fail {
		return nil, errors.New("remote down")
	}
	return f.Memory.ListByCategoryAndTheme(ctx, category, theme)
}

func TestListAllFailsAsAWhole(t *testing.T) {
	seed, err := DefaultSeed()
	require.NoError(t, err)

	_, err = ListAll(context.Background(), failingCatalog{Memory: NewMemory(seed), fail: models.AssetProp}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list props")
}

func TestSearch(t *testing.T) {
	assets := []models.AssetSummary{{Name: "Magic Wand"}, {Name: "Wizard"}, {Name: "Castle"}}

	assert.Len(t, Search(assets, ""), 3)
	assert.Equal(t, []models.AssetSummary{{Name: "Magic Wand"}}, Search(assets, "WAND"))
	assert.Len(t, Search(assets, "wi"), 1)
	assert.Empty(t, Search(assets, "dragon"))
}

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.CatalogAsset{}))
	return db
}

func TestGormCatalog(t *testing.T) {
	ctx := context.Background()
	db := newSQLite(t)
	seed, err := DefaultSeed()
	require.NoError(t, err)

	n, err := SeedDatabase(ctx, db, seed)
	require.NoError(t, err)
	assert.Equal(t, len(seed.Assets), n)

	n, err = SeedDatabase(ctx, db, seed)
	require.NoError(t, err)
	assert.Zero(t, n, "second seed is a no-op")

	c := NewGorm(db)
	mem := NewMemory(seed)
	for _, theme := range models.Themes {
		want, err := ListAll(ctx, mem, theme)
		require.NoError(t, err)
		got, err := ListAll(ctx, c, theme)
		require.NoError(t, err)
		assert.Equal(t, want, got, "theme %s", theme)
	}

	first, err := c.Get(ctx, models.AssetCharacter, "1")
	require.NoError(t, err)
	assert.Equal(t, seed.Assets[0].Name, first.Name)

	_, err = c.Get(ctx, models.AssetBackground, "1")
	assert.ErrorIs(t, err, storygraph.ErrNotFound)
	_, err = c.Get(ctx, models.AssetCharacter, "abc")
	assert.ErrorIs(t, err, storygraph.ErrNotFound)
}
