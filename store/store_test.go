package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/storygraph"
)

func ptr[T any](v T) *T { return &v }

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
	require.NoError(t, db.AutoMigrate(&models.StoryRecord{}))
	return db
}

// stores runs fn against every Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("gorm", func(t *testing.T) { fn(t, NewGorm(newSQLite(t))) })
}

func TestCreateDefaults(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		got, err := s.Create(context.Background(), Draft{})
		require.NoError(t, err)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, storygraph.DefaultTitle, got.Title)
		assert.Equal(t, models.ThemeFantasy, got.Theme)
		require.Len(t, got.Scenes, 1)
		assert.NotEmpty(t, got.Scenes[0].ID)
	})
}

func TestCreateStripsAnimations(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		scene := models.Scene{ID: "a", Assets: []models.PlacedAsset{
			{ID: "p", Type: models.AssetProp, AssetID: "7", Animation: "sparkle"},
		}}
		created, err := s.Create(ctx, Draft{Title: "Glow", Theme: models.ThemeSpace, Scenes: []models.Scene{scene}})
		require.NoError(t, err)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Glow", got.Title)
		assert.Equal(t, models.ThemeSpace, got.Theme)
		require.Len(t, got.Scenes[0].Assets, 1)
		assert.Empty(t, got.Scenes[0].Assets[0].Animation)
	})
}

func TestGetMissing(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		_, err := s.Get(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)

		var nf *storygraph.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "story", nf.Kind)
	})
}

func TestUpdate(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		created, err := s.Create(ctx, Draft{Title: "Draft"})
		require.NoError(t, err)

		target := "b"
		scenes := []models.Scene{
			{ID: "a", Decisions: []models.Decision{{ID: "d", Text: "On", TargetSceneID: &target}}},
			{ID: "b"},
		}
		updated, err := s.Update(ctx, created.ID, Patch{
			Title:  ptr("Final"),
			Theme:  ptr(models.ThemeUnderwater),
			Scenes: scenes,
		})
		require.NoError(t, err)
		assert.Equal(t, "Final", updated.Title)
		assert.Equal(t, models.ThemeUnderwater, updated.Theme)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, got.Scenes, 2)
		assert.Equal(t, "b", *got.Scenes[0].Decisions[0].TargetSceneID)

		// nil scenes leave the sequence alone
		_, err = s.Update(ctx, created.ID, Patch{Title: ptr("Again")})
		require.NoError(t, err)
		got, err = s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, got.Scenes, 2)
	})
}

func TestUpdateRejectsEmptyScenes(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		created, err := s.Create(ctx, Draft{})
		require.NoError(t, err)

		_, err = s.Update(ctx, created.ID, Patch{Scenes: []models.Scene{}})
		assert.ErrorIs(t, err, ErrNoScenes)

		_, err = s.Update(ctx, "missing", Patch{Title: ptr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func decisions(texts ...string) []models.Decision {
	out := make([]models.Decision, len(texts))
	for i, text := range texts {
		out[i] = models.Decision{ID: fmt.Sprintf("d%d", i), Text: text}
	}
	return out
}

func TestWritesRejectBrokenScenes(t *testing.T) {
	tests := []struct {
		name   string
		scenes []models.Scene
		want   error
	}{
		{
			name:   "too many decisions",
			scenes: []models.Scene{{ID: "s1", Decisions: decisions("a", "b", "c", "d")}},
			want:   storygraph.ErrDecisionLimit,
		},
		{
			name:   "empty decision text",
			scenes: []models.Scene{{ID: "s1", Decisions: decisions("a", "  ")}},
			want:   storygraph.ErrEmptyDecisionText,
		},
		{
			name:   "duplicate scene ids",
			scenes: []models.Scene{{ID: "x"}, {ID: "x"}},
			want:   storygraph.ErrDuplicateSceneID,
		},
		{
			name:   "missing scene id",
			scenes: []models.Scene{{ID: "x"}, {}},
			want:   storygraph.ErrMissingSceneID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores(t, func(t *testing.T, s Store) {
				ctx := context.Background()

				_, err := s.Create(ctx, Draft{Title: "Bad", Scenes: tt.scenes})
				assert.ErrorIs(t, err, tt.want)
				all, err := s.List(ctx, ListOptions{})
				require.NoError(t, err)
				assert.Empty(t, all, "nothing is stored")

				created, err := s.Create(ctx, Draft{Scenes: []models.Scene{{ID: "s1", Decisions: decisions("a", "b", "c")}}})
				require.NoError(t, err)
				_, err = s.Update(ctx, created.ID, Patch{Title: ptr("Changed"), Scenes: tt.scenes})
				assert.ErrorIs(t, err, tt.want)

				got, err := s.Get(ctx, created.ID)
				require.NoError(t, err)
				assert.Equal(t, storygraph.DefaultTitle, got.Title)
				require.Len(t, got.Scenes, 1)
				assert.Len(t, got.Scenes[0].Decisions, 3)
			})
		})
	}
}

func TestDelete(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		created, err := s.Create(ctx, Draft{})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, created.ID))
		_, err = s.Get(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, created.ID), ErrNotFound)
	})
}

func TestDuplicate(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		target := "two"
		orig, err := s.Create(ctx, Draft{
			Title: "Quest",
			Theme: models.ThemeAdventure,
			Scenes: []models.Scene{
				{ID: "one", Decisions: []models.Decision{{ID: "d", Text: "Go", TargetSceneID: &target}}},
				{ID: "two"},
			},
		})
		require.NoError(t, err)

		dup, err := s.Duplicate(ctx, orig.ID)
		require.NoError(t, err)
		assert.NotEqual(t, orig.ID, dup.ID)
		assert.Equal(t, "Quest (Copy)", dup.Title)
		assert.Equal(t, models.ThemeAdventure, dup.Theme)
		assert.Equal(t, "two", *dup.Scenes[0].Decisions[0].TargetSceneID)

		all, err := s.List(ctx, ListOptions{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		_, err = s.Duplicate(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListFilters(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, d := range []Draft{
			{Title: "Moon Base", Theme: models.ThemeSpace},
			{Title: "Dragon Keep", Theme: models.ThemeFantasy},
			{Title: "Reef", Theme: models.ThemeUnderwater},
		} {
			_, err := s.Create(ctx, d)
			require.NoError(t, err)
		}

		got, err := s.List(ctx, ListOptions{Theme: models.ThemeSpace})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Moon Base", got[0].Title)

		got, err = s.List(ctx, ListOptions{Query: "DRAGON"})
		require.NoError(t, err)
		require.Len(t, got, 1)

		got, err = s.List(ctx, ListOptions{SortBy: SortTitle})
		require.NoError(t, err)
		assert.Equal(t, []string{"Dragon Keep", "Moon Base", "Reef"}, titles(got))
	})
}

func titles(stories []models.Story) []string {
	out := make([]string, len(stories))
	for i, s := range stories {
		out[i] = s.Title
	}
	return out
}

func TestFilter(t *testing.T) {
	base := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	stories := []models.Story{
		{Title: "b", Theme: models.ThemeSpace, CreatedAt: base, UpdatedAt: base.Add(3 * time.Hour)},
		{Title: "a", Theme: models.ThemeFantasy, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
		{Title: "C", Theme: models.ThemeAdventure, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base},
	}

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"default sorts by updated desc", ListOptions{}, []string{"b", "a", "C"}},
		{"created desc", ListOptions{SortBy: SortCreated}, []string{"C", "a", "b"}},
		{"title asc ignores case", ListOptions{SortBy: SortTitle}, []string{"a", "b", "C"}},
		{"query matches theme", ListOptions{Query: "spa"}, []string{"b"}},
		{"theme filter", ListOptions{Theme: models.ThemeAdventure}, []string{"C"}},
		{"no match", ListOptions{Query: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(Filter(stories, tt.opts)))
		})
	}
}

func TestParseSortBy(t *testing.T) {
	assert.Equal(t, SortTitle, ParseSortBy(" Title "))
	assert.Equal(t, SortCreated, ParseSortBy("created"))
	assert.Equal(t, SortUpdated, ParseSortBy(""))
	assert.Equal(t, SortUpdated, ParseSortBy("bogus"))
}
