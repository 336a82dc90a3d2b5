// Package catalog serves the themed asset library the editor draws from.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/storygraph"
)

var ErrUnknownCategory = errors.New("unknown asset category")

// Catalog looks up assets by category and theme. An empty theme means
// every theme.
type Catalog interface {
	ListByCategoryAndTheme(ctx context.Context, category models.AssetType, theme models.Theme) ([]models.AssetSummary, error)
	Get(ctx context.Context, category models.AssetType, id string) (models.AssetSummary, error)
}

// Grouped is the whole asset panel for one theme.
type Grouped struct {
	Characters  []models.AssetSummary `json:"characters"`
	Backgrounds []models.AssetSummary `json:"backgrounds"`
	Props       []models.AssetSummary `json:"props"`
}

// DefaultAnimations returns the animation tags an asset gets when its
// record has none.
func DefaultAnimations(category models.AssetType) []string {
	switch category {
	case models.AssetCharacter:
		return []string{"walk", "jump", "wave"}
	case models.AssetProp:
		return []string{"sparkle"}
	default:
		return []string{}
	}
}

// Normalize turns a catalog row into the summary shape. Missing fields get
// defaults so downstream code never sees a partial record.
func Normalize(row models.CatalogAsset) models.AssetSummary {
	category, ok := models.ParseAssetType(row.Category)
	if !ok {
		category = models.AssetProp
	}
	theme, ok := models.ParseTheme(row.Theme)
	if !ok {
		theme = models.DefaultTheme
	}

	var anims []string
	for _, a := range strings.Split(row.Animations, ",") {
		if a = strings.TrimSpace(a); a != "" {
			anims = append(anims, a)
		}
	}
	if len(anims) == 0 {
		anims = DefaultAnimations(category)
	}

	name := strings.TrimSpace(row.Name)
	if name == "" {
		name = "Untitled " + string(category)
	}

	return models.AssetSummary{
		ID:         strconv.FormatUint(uint64(row.ID), 10),
		Name:       name,
		Theme:      theme,
		ImageRef:   row.ImageURL,
		Animations: anims,
		Type:       category,
	}
}

// ListAll fetches the three categories for theme concurrently. Any failure
// fails the whole call.
func ListAll(ctx context.Context, c Catalog, theme models.Theme) (Grouped, error) {
	var out Grouped
	g, ctx := errgroup.WithContext(ctx)

	fetch := func(category models.AssetType, dst *[]models.AssetSummary) {
		g.Go(func() error {
			assets, err := c.ListByCategoryAndTheme(ctx, category, theme)
			if err != nil {
				return fmt.Errorf("list %ss: %w", category, err)
			}
			*dst = assets
			return nil
		})
	}
	fetch(models.AssetCharacter, &out.Characters)
	fetch(models.AssetBackground, &out.Backgrounds)
	fetch(models.AssetProp, &out.Props)

	if err := g.Wait(); err != nil {
		return Grouped{}, err
	}
	return out, nil
}

// Search keeps the assets whose name contains term, ignoring case.
func Search(assets []models.AssetSummary, term string) []models.AssetSummary {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return assets
	}
	out := make([]models.AssetSummary, 0, len(assets))
	for _, a := range assets {
		if strings.Contains(strings.ToLower(a.Name), term) {
			out = append(out, a)
		}
	}
	return out
}

func notFound(category models.AssetType, id string) error {
	return &storygraph.NotFoundError{Kind: string(category), ID: id}
}
