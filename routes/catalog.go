package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/1rvyn/story-builder/catalog"
	"github.com/1rvyn/story-builder/models"
)

// ListCatalog returns the full asset panel, grouped by category.
func (h *Handler) ListCatalog(c *fiber.Ctx) error {
	theme, err := parseTheme(c)
	if err != nil {
		return err
	}
	grouped, err := catalog.ListAll(c.UserContext(), h.Catalog, theme)
	if err != nil {
		return err
	}
	if q := c.Query("q"); q != "" {
		grouped.Characters = catalog.Search(grouped.Characters, q)
		grouped.Backgrounds = catalog.Search(grouped.Backgrounds, q)
		grouped.Props = catalog.Search(grouped.Props, q)
	}
	return c.JSON(grouped)
}

func (h *Handler) ListCategory(c *fiber.Ctx) error {
	category, ok := models.ParseAssetType(c.Params("category"))
	if !ok {
		return catalog.ErrUnknownCategory
	}
	theme, err := parseTheme(c)
	if err != nil {
		return err
	}
	assets, err := h.Catalog.ListByCategoryAndTheme(c.UserContext(), category, theme)
	if err != nil {
		return err
	}
	return c.JSON(catalog.Search(assets, c.Query("q")))
}
