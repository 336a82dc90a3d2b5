package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/1rvyn/story-builder/audio"
	"github.com/1rvyn/story-builder/catalog"
	"github.com/1rvyn/story-builder/editor"
	"github.com/1rvyn/story-builder/middleware"
	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/playback"
	"github.com/1rvyn/story-builder/store"
)

// Handler serves the story builder API and the player page.
type Handler struct {
	Stories store.Store
	Catalog catalog.Catalog
	Editors *editor.Registry
	Players *playback.Sessions
	Audio   *audio.Recorder
}

// Register mounts every route on app.
func (h *Handler) Register(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/themes", h.Themes)
	api.Get("/catalog", h.ListCatalog)
	api.Get("/catalog/:category", h.ListCategory)

	api.Get("/stories", h.ListStories)
	api.Post("/stories", h.CreateStory)
	api.Get("/stories/:id", h.GetStory)
	api.Put("/stories/:id", h.UpdateStory)
	api.Delete("/stories/:id", h.DeleteStory)
	api.Post("/stories/:id/duplicate", h.DuplicateStory)
	api.Get("/stories/:id/lint", h.LintStory)
	api.Post("/stories/:id/play", h.StartPlayback)

	open := middleware.OpenStory(h.Editors)
	edit := api.Group("/stories/:id")
	edit.Get("/editor", open, h.EditorState)
	edit.Post("/save", open, h.SaveStory)
	edit.Put("/current", open, h.SelectScene)
	edit.Post("/scenes", open, h.AddScene)
	edit.Post("/scenes/reorder", open, h.ReorderScene)
	edit.Delete("/scenes/:index<int>", open, h.DeleteScene)
	edit.Put("/scenes/:sceneId/background", open, h.SetBackground)
	edit.Put("/scenes/:sceneId/audio", open, h.SetAudio)
	edit.Post("/scenes/:sceneId/decisions", open, h.AddDecision)
	edit.Patch("/scenes/:sceneId/decisions/:decisionId", open, h.UpdateDecision)
	edit.Delete("/scenes/:sceneId/decisions/:decisionId", open, h.RemoveDecision)
	edit.Post("/scenes/:sceneId/assets", open, h.PlaceAsset)
	edit.Put("/scenes/:sceneId/assets/:assetId/position", open, h.MoveAsset)
	edit.Post("/scenes/:sceneId/assets/:assetId/animate", open, h.AnimateAsset)
	edit.Delete("/scenes/:sceneId/assets/:assetId", open, h.DeleteAsset)

	api.Post("/audio/capture/start", h.StartCapture)
	api.Post("/audio/capture/chunk", h.WriteCapture)
	api.Post("/audio/capture/stop", h.StopCapture)
	api.Get("/audio/:id", h.StreamAudio)
	api.Delete("/audio/:id", h.DeleteAudio)

	api.Get("/play/:session", h.PlaybackState)
	api.Post("/play/:session/select", h.SelectDecision)
	api.Post("/play/:session/:action", h.PlaybackAction)
	api.Delete("/play/:session", h.EndPlayback)

	app.Get("/play/:session", h.PlayPage)
	app.Post("/play/:session/:action", h.PlayPageAction)
}

func (h *Handler) Themes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"themes":  models.Themes,
		"default": models.DefaultTheme,
	})
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

// parseTheme reads an optional theme query value.
func parseTheme(c *fiber.Ctx) (models.Theme, error) {
	raw := c.Query("theme")
	if raw == "" {
		return "", nil
	}
	theme, ok := models.ParseTheme(raw)
	if !ok {
		return "", badRequest("unknown theme " + raw)
	}
	return theme, nil
}
