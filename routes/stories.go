package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/store"
	"github.com/1rvyn/story-builder/storygraph"
)

func (h *Handler) ListStories(c *fiber.Ctx) error {
	theme, err := parseTheme(c)
	if err != nil {
		return err
	}
	stories, err := h.Stories.List(c.UserContext(), store.ListOptions{
		Query:  c.Query("q"),
		Theme:  theme,
		SortBy: store.ParseSortBy(c.Query("sort")),
	})
	if err != nil {
		return err
	}
	return c.JSON(stories)
}

func (h *Handler) CreateStory(c *fiber.Ctx) error {
	var draft store.Draft
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&draft); err != nil {
			return badRequest("Cannot parse JSON")
		}
	}
	if draft.Theme != "" && !draft.Theme.Valid() {
		return badRequest("unknown theme " + string(draft.Theme))
	}
	story, err := h.Stories.Create(c.UserContext(), draft)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(story)
}

// GetStory returns the working copy when the story is open in the editor,
// so unsaved edits are visible.
func (h *Handler) GetStory(c *fiber.Ctx) error {
	story, err := h.currentStory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(story)
}

// UpdateStory replaces fields wholesale. An open editing session is saved
// and closed first so it cannot overwrite the update later.
func (h *Handler) UpdateStory(c *fiber.Ctx) error {
	var patch store.Patch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest("Cannot parse JSON")
	}
	if patch.Theme != nil && !patch.Theme.Valid() {
		return badRequest("unknown theme " + string(*patch.Theme))
	}
	id := c.Params("id")
	if err := h.Editors.Close(c.UserContext(), id); err != nil {
		return err
	}
	story, err := h.Stories.Update(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(story)
}

func (h *Handler) DeleteStory(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Stories.Delete(c.UserContext(), id); err != nil {
		return err
	}
	h.Editors.Discard(id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) DuplicateStory(c *fiber.Ctx) error {
	id := c.Params("id")
	if sess, ok := h.Editors.Lookup(id); ok {
		if err := sess.Save(c.UserContext()); err != nil {
			return err
		}
	}
	story, err := h.Stories.Duplicate(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(story)
}

// LintStory lists decisions that cannot be followed during playback.
func (h *Handler) LintStory(c *fiber.Ctx) error {
	story, err := h.currentStory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	refs := storygraph.DanglingReferences(story)
	if refs == nil {
		refs = []storygraph.DanglingRef{}
	}
	return c.JSON(fiber.Map{
		"storyId":  story.ID,
		"dangling": refs,
	})
}

func (h *Handler) currentStory(ctx context.Context, id string) (models.Story, error) {
	if sess, ok := h.Editors.Lookup(id); ok {
		return sess.Story(), nil
	}
	return h.Stories.Get(ctx, id)
}
