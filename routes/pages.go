package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/1rvyn/story-builder/playback"
)

// PlayPage renders the player for a playback session.
func (h *Handler) PlayPage(c *fiber.Ctx) error {
	id, p, err := h.player(c)
	if err != nil {
		return err
	}
	return c.Render("play", pageData(id, p, ""))
}

// PlayPageAction handles the player page's form buttons and redirects back
// to the page. A decision that cannot be followed re-renders the page with
// the warning instead.
func (h *Handler) PlayPageAction(c *fiber.Ctx) error {
	id, p, err := h.player(c)
	if err != nil {
		return err
	}

	action := c.Params("action")
	if action == "select" {
		err = p.Select(c.FormValue("decisionId"))
	} else {
		_, err = runAction(p, action)
	}
	switch {
	case errors.Is(err, playback.ErrDanglingDecision), errors.Is(err, playback.ErrUnresolvableTarget):
		return c.Render("play", pageData(id, p, err.Error()))
	case err != nil:
		return err
	}
	return c.Redirect("/play/"+id, fiber.StatusSeeOther)
}

func pageData(id string, p *playback.Player, notice string) fiber.Map {
	v := viewOf(id, p)
	return fiber.Map{
		"Player":  v,
		"Number":  v.State.SceneIndex + 1,
		"Notice":  notice,
		"Ended":   v.IsLast && !v.Scene.HasDecisions(),
		"History": v.State.History,
	}
}
