package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/playback"
)

// playerView is what a client needs to draw the player.
type playerView struct {
	Session     string         `json:"session"`
	StoryID     string         `json:"storyId"`
	Title       string         `json:"title"`
	SceneCount  int            `json:"sceneCount"`
	State       playback.State `json:"state"`
	Scene       models.Scene   `json:"scene"`
	IsLast      bool           `json:"isLast"`
	CanNext     bool           `json:"canNext"`
	CanPrevious bool           `json:"canPrevious"`
	CanGoBack   bool           `json:"canGoBack"`
}

func viewOf(id string, p *playback.Player) playerView {
	story := p.Story()
	return playerView{
		Session:     id,
		StoryID:     story.ID,
		Title:       story.Title,
		SceneCount:  len(story.Scenes),
		State:       p.State(),
		Scene:       p.CurrentScene(),
		IsLast:      p.IsLast(),
		CanNext:     p.CanNext(),
		CanPrevious: p.CanPrevious(),
		CanGoBack:   p.CanGoBack(),
	}
}

// StartPlayback begins playing a story, from the working copy when it is
// open in the editor. ?start=N starts at scene N.
func (h *Handler) StartPlayback(c *fiber.Ctx) error {
	story, err := h.currentStory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	var opts []playback.Option
	if c.Query("start") != "" {
		start := c.QueryInt("start", -1)
		opts = append(opts, playback.WithStartIndex(start))
	}
	id, p, err := h.Players.Start(story, opts...)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(viewOf(id, p))
}

func (h *Handler) player(c *fiber.Ctx) (string, *playback.Player, error) {
	id := c.Params("session")
	p, err := h.Players.Get(id)
	return id, p, err
}

func (h *Handler) PlaybackState(c *fiber.Ctx) error {
	id, p, err := h.player(c)
	if err != nil {
		return err
	}
	return c.JSON(viewOf(id, p))
}

type selectRequest struct {
	DecisionID string `json:"decisionId" form:"decisionId"`
}

func (h *Handler) SelectDecision(c *fiber.Ctx) error {
	id, p, err := h.player(c)
	if err != nil {
		return err
	}
	var req selectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Cannot parse JSON")
	}
	if err := p.Select(req.DecisionID); err != nil {
		return err
	}
	return c.JSON(viewOf(id, p))
}

// PlaybackAction runs one of the player buttons. Moves that are not
// possible leave the state alone; "moved" tells the client which happened.
func (h *Handler) PlaybackAction(c *fiber.Ctx) error {
	id, p, err := h.player(c)
	if err != nil {
		return err
	}
	moved, err := runAction(p, c.Params("action"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"moved":  moved,
		"player": viewOf(id, p),
	})
}

func (h *Handler) EndPlayback(c *fiber.Ctx) error {
	h.Players.End(c.Params("session"))
	return c.SendStatus(fiber.StatusNoContent)
}

func runAction(p *playback.Player, action string) (bool, error) {
	switch action {
	case "reveal":
		return p.Reveal(), nil
	case "next":
		return p.Next(), nil
	case "previous":
		return p.Previous(), nil
	case "back":
		return p.Back(), nil
	case "go-back":
		return p.GoBack(), nil
	case "restart":
		p.Restart()
		return true, nil
	}
	return false, fiber.NewError(fiber.StatusNotFound, "unknown playback action "+action)
}
