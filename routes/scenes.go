package routes

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/1rvyn/story-builder/editor"
	"github.com/1rvyn/story-builder/middleware"
	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/storygraph"
)

type editorState struct {
	Story    models.Story             `json:"story"`
	Current  int                      `json:"current"`
	Dirty    bool                     `json:"dirty"`
	Dangling []storygraph.DanglingRef `json:"dangling"`

	// Animations maps placed-asset ids to their running animation.
	Animations map[string]string `json:"animations"`
}

func stateOf(sess *editor.Session) editorState {
	story := sess.Story()
	dangling := storygraph.DanglingReferences(story)
	if dangling == nil {
		dangling = []storygraph.DanglingRef{}
	}
	return editorState{
		Story:    story,
		Current:  sess.Current(),
		Dirty:    sess.Dirty(),
		Dangling: dangling,

		Animations: sess.Animations(),
	}
}

func (h *Handler) EditorState(c *fiber.Ctx) error {
	return c.JSON(stateOf(middleware.Session(c)))
}

func (h *Handler) SaveStory(c *fiber.Ctx) error {
	sess := middleware.Session(c)
	if err := sess.Save(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(stateOf(sess))
}

type indexRequest struct {
	Index int `json:"index"`
}

func (h *Handler) SelectScene(c *fiber.Ctx) error {
	var req indexRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Cannot parse JSON")
	}
	sess := middleware.Session(c)
	if err := sess.SelectScene(req.Index); err != nil {
		return err
	}
	return c.JSON(stateOf(sess))
}

func (h *Handler) AddScene(c *fiber.Ctx) error {
	sess := middleware.Session(c)
	if _, err := sess.AddScene(); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(stateOf(sess))
}

func (h *Handler) DeleteScene(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return badRequest("scene index must be a number")
	}
	sess := middleware.Session(c)
	if err := sess.DeleteScene(index); err != nil {
		return err
	}
	return c.JSON(stateOf(sess))
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *Handler) ReorderScene(c *fiber.Ctx) error {
	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Cannot parse JSON")
	}
	sess := middleware.Session(c)
	if err := sess.ReorderScene(req.From, req.To); err != nil {
		return err
	}
	return c.JSON(stateOf(sess))
}

type backgroundRequest struct {
	Background *string `json:"background"`
}

func (h *Handler) SetBackground(c *fiber.Ctx) error {
	var req backgroundRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Cannot parse JSON")
	}
	sess := middleware.Session(c)
	if err := sess.SetBackground(c.Params("sceneId"), req.Background); err != nil {
		return err
	}
	return c.JSON(stateOf(sess))
}

type audioRequest struct {
	AudioURL *string `json:"audioUrl"`
}

func (h *Handler) SetAudio(c *fiber.Ctx) error {
	var req audioRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Cannot parse JSON")
	}
	sess := middleware.Session(c)
	if err := sess.SetAudio(c.Params("sceneId"), req.AudioURL); err != nil {
		return err
	}
	return c.JSON(stateOf(sess))
}

type decisionRequest struct {
	Text          *string `json:"text"`
	TargetSceneID *string `json:"targetSceneId"`
	ClearTarget   bool    `json:"clearTarget"`
}

func (h *Handler) AddDecision(c *fiber.Ctx) error {
	var req decisionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Cannot parse JSON")
	}
	text := ""
	if req.Text != nil {
		text = *req.Text
	}
	d, err := middleware.Session(c).AddDecision(c.Params("sceneId"), text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

func (h *Handler) UpdateDecision(c *fiber.Ctx) error {
	var req decisionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Cannot parse JSON")
	}
	sess := middleware.Session(c)
	err := sess.UpdateDecision(c.Params("sceneId"), c.Params("decisionId"), storygraph.DecisionPatch{
		Text:          req.Text,
		TargetSceneID: req.TargetSceneID,
		ClearTarget:   req.ClearTarget,
	})
	if err != nil {
		return err
	}
	return c.JSON(stateOf(sess))
}

func (h *Handler) RemoveDecision(c *fiber.Ctx) error {
	if err := middleware.Session(c).RemoveDecision(c.Params("sceneId"), c.Params("decisionId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// placeRequest is a drop onto the canvas. Pointer is relative to the
// canvas origin and Canvas is its current size.
type placeRequest struct {
	Payload json.RawMessage `json:"payload"`
	Pointer models.Position `json:"pointer"`
	Canvas  models.Bounds   `json:"canvas"`
}

func (h *Handler) PlaceAsset(c *fiber.Ctx) error {
	var req placeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Cannot parse JSON")
	}
	payload, err := models.ParseDragPayload(req.Payload)
	if err != nil {
		return err
	}
	if req.Canvas.Width <= 0 || req.Canvas.Height <= 0 {
		return badRequest("canvas width and height must be positive")
	}

	asset := payload.Asset
	if asset.ID != payload.AssetID && h.Catalog != nil {
		asset, err = h.Catalog.Get(c.UserContext(), payload.Type, payload.AssetID)
		if err != nil {
			return err
		}
	}
	asset.ID = payload.AssetID
	asset.Type = payload.Type

	placed, err := middleware.Session(c).PlaceAsset(c.Params("sceneId"), asset, req.Pointer, req.Canvas)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(placed)
}

func (h *Handler) MoveAsset(c *fiber.Ctx) error {
	var pos models.Position
	if err := c.BodyParser(&pos); err != nil {
		return badRequest("Cannot parse JSON")
	}
	sess := middleware.Session(c)
	if err := sess.MoveAsset(c.Params("sceneId"), c.Params("assetId"), pos); err != nil {
		return err
	}
	return c.JSON(stateOf(sess))
}

type animateRequest struct {
	Animation string `json:"animation"`
}

func (h *Handler) AnimateAsset(c *fiber.Ctx) error {
	var req animateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Cannot parse JSON")
	}
	sess := middleware.Session(c)
	if err := sess.AnimateAsset(c.Params("sceneId"), c.Params("assetId"), req.Animation); err != nil {
		return err
	}
	return c.JSON(stateOf(sess))
}

func (h *Handler) DeleteAsset(c *fiber.Ctx) error {
	if err := middleware.Session(c).DeleteAsset(c.Params("sceneId"), c.Params("assetId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
