package routes

import (
	"github.com/gofiber/fiber/v2"
)

type captureRequest struct {
	ContentType string `json:"contentType"`
}

func (h *Handler) StartCapture(c *fiber.Ctx) error {
	var req captureRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest("Cannot parse JSON")
		}
	}
	if err := h.Audio.StartCapture(c.UserContext(), req.ContentType); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// WriteCapture appends the raw request body to the current recording.
func (h *Handler) WriteCapture(c *fiber.Ctx) error {
	if _, err := h.Audio.Write(c.Body()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) StopCapture(c *fiber.Ctx) error {
	clip, err := h.Audio.StopCapture(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(clip)
}

func (h *Handler) StreamAudio(c *fiber.Ctx) error {
	body, clip, err := h.Audio.Open(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, clip.ContentType)
	return c.SendStream(body, int(clip.Size))
}

func (h *Handler) DeleteAudio(c *fiber.Ctx) error {
	if err := h.Audio.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
