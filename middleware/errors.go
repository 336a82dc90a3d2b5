package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/1rvyn/story-builder/audio"
	"github.com/1rvyn/story-builder/catalog"
	"github.com/1rvyn/story-builder/editor"
	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/playback"
	"github.com/1rvyn/story-builder/store"
	"github.com/1rvyn/story-builder/storyfile"
	"github.com/1rvyn/story-builder/storygraph"
)

// Error kinds reported in the "kind" field of error responses.
const (
	KindLastScene          = "last_scene"
	KindDecisionLimit      = "decision_limit"
	KindDanglingDecision   = "dangling_decision"
	KindUnresolvableTarget = "unresolvable_target"
	KindNotFound           = "not_found"
	KindInvalid            = "invalid"
	KindConflict           = "conflict"
	KindCollaborator       = "collaborator_failure"
)

type errorMapping struct {
	target error
	status int
	kind   string
}

// mappings is checked in order with errors.Is.
var mappings = []errorMapping{
	{storygraph.ErrLastScene, fiber.StatusConflict, KindLastScene},
	{storygraph.ErrDecisionLimit, fiber.StatusConflict, KindDecisionLimit},
	{playback.ErrDanglingDecision, fiber.StatusUnprocessableEntity, KindDanglingDecision},
	{playback.ErrUnresolvableTarget, fiber.StatusUnprocessableEntity, KindUnresolvableTarget},

	{storygraph.ErrNotFound, fiber.StatusNotFound, KindNotFound},
	{playback.ErrSessionNotFound, fiber.StatusNotFound, KindNotFound},
	{playback.ErrDecisionNotFound, fiber.StatusNotFound, KindNotFound},
	{audio.ErrClipNotFound, fiber.StatusNotFound, KindNotFound},

	{storygraph.ErrEmptyDecisionText, fiber.StatusBadRequest, KindInvalid},
	{storygraph.ErrIndexOutOfRange, fiber.StatusBadRequest, KindInvalid},
	{storygraph.ErrMissingSceneID, fiber.StatusBadRequest, KindInvalid},
	{storygraph.ErrDuplicateSceneID, fiber.StatusBadRequest, KindInvalid},
	{playback.ErrIndexOutOfRange, fiber.StatusBadRequest, KindInvalid},
	{playback.ErrEmptyStory, fiber.StatusBadRequest, KindInvalid},
	{models.ErrInvalidPayload, fiber.StatusBadRequest, KindInvalid},
	{store.ErrNoScenes, fiber.StatusBadRequest, KindInvalid},
	{storyfile.ErrNoScenes, fiber.StatusBadRequest, KindInvalid},
	{catalog.ErrUnknownCategory, fiber.StatusBadRequest, KindInvalid},
	{audio.ErrEmptyRecording, fiber.StatusBadRequest, KindInvalid},

	{audio.ErrAlreadyCapturing, fiber.StatusConflict, KindConflict},
	{audio.ErrNoActiveCapture, fiber.StatusConflict, KindConflict},
	{editor.ErrSessionClosed, fiber.StatusConflict, KindConflict},
}

// Classify returns the HTTP status and kind for err.
func Classify(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.status, m.kind
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusNotFound:
			return fe.Code, KindNotFound
		case fe.Code < fiber.StatusInternalServerError:
			return fe.Code, KindInvalid
		default:
			return fe.Code, KindCollaborator
		}
	}
	return fiber.StatusBadGateway, KindCollaborator
}

// ErrorHandler is the app-wide fiber error handler. Every error becomes a
// JSON body with the message and its kind; dangling decisions are flagged
// as warnings since nothing went wrong on the server.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, kind := Classify(err)
	if kind == KindCollaborator {
		log.Printf("Request %s %s failed: %v", c.Method(), c.Path(), err)
	}

	body := fiber.Map{
		"error": err.Error(),
		"kind":  kind,
	}
	if kind == KindDanglingDecision {
		body["level"] = "warning"
	}
	return c.Status(status).JSON(body)
}
