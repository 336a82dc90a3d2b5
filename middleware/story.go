package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/1rvyn/story-builder/editor"
)

const sessionKey = "session"

// OpenStory loads the editing session for the :id route parameter and
// stores it in the request locals for the handlers behind it.
func OpenStory(reg *editor.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := reg.Open(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// Session returns the session set by OpenStory.
func Session(c *fiber.Ctx) *editor.Session {
	sess, _ := c.Locals(sessionKey).(*editor.Session)
	return sess
}
