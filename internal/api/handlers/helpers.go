package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func GetSessionID(c *fiber.Ctx) string {
	id, _ := c.Locals("session_id").(string)
	return id
}
