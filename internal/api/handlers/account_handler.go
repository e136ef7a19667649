package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/composeflow/internal/service"
)

type AccountHandler struct {
	sessions service.SessionService
	client   *service.ContentClient
}

func NewAccountHandler(sessions service.SessionService, client *service.ContentClient) *AccountHandler {
	return &AccountHandler{sessions: sessions, client: client}
}

// ListAccounts proxies the connected social pages the session may publish to.
func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Context(), GetSessionID(c))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	accounts, err := h.client.ConnectedPages(c.Context(), sess)
	if err != nil {
		var apiErr *service.APIError
		if errors.As(err, &apiErr) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": apiErr.Message,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"accounts": accounts,
	})
}
