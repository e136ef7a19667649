package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/composeflow/configs"
	"github.com/maheshrc27/composeflow/internal/service"
	"github.com/maheshrc27/composeflow/internal/transfer"
	"github.com/maheshrc27/composeflow/pkg/utils"
)

type AuthHandler struct {
	cfg config.Config
	s   service.SessionService
	c   service.ComposerService
}

func NewAuthHandler(cfg config.Config, s service.SessionService, c service.ComposerService) *AuthHandler {
	return &AuthHandler{cfg: cfg, s: s, c: c}
}

// Login stores the caller's content-API bearer token and role as a new
// composer session and hands back a signed session cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req transfer.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	sess, err := h.s.Create(c.Context(), req.Token, req.Role)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ttl := time.Duration(h.cfg.SessionTTLMinutes) * time.Minute
	signed, err := utils.GenerateToken(h.cfg.SecretKey, sess.ID, ttl)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to create session",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		HTTPOnly: true,
		MaxAge:   int(ttl.Seconds()),
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"role": sess.Role,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sessionID := GetSessionID(c)
	if sessionID != "" {
		if err := h.s.Clear(c.Context(), sessionID); err != nil {
			slog.Info(err.Error())
		}
		h.c.Discard(sessionID)
	}

	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	return c.SendStatus(fiber.StatusOK)
}
