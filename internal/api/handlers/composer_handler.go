package handlers

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/composeflow/internal/models"
	"github.com/maheshrc27/composeflow/internal/service"
	"github.com/maheshrc27/composeflow/internal/transfer"
)

type ComposerHandler struct {
	sessions service.SessionService
	composer service.ComposerService
	publish  service.PublishService
	preview  service.PreviewService
}

func NewComposerHandler(
	sessions service.SessionService,
	composer service.ComposerService,
	publish service.PublishService,
	preview service.PreviewService) *ComposerHandler {
	return &ComposerHandler{
		sessions: sessions,
		composer: composer,
		publish:  publish,
		preview:  preview,
	}
}

func (h *ComposerHandler) open(c *fiber.Ctx) (*models.Session, *service.ComposerSession, bool) {
	sess, err := h.sessions.Get(c.Context(), GetSessionID(c))
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Session not found",
		})
		return nil, nil, false
	}
	return sess, h.composer.Open(sess.ID), true
}

func (h *ComposerHandler) GetDraft(c *fiber.Ctx) error {
	_, cs, ok := h.open(c)
	if !ok {
		return nil
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"draft":      cs.SnapshotDraft(),
		"media":      cs.Media.Items(),
		"primary":    cs.Media.Primary(),
		"active_tab": cs.Tab(),
		"state":      cs.State().String(),
	})
}

func (h *ComposerHandler) UpdateDraft(c *fiber.Ctx) error {
	_, cs, ok := h.open(c)
	if !ok {
		return nil
	}

	var update transfer.DraftUpdate
	if err := c.BodyParser(&update); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	h.composer.UpdateDraft(cs, &update)
	return c.Status(fiber.StatusOK).JSON(cs.SnapshotDraft())
}

func (h *ComposerHandler) ToggleAccount(c *fiber.Ctx) error {
	_, cs, ok := h.open(c)
	if !ok {
		return nil
	}

	var toggle transfer.AccountToggle
	if err := c.BodyParser(&toggle); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	h.composer.ToggleAccount(cs, &toggle)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"draft":      cs.SnapshotDraft(),
		"active_tab": cs.Tab(),
	})
}

// UploadMedia accepts a multi-select of files; each one uploads on its own
// and completion order is not guaranteed.
func (h *ComposerHandler) UploadMedia(c *fiber.Ctx) error {
	sess, cs, ok := h.open(c)
	if !ok {
		return nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files selected",
		})
	}

	var items []models.MediaItem
	for _, file := range files {
		f, err := file.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to open file",
			})
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to read file",
			})
		}

		item, err := h.composer.EnqueueMedia(sess, cs, file.Filename, data)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		items = append(items, *item)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"media": items,
	})
}

func (h *ComposerHandler) RemoveMedia(c *fiber.Ctx) error {
	_, cs, ok := h.open(c)
	if !ok {
		return nil
	}

	var action transfer.MediaAction
	if err := c.BodyParser(&action); err != nil || action.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Media id is required",
		})
	}

	cs.Media.Remove(action.ID)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"media":   cs.Media.Items(),
		"primary": cs.Media.Primary(),
	})
}

func (h *ComposerHandler) SelectPrimary(c *fiber.Ctx) error {
	_, cs, ok := h.open(c)
	if !ok {
		return nil
	}

	var action transfer.MediaAction
	if err := c.BodyParser(&action); err != nil || action.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Media id is required",
		})
	}

	if err := cs.Media.SelectPrimary(action.ID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *ComposerHandler) MarkEdited(c *fiber.Ctx) error {
	_, cs, ok := h.open(c)
	if !ok {
		return nil
	}

	var edited transfer.EditedMedia
	if err := c.BodyParser(&edited); err != nil || edited.ID == "" || edited.RemoteURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Media id and remote_url are required",
		})
	}

	if err := cs.Media.MarkEdited(edited.ID, edited.RemoteURL); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *ComposerHandler) Preview(c *fiber.Ctx) error {
	_, cs, ok := h.open(c)
	if !ok {
		return nil
	}

	tab := c.Query("tab", cs.Tab())
	draft := cs.SnapshotDraft()
	preview := h.preview.Render(&draft, cs.Media.Items(), cs.Media.Primary(), tab)

	return c.Status(fiber.StatusOK).JSON(preview)
}

func (h *ComposerHandler) Suggestions(c *fiber.Ctx) error {
	_, cs, ok := h.open(c)
	if !ok {
		return nil
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"suggestions": h.composer.Suggestions(cs),
	})
}

func (h *ComposerHandler) ApplyMention(c *fiber.Ctx) error {
	_, cs, ok := h.open(c)
	if !ok {
		return nil
	}

	var body struct {
		Mention string `json:"mention"`
	}
	if err := c.BodyParser(&body); err != nil || body.Mention == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Mention is required",
		})
	}

	h.composer.ApplyMention(cs, body.Mention)
	return c.Status(fiber.StatusOK).JSON(cs.SnapshotDraft())
}

func (h *ComposerHandler) PublishNow(c *fiber.Ctx) error {
	return h.runPipeline(c, models.PostStatusPublish)
}

func (h *ComposerHandler) SaveDraft(c *fiber.Ctx) error {
	return h.runPipeline(c, models.PostStatusDraft)
}

func (h *ComposerHandler) Schedule(c *fiber.Ctx) error {
	var req transfer.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	var scheduledTime time.Time
	if req.ScheduledAt != "" {
		t, err := time.Parse("2006-01-02T15:04", req.ScheduledAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid scheduled time format",
			})
		}
		scheduledTime = t
	}

	sess, cs, ok := h.open(c)
	if !ok {
		return nil
	}
	if !scheduledTime.IsZero() {
		cs.SetSchedule(scheduledTime)
	}
	return h.dispatch(c, sess, cs, models.PostStatusScheduled)
}

func (h *ComposerHandler) runPipeline(c *fiber.Ctx, status string) error {
	sess, cs, ok := h.open(c)
	if !ok {
		return nil
	}
	return h.dispatch(c, sess, cs, status)
}

func (h *ComposerHandler) dispatch(c *fiber.Ctx, sess *models.Session, cs *service.ComposerSession, status string) error {
	result, err := h.publish.Run(c.Context(), sess, cs, status)
	if err != nil {
		return publishError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func publishError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrPublishInFlight) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if service.IsValidationError(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": apiErr.Message,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": service.GenericErrorMessage,
	})
}

// Result hands the last publishing outcome to the UI exactly once.
func (h *ComposerHandler) Result(c *fiber.Ctx) error {
	_, cs, ok := h.open(c)
	if !ok {
		return nil
	}

	result := cs.TakeResult()
	if result == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}
