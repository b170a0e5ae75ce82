package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/studybuddy/backend/internal/chat"
	"github.com/studybuddy/backend/internal/metrics"
	"github.com/studybuddy/backend/pkg/logger"
)

type ChatHandler struct {
	engine *chat.Engine
}

func NewChatHandler(engine *chat.Engine) *ChatHandler {
	return &ChatHandler{
		engine: engine,
	}
}

// HandleMessage answers one question against a notebook's content. The
// user's message is persisted before the answer is computed, so a failed
// request still leaves the question in the conversation history.
func (h *ChatHandler) HandleMessage(c *fiber.Ctx) error {
	var req struct {
		Message    string `json:"message"`
		NotebookID string `json:"notebook_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Message == "" || req.NotebookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message and notebook_id are required",
		})
	}

	if !validNotebookID(req.NotebookID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid notebook_id",
		})
	}

	answer, err := h.engine.Answer(c.Context(), req.NotebookID, req.Message)
	if err != nil {
		metrics.QueryTotal.WithLabelValues("error").Inc()
		logger.Error("Failed to answer message",
			zap.String("notebook_id", req.NotebookID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to answer message",
		})
	}

	metrics.QueryTotal.WithLabelValues("ok").Inc()

	return c.JSON(fiber.Map{
		"answer": answer,
	})
}

// GetHistory returns the notebook's conversation in creation order.
func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	notebookID := c.Query("notebook_id")
	if notebookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "notebook_id is required",
		})
	}

	if !validNotebookID(notebookID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid notebook_id",
		})
	}

	turns, err := h.engine.History(c.Context(), notebookID)
	if err != nil {
		logger.Error("Failed to load conversation history",
			zap.String("notebook_id", notebookID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	messages := make([]fiber.Map, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, fiber.Map{
			"id":         t.ID,
			"role":       t.Role,
			"content":    t.Content,
			"created_at": t.CreatedAt.UnixMilli(),
		})
	}

	return c.JSON(fiber.Map{
		"messages": messages,
	})
}
