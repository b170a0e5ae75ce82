package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/studybuddy/backend/internal/ingest"
	"github.com/studybuddy/backend/pkg/logger"
)

type DocumentHandler struct {
	processor *ingest.Processor
}

func NewDocumentHandler(processor *ingest.Processor) *DocumentHandler {
	return &DocumentHandler{
		processor: processor,
	}
}

// IngestDocument processes one uploaded document into a notebook. The
// response reports a best-effort processed count: per-chunk failures do
// not fail the request, only extraction or storage faults do.
func (h *DocumentHandler) IngestDocument(c *fiber.Ctx) error {
	var req struct {
		DocumentRef string `json:"document_ref"`
		NotebookID  string `json:"notebook_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.DocumentRef == "" || req.NotebookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "document_ref and notebook_id are required",
		})
	}

	if !validNotebookID(req.NotebookID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid notebook_id",
		})
	}

	result, err := h.processor.Ingest(c.Context(), req.NotebookID, req.DocumentRef)
	if err != nil {
		logger.Error("Failed to process document",
			zap.String("notebook_id", req.NotebookID),
			zap.String("document_ref", req.DocumentRef),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process document",
		})
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"chunks_processed": result.Processed,
	})
}
