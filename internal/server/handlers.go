package server

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"proposal-rag/internal/pipeline"
	"proposal-rag/internal/session"
	"proposal-rag/internal/vectorstore"
)

const sessionHeader = "X-Session-ID"

type Handlers struct {
	pipe      *pipeline.Pipeline
	retriever pipeline.Retriever
	store     *vectorstore.Store
	uploadDir string
	topK      int
}

func NewHandlers(pipe *pipeline.Pipeline, retriever pipeline.Retriever, store *vectorstore.Store, uploadDir string, topK int) *Handlers {
	return &Handlers{
		pipe:      pipe,
		retriever: retriever,
		store:     store,
		uploadDir: uploadDir,
		topK:      topK,
	}
}

type generateRequest struct {
	RFPText       string   `json:"rfp_text"`
	RetrievedDocs []string `json:"retrieved_docs"`
}

type refineRequest struct {
	CurrentProposal string `json:"current_proposal"`
	UserFeedback    string `json:"user_feedback"`
}

type storeRequest struct {
	Proposal string `json:"proposal"`
}

// UploadRFP accepts a multipart RFP file, extracts its text and scores it.
func (h *Handlers) UploadRFP(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	dst := filepath.Join(h.uploadDir, filepath.Base(file.Filename))
	if err := c.SaveFile(file, dst); err != nil {
		log.Error().Err(err).Msg("Error saving uploaded file")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not save upload"})
	}

	result, err := h.pipe.ProcessUpload(c.Context(), dst, file.Filename)
	if err != nil {
		return stageErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"filename":               result.Filename,
		"extracted_text_preview": result.Preview,
		"complexity_score":       result.ComplexityScore,
	})
}

// SearchDocuments runs a similarity search against the proposal index.
func (h *Handlers) SearchDocuments(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query parameter is required"})
	}
	topK := h.topK
	if raw := c.Query("top_k"); raw != "" {
		if k, err := strconv.Atoi(raw); err == nil && k > 0 {
			topK = k
		}
	}
	docs := h.retriever.Retrieve(c.Context(), query, topK)
	return c.JSON(fiber.Map{"retrieved_docs": docs})
}

// IndexStats reports per-collection document counts.
func (h *Handlers) IndexStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"namespaces": h.store.Stats()})
}

// GenerateProposal drafts a proposal from RFP text, retrieving context
// unless the caller supplied its own.
func (h *Handlers) GenerateProposal(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	result, err := h.pipe.Generate(c.Context(), sessionID(c), req.RFPText, req.RetrievedDocs)
	if err != nil {
		return stageErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"proposal":       result.Proposal,
		"retrieved_docs": result.Retrieved,
	})
}

// RefineProposal revises the session's current draft against feedback.
func (h *Handlers) RefineProposal(c *fiber.Ctx) error {
	var req refineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	refined, err := h.pipe.Refine(c.Context(), sessionID(c), req.CurrentProposal, req.UserFeedback)
	if err != nil {
		return stageErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{"refined_proposal": refined})
}

// LatestProposal returns the session's current draft.
func (h *Handlers) LatestProposal(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"proposal": h.pipe.Latest(sessionID(c))})
}

// StoreProposal overwrites the session's current draft.
func (h *Handlers) StoreProposal(c *fiber.Ctx) error {
	var req storeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	h.pipe.StoreDraft(sessionID(c), req.Proposal)
	return c.JSON(fiber.Map{"status": "stored"})
}

// ExportProposal downloads the session's current draft as a text attachment.
// PDF rendering is delegated to an external rendering collaborator.
func (h *Handlers) ExportProposal(c *fiber.Ctx) error {
	draft := h.pipe.Latest(sessionID(c))
	if draft == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no proposal to export"})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="proposal.txt"`)
	return c.SendString(draft)
}

func sessionID(c *fiber.Ctx) string {
	if id := c.Get(sessionHeader); id != "" {
		return id
	}
	return session.DefaultID
}

// stageErrorResponse maps typed stage errors to HTTP statuses with stage
// attribution in the body.
func stageErrorResponse(c *fiber.Ctx, err error) error {
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		log.Error().Err(err).Msg("Unclassified pipeline error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	status := fiber.StatusInternalServerError
	switch stageErr.Kind {
	case pipeline.KindInvalidInput, pipeline.KindNoDraftAvailable:
		status = fiber.StatusBadRequest
	case pipeline.KindExtractionFailure:
		status = fiber.StatusUnprocessableEntity
	case pipeline.KindLLMInvocationFailure:
		status = fiber.StatusBadGateway
	}

	log.Error().Err(stageErr).Str("stage", string(stageErr.Stage)).Msg("Pipeline stage failed")
	return c.Status(status).JSON(fiber.Map{
		"error": fmt.Sprintf("%v", stageErr),
		"stage": string(stageErr.Stage),
		"kind":  string(stageErr.Kind),
	})
}
