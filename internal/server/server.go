package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"proposal-rag/internal/config"
)

type Server struct {
	app *fiber.App
	cfg *config.Config
}

func New(cfg *config.Config, h *Handlers) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	registerRoutes(app, h)

	return &Server{app: app, cfg: cfg}
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Info().Str("port", s.cfg.Server.Port).Msg("Server is running")
	return s.app.Listen(":" + s.cfg.Server.Port)
}

func registerRoutes(app *fiber.App, h *Handlers) {
	rfp := app.Group("/rfp")
	rfp.Post("/upload", h.UploadRFP)

	retrieval := app.Group("/retrieval")
	retrieval.Get("/search", h.SearchDocuments)
	retrieval.Get("/stats", h.IndexStats)

	proposal := app.Group("/proposal")
	proposal.Post("/generate", h.GenerateProposal)
	proposal.Post("/refine", h.RefineProposal)
	proposal.Get("/latest", h.LatestProposal)
	proposal.Post("/store", h.StoreProposal)
	proposal.Get("/export", h.ExportProposal)
}
