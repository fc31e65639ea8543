package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

type Server struct {
	listenAddr string
	app        *fiber.App
	logger     *slog.Logger
}

func NewServer(addr string, h *TenderHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    64 * 1024 * 1024, // tender PDFs can be large
	})

	check := app.Group("/check")
	check.Get("/healthy", h.HandleHealthy)

	apiv1 := app.Group("/api/v1")
	apiv1.Post("/tenders", h.HandleProcess)
	apiv1.Get("/tenders", h.HandleList)
	apiv1.Get("/tenders/export", h.HandleExport)
	apiv1.Get("/tenders/lookup/:tenderID", h.HandleLookup)
	apiv1.Get("/tenders/:id", h.HandleGet)
	apiv1.Post("/ingest", h.HandleIngest)

	return &Server{listenAddr: addr, app: app, logger: logger}
}

func (s *Server) Run() error {
	s.logger.Info("server listening", "addr", s.listenAddr)
	return s.app.Listen(s.listenAddr)
}

func (s *Server) Stop() {
	if err := s.app.Shutdown(); err != nil {
		s.logger.Error("server shutdown error", "error", err)
	}
	s.logger.Info("server stopped")
}
