package server

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tendertrack/tender-agent/constants"
	"github.com/tendertrack/tender-agent/internal/export"
	"github.com/tendertrack/tender-agent/internal/ingest"
	"github.com/tendertrack/tender-agent/internal/pipeline"
	"github.com/tendertrack/tender-agent/internal/repository"
)

// TenderHandler exposes the pipeline over HTTP.
type TenderHandler struct {
	Processor *pipeline.Processor
	Repo      repository.TenderRepository
	Ingestor  ingest.Ingestor
	Exporter  *export.Service
	WorkDir   string
	Logger    *slog.Logger
}

func NewTenderHandler(proc *pipeline.Processor, repo repository.TenderRepository,
	ing ingest.Ingestor, exp *export.Service, workDir string, logger *slog.Logger) *TenderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &TenderHandler{
		Processor: proc,
		Repo:      repo,
		Ingestor:  ing,
		Exporter:  exp,
		WorkDir:   workDir,
		Logger:    logger,
	}
}

func (h *TenderHandler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleProcess accepts a multipart upload ("file") with optional
// email_subject and email_body form fields, runs the pipeline on it and
// returns the finalized record.
func (h *TenderHandler) HandleProcess(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest("multipart field 'file' is required")
	}

	ext := constants.NormalizeExt(filepath.Ext(fileHeader.Filename))
	if !ingest.AllowedExt(ext) {
		return ErrBadRequest(fmt.Sprintf("unsupported file extension: %q", ext))
	}

	tmp, err := os.CreateTemp(h.WorkDir, "upload-*."+ext)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveFile(fileHeader, tmpPath); err != nil {
		return err
	}

	rec, err := h.Processor.Process(c.Context(), pipeline.Source{
		Path:         tmpPath,
		SourceRef:    fileHeader.Filename,
		EmailSubject: c.FormValue("email_subject"),
		EmailBody:    c.FormValue("email_body"),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

func (h *TenderHandler) HandleGet(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrBadRequest("invalid record id")
	}
	rec, err := h.Repo.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (h *TenderHandler) HandleLookup(c *fiber.Ctx) error {
	tenderID := strings.TrimSpace(c.Params("tenderID"))
	if tenderID == "" {
		return ErrBadRequest("tender id is required")
	}
	rec, err := h.Repo.GetByTenderID(c.Context(), strings.ToUpper(tenderID))
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (h *TenderHandler) HandleList(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	recs, err := h.Repo.List(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tenders": recs, "count": len(recs)})
}

func (h *TenderHandler) HandleExport(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	b, err := h.Exporter.ExportTendersXLSX(c.Context(), limit)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tenders.xlsx"`)
	return c.Send(b)
}

type ingestRequest struct {
	RootPath   string `json:"root_path"`
	SkipHidden bool   `json:"skip_hidden"`
}

func (h *TenderHandler) HandleIngest(c *fiber.Ctx) error {
	var req ingestRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrBadRequest("invalid JSON request")
	}
	if strings.TrimSpace(req.RootPath) == "" {
		return ErrBadRequest("root_path is required")
	}

	results, stats, err := h.Ingestor.IngestDirectory(c.Context(), req.RootPath, req.SkipHidden)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"stats": stats, "results": results})
}
