package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tendertrack/tender-agent/internal/entity"
	"github.com/tendertrack/tender-agent/internal/repository"
)

// Service is a tiny façade over the repository that produces XLSX bytes
// for exports.
type Service struct {
	tendersRepo repository.TenderRepository
	logger      *slog.Logger
}

func NewService(repo repository.TenderRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tendersRepo: repo, logger: logger}
}

// ExportTendersXLSX returns an XLSX workbook (as bytes) with one row per
// tender record, newest first. limit <= 0 exports everything in pages.
func (s *Service) ExportTendersXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	recs, err := s.listAll(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query tenders: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Tenders"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Tender ID",
		"ID Provenance",
		"Delivery",
		"Deadline",
		"Warranty",
		"Voltage",
		"Quantities",
		"Standards",
		"Item Descriptions",
		"Technical Specs",
		"Project",
		"Ministry",
		"Source",
		"Processed At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		specs := strings.Join(r.Fields.SpecLines, "; ")
		project, ministry := "", ""
		if r.Refined != nil {
			if r.Refined.Specs != "" {
				specs = r.Refined.Specs
			}
			project = r.Refined.Project
			ministry = r.Refined.Ministry
		}

		write(1, r.Identifier.Value)
		write(2, string(r.Identifier.Provenance))
		write(3, r.Fields.Delivery)
		write(4, r.Fields.Deadline)
		write(5, r.Fields.Warranty)
		write(6, r.Fields.Voltage)
		write(7, strings.Join(r.Fields.Quantities, "; "))
		write(8, strings.Join(r.Fields.Standards, "; "))
		write(9, truncate(strings.Join(r.Fields.ItemDescriptions, "; "), 140))
		write(10, truncate(specs, 240))
		write(11, project)
		write(12, ministry)
		write(13, r.SourceRef)
		if !r.ProcessedAt.IsZero() {
			write(14, r.ProcessedAt.Format("2006-01-02 15:04"))
		}

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 18) // tender id
	_ = f.SetColWidth(sheet, "B", "B", 14) // provenance
	_ = f.SetColWidth(sheet, "C", "F", 18) // scalar fields
	_ = f.SetColWidth(sheet, "G", "I", 30) // lists
	_ = f.SetColWidth(sheet, "J", "J", 48) // specs
	_ = f.SetColWidth(sheet, "K", "L", 24) // project/ministry
	_ = f.SetColWidth(sheet, "M", "M", 60) // source
	_ = f.SetColWidth(sheet, "N", "N", 18) // timestamp

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) listAll(ctx context.Context, limit int) ([]*entity.TenderRecord, error) {
	if limit > 0 {
		return s.tendersRepo.List(ctx, limit, 0)
	}

	const page = 200
	var out []*entity.TenderRecord
	for offset := 0; ; offset += page {
		recs, err := s.tendersRepo.List(ctx, page, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
		if len(recs) < page {
			return out, nil
		}
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
