package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/tendertrack/tender-agent/constants"
	"github.com/tendertrack/tender-agent/internal/entity"
)

// stubRepo serves a fixed slice with List paging semantics; the other
// repository methods are unused by the exporter.
type stubRepo struct {
	recs []*entity.TenderRecord
}

func (s *stubRepo) Save(ctx context.Context, rec *entity.TenderRecord) error { return nil }
func (s *stubRepo) Get(ctx context.Context, id uuid.UUID) (*entity.TenderRecord, error) {
	return nil, nil
}
func (s *stubRepo) GetByTenderID(ctx context.Context, tenderID string) (*entity.TenderRecord, error) {
	return nil, nil
}
func (s *stubRepo) List(ctx context.Context, limit, offset int) ([]*entity.TenderRecord, error) {
	if offset >= len(s.recs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.recs) {
		end = len(s.recs)
	}
	return s.recs[offset:end], nil
}

func sampleRecords() []*entity.TenderRecord {
	raw := &entity.TenderRecord{
		ID: uuid.New(),
		Identifier: entity.TenderIdentifier{
			Value: "TDR-2025-0042", Provenance: constants.ProvenanceGenerated,
		},
		SourceRef: "/inbox/a.pdf",
		Fields: entity.ReducedFields{
			Delivery:  "30 days from PO",
			Warranty:  "2 years",
			Standards: []string{"IS 5831", "IEC 60502"},
			SpecLines: []string{"4 sqmm FR single core"},
		},
	}
	refined := &entity.TenderRecord{
		ID: uuid.New(),
		Identifier: entity.TenderIdentifier{
			Value: "GEM/2024/B/12345", Provenance: constants.ProvenanceExtracted,
		},
		SourceRef: "/inbox/b.pdf",
		Fields: entity.ReducedFields{
			SpecLines: []string{"raw spec line"},
		},
		Refined: &entity.RefinedFields{
			Specs:    "11 kV XLPE, 3 core, aluminium conductor",
			Project:  "Rural Electrification Phase II",
			Ministry: "Ministry of Power",
		},
	}
	return []*entity.TenderRecord{raw, refined}
}

func TestExportTendersXLSX(t *testing.T) {
	svc := NewService(&stubRepo{recs: sampleRecords()}, nil)

	out, err := svc.ExportTendersXLSX(context.Background(), 0)
	if err != nil {
		t.Fatalf("ExportTendersXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Tenders")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("workbook has %d rows, want header + 2 records", len(rows))
	}
	if rows[0][0] != "Tender ID" || rows[0][1] != "ID Provenance" {
		t.Errorf("header row = %v", rows[0])
	}

	if rows[1][0] != "TDR-2025-0042" {
		t.Errorf("row 1 tender id = %q", rows[1][0])
	}
	if rows[1][2] != "30 days from PO" {
		t.Errorf("row 1 delivery = %q", rows[1][2])
	}
	if rows[1][7] != "IS 5831; IEC 60502" {
		t.Errorf("row 1 standards = %q", rows[1][7])
	}
	// raw spec lines shown when no refinement exists
	if rows[1][9] != "4 sqmm FR single core" {
		t.Errorf("row 1 specs = %q", rows[1][9])
	}

	// refined specs and project override raw values
	if rows[2][9] != "11 kV XLPE, 3 core, aluminium conductor" {
		t.Errorf("row 2 specs = %q", rows[2][9])
	}
	if rows[2][10] != "Rural Electrification Phase II" {
		t.Errorf("row 2 project = %q", rows[2][10])
	}
	if rows[2][11] != "Ministry of Power" {
		t.Errorf("row 2 ministry = %q", rows[2][11])
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	long := "abcdefghij"
	got := truncate(long, 5)
	if len([]rune(got)) != 5 || got[:4] != "abcd" {
		t.Errorf("truncate(%q, 5) = %q", long, got)
	}
}
