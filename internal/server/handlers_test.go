package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/tendertrack/tender-agent/internal/classify"
	"github.com/tendertrack/tender-agent/internal/common"
	"github.com/tendertrack/tender-agent/internal/entity"
	"github.com/tendertrack/tender-agent/internal/extract"
	"github.com/tendertrack/tender-agent/internal/pipeline"
	"github.com/tendertrack/tender-agent/internal/tenderid"
)

// stubRepo serves one record by id and tender id.
type stubRepo struct {
	rec *entity.TenderRecord

	lookedUp string
}

func (s *stubRepo) Save(ctx context.Context, rec *entity.TenderRecord) error { return nil }

func (s *stubRepo) Get(ctx context.Context, id uuid.UUID) (*entity.TenderRecord, error) {
	if s.rec != nil && s.rec.ID == id {
		return s.rec, nil
	}
	return nil, common.ErrNotFound
}

func (s *stubRepo) GetByTenderID(ctx context.Context, tenderID string) (*entity.TenderRecord, error) {
	s.lookedUp = tenderID
	if s.rec != nil && s.rec.Identifier.Value == tenderID {
		return s.rec, nil
	}
	return nil, common.ErrNotFound
}

func (s *stubRepo) List(ctx context.Context, limit, offset int) ([]*entity.TenderRecord, error) {
	if s.rec == nil {
		return nil, nil
	}
	return []*entity.TenderRecord{s.rec}, nil
}

func newTestServer(t *testing.T, repo *stubRepo) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := tenderid.NewFileCounterStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rec := extract.NewRecoverer([]extract.Strategy{extract.PlainTextStrategy{}}, 50, nil, nil)
	proc := pipeline.NewProcessor(rec, nil, classify.NewClassifier(nil, logger),
		tenderid.NewResolver(store, false, logger), nil, nil, logger)

	h := NewTenderHandler(proc, repo, nil, nil, t.TempDir(), logger)
	return NewServer(":0", h, logger)
}

func TestHandleHealthy(t *testing.T) {
	s := newTestServer(t, &stubRepo{})
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/check/healthy", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleProcessUpload(t *testing.T) {
	s := newTestServer(t, &stubRepo{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "tender.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("Tender for supply of 11 kV cables.\n\n" +
		"Delivery: 30 days from PO, Warranty: 2 years, IS 5831\n"))
	_ = w.WriteField("email_subject", "Fwd: Tender No: TDR-2024-0099")
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenders", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.app.Test(req, 10000)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var rec entity.TenderRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rec.Identifier.Value != "TDR-2024-0099" {
		t.Errorf("tender id = %q, want the one from the email subject", rec.Identifier.Value)
	}
	if rec.Fields.Warranty != "2 years" {
		t.Errorf("warranty = %q", rec.Fields.Warranty)
	}
}

func TestHandleProcessRejectsExtension(t *testing.T) {
	s := newTestServer(t, &stubRepo{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, _ := w.CreateFormFile("file", "malware.exe")
	_, _ = fw.Write([]byte("x"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenders", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleLookupUppercases(t *testing.T) {
	repo := &stubRepo{rec: &entity.TenderRecord{
		ID:         uuid.New(),
		Identifier: entity.TenderIdentifier{Value: "TDR-2025-0042"},
	}}
	s := newTestServer(t, repo)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/tenders/lookup/tdr-2025-0042", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if repo.lookedUp != "TDR-2025-0042" {
		t.Errorf("repo queried with %q, want uppercased id", repo.lookedUp)
	}
}

func TestHandleGetErrors(t *testing.T) {
	s := newTestServer(t, &stubRepo{})

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/tenders/not-a-uuid", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid id: status = %d, want 400", resp.StatusCode)
	}
	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Code != http.StatusBadRequest || envelope.Message == "" {
		t.Errorf("envelope = %+v", envelope)
	}

	resp2, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/tenders/"+uuid.NewString(), nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("missing record: status = %d, want 404", resp2.StatusCode)
	}
}

func TestHandleList(t *testing.T) {
	repo := &stubRepo{rec: &entity.TenderRecord{
		ID:         uuid.New(),
		Identifier: entity.TenderIdentifier{Value: "TDR-2025-0042"},
	}}
	s := newTestServer(t, repo)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/tenders?limit=10", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}
