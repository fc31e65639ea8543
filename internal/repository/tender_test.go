package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tendertrack/tender-agent/constants"
	"github.com/tendertrack/tender-agent/internal/common"
	"github.com/tendertrack/tender-agent/internal/entity"
)

func testRepo(t *testing.T) (TenderRepository, *SQLCounterStore, context.Context) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := OpenSQLite(":memory:", logger)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := Migrate(ctx, db, logger); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewTenderRepository(db, logger), NewSQLCounterStore(db, logger), ctx
}

func sampleRecord() *entity.TenderRecord {
	return &entity.TenderRecord{
		ID: uuid.New(),
		Identifier: entity.TenderIdentifier{
			Value:      "TDR-2025-0042",
			State:      constants.IDFinalized,
			Provenance: constants.ProvenanceGenerated,
			Counter:    42,
			Year:       2025,
		},
		SourceRef:  "/inbox/tender.pdf",
		LinkedRefs: []string{"https://portal.example/annexure.pdf"},
		Fields: entity.ReducedFields{
			Delivery:  "30 days from PO",
			Warranty:  "2 years",
			Standards: []string{"IS 5831"},
		},
		Candidates: []entity.FieldCandidate{
			{Field: constants.FieldDelivery, Value: "30 days from PO", Rule: "delivery-labeled", Priority: 30},
		},
		RawTextRef:  "/artifacts/abc_raw.txt",
		ProcessedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestSaveAndGet(t *testing.T) {
	repo, _, ctx := testRepo(t)

	rec := sampleRecord()
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Identifier.Value != rec.Identifier.Value {
		t.Errorf("Identifier.Value = %q, want %q", got.Identifier.Value, rec.Identifier.Value)
	}
	if got.Identifier.State != constants.IDFinalized {
		t.Errorf("Identifier.State = %q, want %q", got.Identifier.State, constants.IDFinalized)
	}
	if got.Fields.Delivery != "30 days from PO" {
		t.Errorf("Fields.Delivery = %q", got.Fields.Delivery)
	}
	if len(got.LinkedRefs) != 1 || got.LinkedRefs[0] != rec.LinkedRefs[0] {
		t.Errorf("LinkedRefs = %v", got.LinkedRefs)
	}
	if len(got.Candidates) != 1 || got.Candidates[0].Rule != "delivery-labeled" {
		t.Errorf("Candidates = %v", got.Candidates)
	}
	if got.Refined != nil {
		t.Error("Refined should be nil when not persisted")
	}
	if got.RawTextRef != rec.RawTextRef {
		t.Errorf("RawTextRef = %q", got.RawTextRef)
	}
}

func TestSaveUpserts(t *testing.T) {
	repo, _, ctx := testRepo(t)

	rec := sampleRecord()
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}

	rec.Fields.Delivery = "45 days from PO"
	rec.Refined = &entity.RefinedFields{Project: "Rural Electrification Phase II"}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save() upsert error = %v", err)
	}

	got, err := repo.Get(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Fields.Delivery != "45 days from PO" {
		t.Errorf("Fields.Delivery = %q after upsert", got.Fields.Delivery)
	}
	if got.Refined == nil || got.Refined.Project != "Rural Electrification Phase II" {
		t.Errorf("Refined = %+v after upsert", got.Refined)
	}

	list, err := repo.List(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("List() returned %d records after upsert, want 1", len(list))
	}
}

func TestGetByTenderID(t *testing.T) {
	repo, _, ctx := testRepo(t)

	rec := sampleRecord()
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByTenderID(ctx, "TDR-2025-0042")
	if err != nil {
		t.Fatalf("GetByTenderID() error = %v", err)
	}
	if got.ID != rec.ID {
		t.Errorf("ID = %s, want %s", got.ID, rec.ID)
	}
}

func TestGetNotFound(t *testing.T) {
	repo, _, ctx := testRepo(t)

	if _, err := repo.Get(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByTenderID(ctx, "TDR-1999-0001"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetByTenderID() error = %v, want ErrNotFound", err)
	}
}

func TestListOrderAndPaging(t *testing.T) {
	repo, _, ctx := testRepo(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		rec := sampleRecord()
		rec.ID = uuid.New()
		rec.Identifier.Value = "TDR-2025-000" + string(rune('1'+i))
		rec.ProcessedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	list, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(list))
	}
	if list[0].Identifier.Value != "TDR-2025-0003" {
		t.Errorf("newest first: got %q", list[0].Identifier.Value)
	}

	rest, err := repo.List(ctx, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 || rest[0].Identifier.Value != "TDR-2025-0001" {
		t.Errorf("second page = %v", rest)
	}
}

func TestSQLCounterStore(t *testing.T) {
	_, store, ctx := testRepo(t)

	for want := 1; want <= 3; want++ {
		got, err := store.Next(ctx, 2025)
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if got != want {
			t.Fatalf("Next() = %d, want %d", got, want)
		}
	}

	got, err := store.Next(ctx, 2026)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("Next(2026) = %d, want 1 (years independent)", got)
	}
}
