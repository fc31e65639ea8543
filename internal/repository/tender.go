package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tendertrack/tender-agent/constants"
	"github.com/tendertrack/tender-agent/internal/common"
	"github.com/tendertrack/tender-agent/internal/entity"
)

type TenderRepository interface {
	Save(ctx context.Context, rec *entity.TenderRecord) error
	Get(ctx context.Context, id uuid.UUID) (*entity.TenderRecord, error)
	GetByTenderID(ctx context.Context, tenderID string) (*entity.TenderRecord, error)
	List(ctx context.Context, limit, offset int) ([]*entity.TenderRecord, error)
}

type tenderRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewTenderRepository(db *sql.DB, logger *slog.Logger) TenderRepository {
	return &tenderRepository{db: db, logger: logger}
}

// Save upserts by record id, so reprocessing a document replaces its
// previous record instead of duplicating it.
func (r *tenderRepository) Save(ctx context.Context, rec *entity.TenderRecord) error {
	linkedRefs, err := json.Marshal(rec.LinkedRefs)
	if err != nil {
		return fmt.Errorf("marshal linked_refs: %w", err)
	}
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	candidates, err := json.Marshal(rec.Candidates)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}
	degraded, err := json.Marshal(rec.Degraded)
	if err != nil {
		return fmt.Errorf("marshal degraded: %w", err)
	}
	var refined sql.NullString
	if rec.Refined != nil {
		b, err := json.Marshal(rec.Refined)
		if err != nil {
			return fmt.Errorf("marshal refined: %w", err)
		}
		refined = sql.NullString{String: string(b), Valid: true}
	}

	const q = `
INSERT INTO tender_records
	(id, tender_id, id_state, id_provenance, source_ref, linked_refs,
	 fields, refined, candidates, raw_text_ref, degraded, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
	tender_id     = excluded.tender_id,
	id_state      = excluded.id_state,
	id_provenance = excluded.id_provenance,
	source_ref    = excluded.source_ref,
	linked_refs   = excluded.linked_refs,
	fields        = excluded.fields,
	refined       = excluded.refined,
	candidates    = excluded.candidates,
	raw_text_ref  = excluded.raw_text_ref,
	degraded      = excluded.degraded,
	processed_at  = excluded.processed_at`

	_, err = r.db.ExecContext(ctx, q,
		rec.ID.String(), rec.Identifier.Value, string(rec.Identifier.State),
		string(rec.Identifier.Provenance), rec.SourceRef, string(linkedRefs),
		string(fields), refined, string(candidates), rec.RawTextRef,
		string(degraded), rec.ProcessedAt.UTC())
	if err != nil {
		r.logger.Error("failed to save tender record", "id", rec.ID, "error", err)
		return err
	}
	return nil
}

func (r *tenderRepository) Get(ctx context.Context, id uuid.UUID) (*entity.TenderRecord, error) {
	return r.one(ctx, `WHERE id = $1`, id.String())
}

func (r *tenderRepository) GetByTenderID(ctx context.Context, tenderID string) (*entity.TenderRecord, error) {
	return r.one(ctx, `WHERE tender_id = $1`, tenderID)
}

const selectCols = `
SELECT id, tender_id, id_state, id_provenance, source_ref, linked_refs,
       fields, refined, candidates, raw_text_ref, degraded, processed_at
FROM tender_records `

func (r *tenderRepository) one(ctx context.Context, where string, arg any) (*entity.TenderRecord, error) {
	row := r.db.QueryRowContext(ctx, selectCols+where, arg)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to load tender record", "error", err)
		return nil, err
	}
	return rec, nil
}

func (r *tenderRepository) List(ctx context.Context, limit, offset int) ([]*entity.TenderRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		selectCols+`ORDER BY processed_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		r.logger.Error("failed to list tender records", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.TenderRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*entity.TenderRecord, error) {
	var (
		rec                                      entity.TenderRecord
		idStr, state, prov                       string
		linkedRefs, fields, candidates, degraded string
		refined, rawTextRef                      sql.NullString
		processedAt                              time.Time
	)
	err := s.Scan(&idStr, &rec.Identifier.Value, &state, &prov, &rec.SourceRef,
		&linkedRefs, &fields, &refined, &candidates, &rawTextRef, &degraded, &processedAt)
	if err != nil {
		return nil, err
	}

	rec.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse record id: %w", err)
	}
	rec.Identifier.State = constants.IDState(state)
	rec.Identifier.Provenance = constants.Provenance(prov)
	rec.RawTextRef = rawTextRef.String
	rec.ProcessedAt = processedAt

	if err := json.Unmarshal([]byte(linkedRefs), &rec.LinkedRefs); err != nil {
		return nil, fmt.Errorf("unmarshal linked_refs: %w", err)
	}
	if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	if err := json.Unmarshal([]byte(candidates), &rec.Candidates); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}
	if err := json.Unmarshal([]byte(degraded), &rec.Degraded); err != nil {
		return nil, fmt.Errorf("unmarshal degraded: %w", err)
	}
	if refined.Valid {
		rec.Refined = &entity.RefinedFields{}
		if err := json.Unmarshal([]byte(refined.String), rec.Refined); err != nil {
			return nil, fmt.Errorf("unmarshal refined: %w", err)
		}
	}
	return &rec, nil
}
