// internal/workers/telehealth/process-turn/audit.go
package processturn

import (
	"context"

	"telehealth-agent/internal/common/database"
	apperrors "telehealth-agent/internal/common/errors"
)

// AuditStore persists one row per evaluated turn.
type AuditStore interface {
	Record(ctx context.Context, rec AuditRecord) error
}

const createAuditTable = `CREATE TABLE IF NOT EXISTS telehealth_evaluations (
	id UUID PRIMARY KEY,
	turn_id TEXT NOT NULL,
	outcome TEXT NOT NULL,
	medical_accuracy DOUBLE PRECISION NOT NULL,
	precision_score DOUBLE PRECISION NOT NULL,
	language_clarity DOUBLE PRECISION NOT NULL,
	empathy DOUBLE PRECISION NOT NULL,
	overall_score DOUBLE PRECISION NOT NULL,
	feedback TEXT NOT NULL,
	retried BOOLEAN NOT NULL,
	selected TEXT NOT NULL,
	source_count INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

const createAuditIndex = `CREATE INDEX IF NOT EXISTS telehealth_evaluations_turn_idx ON telehealth_evaluations (turn_id)`

const insertAuditRow = `INSERT INTO telehealth_evaluations (
	id, turn_id, outcome, medical_accuracy, precision_score, language_clarity, empathy,
	overall_score, feedback, retried, selected, source_count, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// PostgresAuditStore writes audit rows through lib/pq.
type PostgresAuditStore struct {
	db *database.PostgresClient
}

func NewPostgresAuditStore(db *database.PostgresClient) *PostgresAuditStore {
	return &PostgresAuditStore{db: db}
}

// EnsureSchema creates the audit table and its index if missing.
func (s *PostgresAuditStore) EnsureSchema(ctx context.Context) error {
	if err := s.db.ExecStatements(ctx, createAuditTable, createAuditIndex); err != nil {
		return apperrors.NewAuditWriteError(err)
	}
	return nil
}

func (s *PostgresAuditStore) Record(ctx context.Context, rec AuditRecord) error {
	_, err := s.db.Exec(ctx, insertAuditRow,
		rec.ID,
		rec.TurnID,
		string(rec.Outcome),
		rec.Scores.MedicalAccuracy,
		rec.Scores.Precision,
		rec.Scores.LanguageClarity,
		rec.Scores.Empathy,
		rec.OverallScore,
		rec.Feedback,
		rec.Retried,
		rec.Selected,
		rec.SourceCount,
		rec.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAuditWriteError(err)
	}
	return nil
}
