package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spacesedan/sentimas/internal/models"
)

const createAnalisisTable = `
CREATE TABLE IF NOT EXISTS analisis (
    id                TEXT PRIMARY KEY,
    fuente            TEXT NOT NULL,
    texto_original    TEXT NOT NULL,
    sentimiento       TEXT NOT NULL,
    confianza         DOUBLE PRECISION NOT NULL,
    scores_detallados JSONB NOT NULL,
    fecha_analisis    TIMESTAMPTZ NOT NULL
)`

const insertAnalisis = `
INSERT INTO analisis (id, fuente, texto_original, sentimiento, confianza, scores_detallados, fecha_analisis)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates the analisis table when missing.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, createAnalisisTable); err != nil {
		return nil, fmt.Errorf("[Postgres] failed to create analisis table: %w", err)
	}
	slog.Info("[Postgres] analisis table ready")
	return &PostgresStore{db: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, original string, result models.ClassificationResult, source string) (models.AnalysisRecord, error) {
	record := NewRecord(original, result, source)
	args, err := insertArgs(record)
	if err != nil {
		return models.AnalysisRecord{}, err
	}
	if _, err := s.db.Exec(ctx, insertAnalisis, args...); err != nil {
		return models.AnalysisRecord{}, fmt.Errorf("[Postgres] failed to insert analysis: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) SaveBatch(ctx context.Context, records []models.AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		args, err := insertArgs(r)
		if err != nil {
			return err
		}
		batch.Queue(insertAnalisis, args...)
	}

	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("[Postgres] failed to insert batch of %d: %w", len(records), err)
	}
	slog.Info("[Postgres] Stored analysis batch", slog.Int("count", len(records)))
	return nil
}

func insertArgs(r models.AnalysisRecord) ([]any, error) {
	scores, err := json.Marshal(r.Scores)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scores: %w", err)
	}
	return []any{r.ID, r.Source, r.OriginalText, string(r.Sentiment), r.Confidence, string(scores), r.AnalyzedAt}, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]models.AnalysisRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, fuente, texto_original, sentimiento, confianza, scores_detallados, fecha_analisis
		FROM analisis
		ORDER BY fecha_analisis DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("[Postgres] failed to query analyses: %w", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var (
			r         models.AnalysisRecord
			sentiment string
			scores    []byte
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.OriginalText, &sentiment, &r.Confidence, &scores, &r.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("[Postgres] failed to scan analysis: %w", err)
		}
		r.Sentiment = models.Label(sentiment)
		if err := json.Unmarshal(scores, &r.Scores); err != nil {
			return nil, fmt.Errorf("[Postgres] bad scores for %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("[Postgres] row iteration failed: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}
