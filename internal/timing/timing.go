package timing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordIngestTime stores the wall time spent ingesting a number of papers
// under a topic. The rows feed the moving average used for queue estimates.
func RecordIngestTime(
	ctx context.Context,
	topic string,
	paperCount int64,
	durationMs int64,
	conn *pgxpool.Pool,
) error {
	_, err := conn.Exec(ctx, `
		INSERT INTO processing_stats (topic, paper_count, duration_ms)
		VALUES ($1, $2, $3)
	`, topic, paperCount, durationMs)
	if err != nil {
		return fmt.Errorf("failed to record ingest time: %w", err)
	}
	return nil
}

// PredictIngestTime estimates the time to ingest paperCount papers from the
// average per-paper duration over the last 100 recorded ingests. Returns 0
// when no history exists yet.
func PredictIngestTime(ctx context.Context, paperCount int64, conn *pgxpool.Pool) (int64, error) {
	var perPaperMs float64
	err := conn.QueryRow(ctx, `
		SELECT COALESCE(AVG(duration_ms::float8 / GREATEST(paper_count, 1)), 0)
		FROM (
			SELECT duration_ms, paper_count
			FROM processing_stats
			ORDER BY created_at DESC
			LIMIT 100
		) recent
	`).Scan(&perPaperMs)
	if err != nil {
		return 0, fmt.Errorf("failed to predict ingest time: %w", err)
	}
	return int64(perPaperMs * float64(paperCount)), nil
}
