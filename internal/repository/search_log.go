package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"partyfinder/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type SearchLogRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSearchLogRepository(db *sql.DB, logger zerolog.Logger) *SearchLogRepository {
	return &SearchLogRepository{db: db, logger: logger}
}

// Record appends one executed search. Failures are logged and swallowed by
// callers; the log is advisory and must not fail a search.
func (r *SearchLogRepository) Record(ctx context.Context, userID int64, summary string, resultCount int) error {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate nanoid: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO search_log (id, user_id, summary, result_count, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, summary, resultCount, time.Now().UTC())
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to record search")
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

func (r *SearchLogRepository) RecentByUser(ctx context.Context, userID int64, limit int) ([]domain.SearchRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, summary, result_count, created_at
		FROM search_log
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent searches: %w", err)
	}
	defer rows.Close()

	var records []domain.SearchRecord
	for rows.Next() {
		var rec domain.SearchRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Summary, &rec.ResultCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountSince returns the number of searches recorded at or after the cutoff.
func (r *SearchLogRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM search_log WHERE created_at >= ?`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count searches: %w", err)
	}
	return n, nil
}
