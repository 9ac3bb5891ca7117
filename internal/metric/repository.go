// AngelaMos | 2026
// repository.go

package metric

import (
	"context"
	"fmt"

	"github.com/auratrack/auratrack-api/internal/core"
)

// LogRepository mirrors metrics into the relational store for analytics.
// It is written after the Redis store and never read on the request path.
type LogRepository interface {
	Insert(ctx context.Context, m *Metric) error
}

type logRepository struct {
	db core.DBTX
}

func NewLogRepository(db core.DBTX) LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) Insert(ctx context.Context, m *Metric) error {
	query := `
		INSERT INTO metrics_log (id, user_id, timestamp, mood, energy, sleep_hours)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.UserID,
		m.Timestamp,
		m.Mood,
		m.Energy,
		m.SleepHours,
	)
	if err != nil {
		return fmt.Errorf("insert metric log: %w", err)
	}

	return nil
}
