// AngelaMos | 2026
// service.go

package metric

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/auratrack/auratrack-api/internal/authz"
	"github.com/auratrack/auratrack-api/internal/core"
)

const invalidDateMessage = "Invalid date format. Use YYYY-MM-DD or an ISO timestamp."

type Service struct {
	store    Store
	log      LogRepository
	validate *validator.Validate
}

func NewService(store Store, log LogRepository) *Service {
	return &Service{
		store:    store,
		log:      log,
		validate: validator.New(),
	}
}

// Create writes the metric to Redis, then mirrors it to Postgres. The two
// writes are not atomic: when the mirror fails the Redis copy stays and
// the caller still gets an error.
func (s *Service) Create(
	ctx context.Context,
	id *authz.Identity,
	in CreateInput,
) (*Metric, error) {
	if err := authz.RequireAuthenticated(id); err != nil {
		return nil, err
	}

	ts, err := ParseDate(in.Date)
	if err != nil {
		return nil, err
	}

	if err := s.validate.Struct(in); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	m := &Metric{
		ID:         uuid.New().String(),
		UserID:     id.UserID,
		Timestamp:  ts,
		Mood:       in.Mood,
		Energy:     in.Energy,
		SleepHours: in.SleepHours,
	}

	if err := s.store.Put(ctx, m); err != nil {
		return nil, err
	}

	if err := s.log.Insert(ctx, m); err != nil {
		slog.ErrorContext(ctx, "metric stored without relational mirror",
			"metric_id", m.ID,
			"user_id", m.UserID,
			"error", err,
		)
		return nil, fmt.Errorf("mirror metric: %w", err)
	}

	return m, nil
}

// List returns the caller's own metrics, newest first.
func (s *Service) List(
	ctx context.Context,
	id *authz.Identity,
) ([]Metric, error) {
	if err := authz.RequireAuthenticated(id); err != nil {
		return nil, err
	}

	return s.store.ListByUser(ctx, id.UserID)
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
}

// ParseDate accepts a calendar date or an ISO 8601 timestamp. Values
// without a zone are taken as UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, core.ValidationError(invalidDateMessage)
}
